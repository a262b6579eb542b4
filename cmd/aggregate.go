package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/podplan/app"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate persisted subset solutions",
	RunE:  runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		out, err := svc.Aggregate()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		res := out.Result
		fmt.Fprintf(w, "%d files read, %d skipped, %d PODs selected\n", res.Read, len(res.Skipped), len(res.Selected))
		for _, sk := range res.Skipped {
			fmt.Fprintf(w, "skipped %s: %v\n", sk.Path, sk.Err)
		}
		for _, p := range out.Outputs {
			fmt.Fprintln(w, p)
		}
		return nil
	})
}
