package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/podplan/app"
	"github.com/kilianp07/podplan/core/model"
)

var (
	subsetFlag string
	flatFlag   bool
)

var exportLPCmd = &cobra.Command{
	Use:   "export-lp",
	Short: "Write the model of one scenario subset in LP format",
	RunE:  runExportLP,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the accessibility structure of a scenario subset",
	RunE:  runInspect,
}

func init() {
	exportLPCmd.Flags().StringVarP(&subsetFlag, "subset", "s", "", "scenario subset, e.g. 1,2")
	_ = exportLPCmd.MarkFlagRequired("subset")
	inspectCmd.Flags().StringVarP(&subsetFlag, "subset", "s", "", "scenario subset, e.g. 1,2")
	inspectCmd.Flags().BoolVar(&flatFlag, "flat", false, "write the POD->demand index as one ';'-separated table")
	_ = inspectCmd.MarkFlagRequired("subset")
	rootCmd.AddCommand(exportLPCmd, inspectCmd)
}

func runExportLP(cmd *cobra.Command, args []string) error {
	sub, err := model.ParseSubset(subsetFlag)
	if err != nil {
		return err
	}
	return withService(func(svc *app.Service) error {
		path, err := svc.ExportLP(sub)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	})
}

func runInspect(cmd *cobra.Command, args []string) error {
	sub, err := model.ParseSubset(subsetFlag)
	if err != nil {
		return err
	}
	return withService(func(svc *app.Service) error {
		return svc.Inspect(cmd.OutOrStdout(), sub, flatFlag)
	})
}
