package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/podplan/app"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve every k-subset of the configured scenarios",
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withService(func(svc *app.Service) error {
		svc.ServeMetrics(ctx)
		rep, err := svc.Solve(ctx)
		if rep != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d subsets, %d solved, %d skipped, %d failed\n",
				rep.BatchID, rep.Total, rep.Solved, rep.Skipped, rep.Failed)
			if rerr := rep.Err(); rerr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "errors during batch: %v\n", rerr)
			}
		}
		return err
	})
}
