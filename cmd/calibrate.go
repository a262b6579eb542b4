package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/podplan/app"
)

var (
	calibrateVerbose bool
	calibrateChart   string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Sweep the coverage threshold over the calibration scenarios",
	RunE:  runCalibrate,
}

func init() {
	calibrateCmd.Flags().BoolVarP(&calibrateVerbose, "verbose", "v", false, "print the whole sweep")
	calibrateCmd.Flags().StringVar(&calibrateChart, "chart", "", "write the sweep as an HTML chart to this path")
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		res, err := svc.Calibrate()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if calibrateVerbose {
			for _, p := range res.Sweep {
				fmt.Fprintf(w, "%.4f\t%.6f\n", p.Tau, p.Deviation)
			}
		}
		if calibrateChart != "" {
			if err := svc.WriteCalibrationChart(calibrateChart, res); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "best threshold %.4f (mean deviation %.6f)\n", res.Tau, res.Deviation)
		return nil
	})
}
