package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/podplan/app"
	"github.com/kilianp07/podplan/config"
	"github.com/kilianp07/podplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "podplan",
	Short:        "Two-stage stochastic POD location over scenario subsets",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, runs fn and closes the service.
func withService(fn func(svc *app.Service) error) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(svc)
}
