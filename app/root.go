// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/medtracker/medtracker/internal/config"
	"github.com/medtracker/medtracker/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Directory holding main.toml")
}

var (
	configPath string // Directory of the configuration file

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "medtracker",
		Short: "medtracker is a personal medication tracking service",
		Long: `medtracker keeps a list of medicines with their daily schedules,
creates the doses due each day and records them as taken or skipped.
It serves a JSON API with the schedule of the day, the dose history,
adherence statistics, settings and a full data export.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err //nolint:wrapcheck
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}
