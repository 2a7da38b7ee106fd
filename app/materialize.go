package app

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medtracker/medtracker/internal/daemon"
	"github.com/medtracker/medtracker/internal/logger"
)

func init() { //nolint: gochecknoinits
	materializeCmd.Flags().StringVar(&materializeDate, "date", "", "Day to materialize as YYYY-MM-DD, default today")

	rootCmd.AddCommand(materializeCmd)
}

var (
	materializeDate string

	materializeCmd = &cobra.Command{
		Use:   "materialize",
		Short: "Create the pending doses of every medicine due on a day",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() {
				_ = logger.Close()
			}()

			created, err := daemon.Materialize(&cfg, materializeDate)
			if err != nil {
				log.Error().Err(err).Str("date", materializeDate).Msg("materialization failed")
				return err //nolint:wrapcheck
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d log entries\n", created)

			return err //nolint:wrapcheck
		},
	}
)
