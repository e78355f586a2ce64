package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued actions against the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.cache.IsOnline() {
			return errors.New("backend unreachable, nothing replayed")
		}

		report := e.cache.Sync(cmd.Context())
		if report.Err != nil {
			return report.Err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "replayed: %d failed: %d dropped: %d remaining: %d\n",
			report.Replayed, report.Failed, report.DeadLettered, report.Remaining)

		return nil
	},
}
