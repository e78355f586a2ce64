package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and edit the offline action queue",
}

var queueAddCmd = &cobra.Command{
	Use:   "add JSON",
	Short: "Append a raw action payload to the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !json.Valid([]byte(args[0])) {
			return fmt.Errorf("payload is not valid JSON: %s", args[0])
		}

		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		action, outcome := e.cache.QueueAction(json.RawMessage(args[0]))
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action.ID, outcome)

		return nil
	},
}

var queueListJSON bool

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued actions, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		actions := e.cache.ListQueuedActions()

		if queueListJSON {
			return printJSON(cmd.OutOrStdout(), actions)
		}

		rows := make([][]string, 0, len(actions))

		for _, a := range actions {
			rows = append(rows, []string{
				a.ID,
				a.QueuedAt().Format("2006-01-02 15:04:05"),
				strconv.Itoa(a.Attempts),
				a.LastError,
				string(a.Payload),
			})
		}

		printTable(cmd.OutOrStdout(), []string{"ID", "Queued", "Attempts", "Last error", "Payload"}, rows)

		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every queued action",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		fmt.Fprintln(cmd.OutOrStdout(), e.cache.ClearQueuedActions())

		return nil
	},
}

func init() {
	queueListCmd.Flags().BoolVar(&queueListJSON, "json", false, "Print the queue as JSON")

	queueCmd.AddCommand(queueAddCmd, queueListCmd, queueClearCmd)
}
