package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and edit cached entries",
}

var cachePutTTL time.Duration

var cachePutCmd = &cobra.Command{
	Use:   "put KEY JSON",
	Short: "Store a JSON value under KEY",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("value is not valid JSON: %s", args[1])
		}

		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		outcome := e.cache.Put(args[0], json.RawMessage(args[1]), cachePutTTL)
		fmt.Fprintln(cmd.OutOrStdout(), outcome)

		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the fresh value stored under KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		raw, ok := e.cache.Get(args[0])
		if !ok {
			return fmt.Errorf("key %q not found", args[0])
		}

		return printJSON(cmd.OutOrStdout(), raw)
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm KEY",
	Short: "Remove KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		fmt.Fprintln(cmd.OutOrStdout(), e.cache.Remove(args[0]))

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry, leaving the action queue alone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		fmt.Fprintln(cmd.OutOrStdout(), e.cache.ClearAll())

		return nil
	},
}

func init() {
	cachePutCmd.Flags().DurationVar(&cachePutTTL, "ttl", 0, "Time to live (default from cache_duration)")

	cacheCmd.AddCommand(cachePutCmd, cacheGetCmd, cacheRmCmd, cacheClearCmd)
}
