// Package commands implements the offcache CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/achu-1612/offcache/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
)

var flags struct {
	configPath string
	offline    bool
	debug      bool
	quiet      bool
}

// cfg is loaded once the command line is parsed.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "offcache",
	Short: "Offline cache and action queue for the school backend",
	Long: `offcache keeps a persistent, expiring copy of backend reads and a queue of
mutations made while the backend was unreachable, and replays the queue once
it is reachable again.

Use "offcache [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		c, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}

		if flags.debug {
			c.Logging.Debug = true
		}

		if flags.quiet {
			c.Logging.Quiet = true
		}

		cfg = c

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "offcache %s (%s)\n", Version, Commit)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", fmt.Sprintf("Config file (default %s)", config.DefaultConfigPath()))
	rootCmd.PersistentFlags().BoolVar(&flags.offline, "offline", false, "Treat the backend as unreachable instead of probing it")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logs")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress logs")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}
