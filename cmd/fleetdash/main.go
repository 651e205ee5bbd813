// Command fleetdash browses and exports the trucking dashboard's entity
// lists from the terminal.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/internal/config"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
	FlagPretty   = "pretty"
	FlagTeam     = "team"
)

// newRootCmd returns the base command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetdash",
		Short:         "Trucking dashboard lists from the terminal",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().String(FlagConfig, os.Getenv(config.EnvConfigPath), "(optional) path to YAML config file")
	cmd.PersistentFlags().String(FlagLogLevel, "", "(optional) log level: debug, info, warn, error, disabled")
	cmd.PersistentFlags().Bool(FlagPretty, false, "(optional) human-readable log output")
	cmd.PersistentFlags().String(FlagTeam, "", "(optional) team scope, overrides config and FLEETDASH_TEAM")

	cmd.AddCommand(
		GetListCmd(),
		GetExportCmd(),
		GetBrowseCmd(),
		GetServeMetricsCmd(),
		GetInvalidateCmd(),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
