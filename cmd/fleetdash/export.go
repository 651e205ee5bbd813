package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

const (
	FlagOutput      = "output"
	FlagConcurrency = "concurrency"
)

// GetExportCmd returns the command writing every matching record as JSON
// lines.
func GetExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "export <entity>",
		Short:     "Export every matching record as JSON lines",
		Long:      "Export every matching record as JSON lines. Entities: " + strings.Join(fleet.Resources, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: fleet.Resources,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString(FlagOutput)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagOutput, err)
			}
			concurrency, err := cmd.Flags().GetInt(FlagConcurrency)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagConcurrency, err)
			}
			pageSize, err := cmd.Flags().GetInt(FlagPageSize)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagPageSize, err)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			team, err := a.team()
			if err != nil {
				return err
			}
			tbl, err := a.table(cmd, args[0])
			if err != nil {
				return err
			}

			pc := a.cfg.PaginationConfig()
			if concurrency > 0 {
				pc.MaxConcurrency = concurrency
			}
			if pageSize > 0 {
				pc.PageSize = pageSize
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := tbl.Export(cmd.Context(), team, w, pc)
			a.logStats()
			if err != nil {
				return fmt.Errorf("export %s: wrote %d records: %w", tbl.Name(), n, err)
			}

			a.logger.Info().
				Str("list", tbl.Name()).
				Str("team", team).
				Int("records", n).
				Msg("Export complete")
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().StringP(FlagOutput, "o", "-", "(optional) output file, - for stdout")
	cmd.Flags().Int(FlagConcurrency, 0, "(optional) concurrent page requests, defaults to config")
	cmd.Flags().Int(FlagPageSize, 0, "(optional) records per request, defaults to config")

	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
