package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/internal/tui"
	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

// GetBrowseCmd returns the command opening the interactive list browser.
func GetBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "browse <entity>",
		Short:     "Browse an entity list interactively",
		Long:      "Browse an entity list interactively. Entities: " + strings.Join(fleet.Resources, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: fleet.Resources,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The browser owns the terminal, so logs go to a file or nowhere.
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logOut, closeLog, err := openLogFile(cfg.Log.File)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(cmd, cfg, logOut)
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

			if err := tui.Run(tui.Options{
				Context: cmd.Context(),
				Table:   tbl,
				Scope:   team,
			}); err != nil {
				return fmt.Errorf("browser: %w", err)
			}
			a.logStats()
			return nil
		},
	}

	addFilterFlags(cmd)

	return cmd
}
