package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

// GetInvalidateCmd returns the command dropping the team's cached pages.
func GetInvalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "invalidate [entity]",
		Short:     "Drop cached list pages of the team, optionally for one entity",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: fleet.Resources,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.redis == nil {
				return errors.New("no cache: redis is not configured or unreachable")
			}
			team, err := a.team()
			if err != nil {
				return err
			}

			resource := ""
			if len(args) == 1 {
				tbl, err := a.stores.Table(args[0])
				if err != nil {
					return err
				}
				resource = tbl.Name()
			}

			if err := a.api.InvalidateScope(cmd.Context(), team, resource); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache cleared for %s\n", describeScope(team, resource))
			return nil
		},
	}

	return cmd
}

func describeScope(team, resource string) string {
	if resource == "" {
		return team
	}
	return team + "/" + resource
}
