package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

const (
	FlagStatus = "status"
	FlagSearch = "search"
	FlagFilter = "filter"
)

// addFilterFlags registers the list filter flags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagStatus, "", "(optional) status filter (payment status for invoices)")
	cmd.Flags().String(FlagSearch, "", "(optional) free text search")
	cmd.Flags().StringToString(FlagFilter, nil, "(optional) extra filters, e.g. driverId=d-1,routeId=r-2")
}

// applyFilterFlags sets the filter flags on tbl.
func applyFilterFlags(cmd *cobra.Command, tbl fleet.Table) error {
	status, err := cmd.Flags().GetString(FlagStatus)
	if err != nil {
		return fmt.Errorf("%s flag: %w", FlagStatus, err)
	}
	search, err := cmd.Flags().GetString(FlagSearch)
	if err != nil {
		return fmt.Errorf("%s flag: %w", FlagSearch, err)
	}
	extra, err := cmd.Flags().GetStringToString(FlagFilter)
	if err != nil {
		return fmt.Errorf("%s flag: %w", FlagFilter, err)
	}

	if status != "" {
		key, _ := fleet.StatusFilter(tbl.Name())
		if key == "" {
			return fmt.Errorf("%s has no status filter", tbl.Name())
		}
		if err := tbl.SetFilter(key, status); err != nil {
			return err
		}
	}
	if search != "" {
		if err := tbl.SetFilter(fleet.KeySearch, search); err != nil {
			return err
		}
	}
	for k, v := range extra {
		if err := tbl.SetFilter(k, v); err != nil {
			return err
		}
	}
	return nil
}
