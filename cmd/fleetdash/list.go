package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

const (
	FlagPage     = "page"
	FlagPageSize = "page-size"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// GetListCmd returns the command printing one page of an entity list.
func GetListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "list <entity>",
		Short:     "Print one page of an entity list",
		Long:      "Print one page of an entity list. Entities: " + strings.Join(fleet.Resources, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: fleet.Resources,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := cmd.Flags().GetInt(FlagPage)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagPage, err)
			}
			pageSize, err := cmd.Flags().GetInt(FlagPageSize)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagPageSize, err)
			}
			if page < 1 {
				return fmt.Errorf("%s flag: must be >= 1 (got %d)", FlagPage, page)
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

			current := tbl.Snapshot().Pagination.PageSize
			if pageSize <= 0 {
				pageSize = current
			}
			// A new page size resets the window, so it is applied first.
			if pageSize != current {
				if err := tbl.SetPagination(0, pageSize); err != nil {
					return err
				}
			}
			if err := tbl.SetPagination((page-1)*pageSize, pageSize); err != nil {
				return err
			}
			if err := tbl.FetchPage(cmd.Context(), team); err != nil {
				return err
			}
			a.logStats()

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tbl.Columns(), tbl.Snapshot()))
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().Int(FlagPage, 1, "(optional) 1-based page number")
	cmd.Flags().Int(FlagPageSize, 0, "(optional) page size, defaults to the entity's configured size")

	return cmd
}

// renderTable formats a snapshot as a bordered table with a summary line.
func renderTable(columns []string, snap fleet.Snapshot) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		Rows(snap.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	p := snap.Pagination
	page, pages := 1, 1
	if p.PageSize > 0 {
		page = p.Offset/p.PageSize + 1
		if snap.TotalCount > 0 {
			pages = (snap.TotalCount + p.PageSize - 1) / p.PageSize
		}
	}

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d records, page %d/%d", len(snap.Rows), snap.TotalCount, page, pages)
	if len(snap.Filters) > 0 {
		b.WriteString(", filters:")
		for _, k := range sortedKeys(snap.Filters) {
			fmt.Fprintf(&b, " %s=%s", k, snap.Filters[k])
		}
	}
	return b.String()
}
