// Package tui provides a Bubble Tea browser for one fleet list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/fleetdash/pkg/fleet"
	"github.com/Sternrassler/fleetdash/pkg/listquery"
)

const (
	// chromeHeight is the number of lines around the table.
	chromeHeight = 6
	minColWidth  = 6
)

// Options configures the browser.
type Options struct {
	Context context.Context
	Table   fleet.Table
	Scope   string
}

// Model is the browser state for Bubble Tea.
type Model struct {
	ctx    context.Context
	list   fleet.Table
	scope  string
	keys   keyMap
	styles Styles

	// UI state
	table     table.Model
	search    textinput.Model
	searching bool
	showHelp  bool
	width     int
	height    int

	// Data state
	snapshot  fleet.Snapshot
	lastErr   error
	statusKey string
	statuses  []string
	statusIdx int
}

// New creates the browser model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	columns := make([]table.Column, 0, len(opts.Table.Columns()))
	for _, title := range opts.Table.Columns() {
		columns = append(columns, table.Column{Title: title, Width: max(len(title), minColWidth)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	si := textinput.New()
	si.Placeholder = "Search..."
	si.CharLimit = 64
	si.Width = 40
	si.Prompt = "/"
	si.Cursor.SetMode(cursor.CursorStatic)

	statusKey, statuses := fleet.StatusFilter(opts.Table.Name())

	m := Model{
		ctx:       ctx,
		list:      opts.Table,
		scope:     opts.Scope,
		keys:      DefaultKeyMap(),
		styles:    DefaultStyles(),
		table:     t,
		search:    si,
		statusKey: statusKey,
		statuses:  statuses,
	}
	m.setSnapshot(opts.Table.Snapshot())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) error {
		return m.list.FetchPage(ctx, m.scope)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.resizeColumns()
		return m, nil

	case snapshotMsg:
		// Always render the latest state; msg only carries the outcome.
		m.setSnapshot(m.list.Snapshot())
		m.lastErr = msg.err
		return m, m.maybeFetchMore()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
	} else if m.lastErr != nil {
		b.WriteString(m.styles.Error.Render("Error: " + m.lastErr.Error()))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.footer()))
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if m.list.Policy().Mode == listquery.AccumulateMode {
			return m, m.fetchMore()
		}
		return m, m.turnPage(1)

	case key.Matches(msg, m.keys.Prev):
		return m, m.turnPage(-1)

	case key.Matches(msg, m.keys.More):
		return m, m.fetchMore()

	case key.Matches(msg, m.keys.Filter):
		return m, m.cycleStatus()

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.snapshot.Filters[fleet.KeySearch])
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(func(ctx context.Context) error {
			return m.list.Refresh(ctx, m.scope)
		})

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, tea.Batch(cmd, m.maybeFetchMore())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleSearchKey processes keyboard input while the search box is open.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.searching = false
		m.search.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		return m, m.applyFilter(fleet.KeySearch, strings.TrimSpace(m.search.Value()))
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// turnPage moves the page-mode window by delta pages.
func (m *Model) turnPage(delta int) tea.Cmd {
	snap := m.snapshot
	if m.list.Policy().Mode != listquery.PageMode || snap.Loading {
		return nil
	}
	if delta > 0 && !snap.HasNextPage() {
		return nil
	}
	if delta < 0 && !snap.HasPrevPage() {
		return nil
	}

	size := snap.Pagination.PageSize
	offset := max(snap.Pagination.Offset+delta*size, 0)
	if err := m.list.SetPagination(offset, size); err != nil {
		m.lastErr = err
		return nil
	}
	m.setSnapshot(m.list.Snapshot())
	m.table.SetCursor(0)

	return m.run(func(ctx context.Context) error {
		return m.list.FetchPage(ctx, m.scope)
	})
}

func (m *Model) fetchMore() tea.Cmd {
	if m.list.Policy().Mode != listquery.AccumulateMode || !m.snapshot.HasMore || m.snapshot.Loading {
		return nil
	}
	return m.run(func(ctx context.Context) error {
		return m.list.FetchMore(ctx, m.scope)
	})
}

// maybeFetchMore loads the next page when the cursor is within the scroll
// threshold of the last row.
func (m *Model) maybeFetchMore() tea.Cmd {
	// A failed list waits for an explicit retry.
	if len(m.snapshot.Rows) == 0 || m.snapshot.Status != listquery.StatusLoaded {
		return nil
	}
	remaining := len(m.snapshot.Rows) - 1 - m.table.Cursor()
	if !m.list.Policy().ShouldFetchMore(remaining, m.snapshot.HasMore, m.snapshot.Loading) {
		return nil
	}
	return m.run(func(ctx context.Context) error {
		_, err := m.list.MaybeFetchMore(ctx, m.scope, remaining)
		return err
	})
}

// cycleStatus advances the status filter and reloads.
func (m *Model) cycleStatus() tea.Cmd {
	if m.statusKey == "" || len(m.statuses) == 0 {
		return nil
	}
	m.statusIdx = (m.statusIdx + 1) % len(m.statuses)
	return m.applyFilter(m.statusKey, m.statuses[m.statusIdx])
}

func (m *Model) applyFilter(key, value string) tea.Cmd {
	if err := m.list.SetFilter(key, value); err != nil {
		m.lastErr = err
		return nil
	}
	m.setSnapshot(m.list.Snapshot())
	m.table.SetCursor(0)

	return m.run(func(ctx context.Context) error {
		return m.list.FetchPage(ctx, m.scope)
	})
}

func (m *Model) setSnapshot(snap fleet.Snapshot) {
	m.snapshot = snap
	rows := make([]table.Row, len(snap.Rows))
	for i, r := range snap.Rows {
		rows[i] = table.Row(r)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) resizeColumns() {
	cols := m.table.Columns()
	if len(cols) == 0 || m.width == 0 {
		return
	}
	w := max((m.width-2*len(cols))/len(cols), minColWidth)
	for i := range cols {
		cols[i].Width = w
	}
	m.table.SetColumns(cols)
}

// Messages

type snapshotMsg struct {
	err error
}

// Commands

// run executes op off the UI goroutine and reports back with a snapshotMsg.
func (m Model) run(op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return snapshotMsg{err: op(ctx)}
	}
}

// Rendering

func (m Model) renderHeader() string {
	snap := m.snapshot
	title := m.styles.Title.Render(fmt.Sprintf("fleetdash · %s · %s", m.list.Name(), m.scope))

	var progress string
	switch m.list.Policy().Mode {
	case listquery.AccumulateMode:
		progress = fmt.Sprintf("%d of %d loaded", len(snap.Rows), snap.TotalCount)
	default:
		pages := 1
		if size := snap.Pagination.PageSize; size > 0 && snap.TotalCount > 0 {
			pages = (snap.TotalCount + size - 1) / size
		}
		page := 1
		if snap.Pagination.PageSize > 0 {
			page = snap.Pagination.Offset/snap.Pagination.PageSize + 1
		}
		progress = fmt.Sprintf("page %d/%d · %d total", page, pages, snap.TotalCount)
	}

	status := snap.Status.String()
	style := m.styles.Status
	if snap.Status == listquery.StatusError {
		style = m.styles.Error
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", style.Render(status), "  ", m.styles.Muted.Render(progress))
}

func (m Model) renderFilters() string {
	if len(m.snapshot.Filters) == 0 {
		return m.styles.Muted.Render("no filters")
	}
	parts := make([]string, 0, len(m.snapshot.Filters))
	for _, k := range []string{m.statusKey, fleet.KeySearch} {
		if v, ok := m.snapshot.Filters[k]; ok && k != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	for k, v := range m.snapshot.Filters {
		if k != m.statusKey && k != fleet.KeySearch {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return m.styles.Muted.Render("filters: " + strings.Join(parts, " "))
}

func (m Model) footer() string {
	if m.list.Policy().Mode == listquery.AccumulateMode {
		return "j/k move · m more · f status · / search · r refresh · ? help · q quit"
	}
	return "j/k move · n/p page · f status · / search · r refresh · ? help · q quit"
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.helpBindings() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("%s  %s\n", m.styles.Key.Render(fmt.Sprintf("%-8s", h.Key)), h.Desc))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Press any key to close"))
	return m.styles.Overlay.Render(b.String())
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(contextOrBackground(opts.Context)))
	_, err := p.Run()
	return err
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
