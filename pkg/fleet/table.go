package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/Sternrassler/fleetdash/pkg/pagination"
)

// Rower is an entity that renders as one table row.
type Rower interface {
	Row() []string
}

// Settable is a filter that can be changed one key at a time.
type Settable[F any] interface {
	listquery.Filter
	With(key, value string) (F, error)
}

// Snapshot is a controller view rendered to strings.
type Snapshot struct {
	Rows       [][]string
	TotalCount int
	Filters    map[string]string
	Pagination listquery.Pagination
	Loading    bool
	HasMore    bool
	Status     listquery.Status
	Err        error
	Epoch      uint64
}

// HasNextPage reports whether a later page exists in page mode.
func (s Snapshot) HasNextPage() bool {
	return s.Pagination.Offset+s.Pagination.PageSize < s.TotalCount
}

// HasPrevPage reports whether an earlier page exists in page mode.
func (s Snapshot) HasPrevPage() bool {
	return s.Pagination.Offset > 0
}

// Table is the entity-agnostic face of one list controller, used by the
// CLI and the terminal browser.
type Table interface {
	Name() string
	Columns() []string
	Policy() listquery.Policy
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (unsubscribe func())

	SetFilter(key, value string) error
	SetPagination(offset, pageSize int) error
	Reset()

	FetchPage(ctx context.Context, scope string) error
	FetchMore(ctx context.Context, scope string) error
	MaybeFetchMore(ctx context.Context, scope string, remaining int) (bool, error)
	Refresh(ctx context.Context, scope string) error

	// Export fetches every record matching the current filters and writes
	// them as JSON lines. It does not touch the controller state.
	Export(ctx context.Context, scope string, w io.Writer, cfg pagination.Config) (int, error)
}

type table[T Rower, F Settable[F]] struct {
	*listquery.Controller[T, F]
	fetcher listquery.Fetcher[T]
	columns []string
}

func newTable[T Rower, F Settable[F]](ctrl *listquery.Controller[T, F], fetcher listquery.Fetcher[T], columns []string) *table[T, F] {
	return &table[T, F]{Controller: ctrl, fetcher: fetcher, columns: columns}
}

func (t *table[T, F]) Columns() []string {
	return t.columns
}

func (t *table[T, F]) Snapshot() Snapshot {
	return render(t.View())
}

func (t *table[T, F]) Subscribe(fn func(Snapshot)) func() {
	return t.Controller.Subscribe(func(v listquery.View[T, F]) {
		fn(render(v))
	})
}

func (t *table[T, F]) SetFilter(key, value string) error {
	next, err := t.View().Filters.With(key, value)
	if err != nil {
		return err
	}
	t.SetFilters(next)
	return nil
}

func (t *table[T, F]) Export(ctx context.Context, scope string, w io.Writer, cfg pagination.Config) (int, error) {
	if scope == "" {
		return 0, fmt.Errorf("%w: scope is required", listquery.ErrInvalidArgument)
	}

	bf := pagination.NewBatchFetcher(t.fetcher, cfg)
	items, fetchErr := bf.FetchAll(ctx, scope, t.View().Filters.Values())

	enc := json.NewEncoder(w)
	for n, item := range items {
		if err := enc.Encode(item); err != nil {
			return n, fmt.Errorf("encode %s: %w", t.Name(), err)
		}
	}
	if fetchErr != nil {
		return len(items), fmt.Errorf("export %s: %w", t.Name(), fetchErr)
	}
	return len(items), nil
}

func render[T Rower, F listquery.Filter](v listquery.View[T, F]) Snapshot {
	rows := make([][]string, len(v.Items))
	for i, item := range v.Items {
		rows[i] = item.Row()
	}
	return Snapshot{
		Rows:       rows,
		TotalCount: v.TotalCount,
		Filters:    v.Filters.Values(),
		Pagination: v.Pagination,
		Loading:    v.Loading,
		HasMore:    v.HasMore,
		Status:     v.Status,
		Err:        v.Err,
		Epoch:      v.Epoch,
	}
}
