package pagination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// sliceFetcher serves offsets of a fixed int slice.
type sliceFetcher struct {
	items  []int
	failAt int // offset that fails, -1 for none
	delay  time.Duration

	mu       sync.Mutex
	requests []listquery.Request
	calls    atomic.Int32
}

func newSliceFetcher(n int) *sliceFetcher {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return &sliceFetcher{items: items, failAt: -1}
}

func (f *sliceFetcher) Fetch(ctx context.Context, req listquery.Request) (listquery.Page[int], error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return listquery.Page[int]{}, ctx.Err()
		}
	}
	if req.Offset == f.failAt {
		return listquery.Page[int]{}, listquery.ErrNetwork
	}

	end := min(req.Offset+req.Limit, len(f.items))
	start := min(req.Offset, end)
	return listquery.Page[int]{Data: f.items[start:end], Total: len(f.items)}, nil
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 4, cfg.MaxConcurrency)
	require.Equal(t, 100, cfg.PageSize)
	require.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher[int](newSliceFetcher(0), Config{})
	require.Equal(t, DefaultConfig(), bf.config)
}

func TestFetchAll_SinglePage(t *testing.T) {
	f := newSliceFetcher(7)
	bf := NewBatchFetcher[int](f, Config{PageSize: 10})

	items, err := bf.FetchAll(context.Background(), "team-1", nil)
	require.NoError(t, err)
	require.Len(t, items, 7)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestFetchAll_Empty(t *testing.T) {
	bf := NewBatchFetcher[int](newSliceFetcher(0), Config{PageSize: 10})

	items, err := bf.FetchAll(context.Background(), "team-1", nil)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestFetchAll_MultiPageInOrder(t *testing.T) {
	f := newSliceFetcher(95)
	f.delay = time.Millisecond
	bf := NewBatchFetcher[int](f, Config{PageSize: 10, MaxConcurrency: 3})

	filters := map[string]string{"status": "completed"}
	items, err := bf.FetchAll(context.Background(), "team-1", filters)
	require.NoError(t, err)
	require.Equal(t, f.items, items)
	require.EqualValues(t, 10, f.calls.Load())

	for _, req := range f.requests {
		require.Equal(t, "team-1", req.Scope)
		require.Equal(t, 10, req.Limit)
		require.Equal(t, filters, req.Filters)
	}
}

func TestFetchAll_FirstPageError(t *testing.T) {
	f := newSliceFetcher(30)
	f.failAt = 0
	bf := NewBatchFetcher[int](f, Config{PageSize: 10})

	items, err := bf.FetchAll(context.Background(), "team-1", nil)
	require.ErrorIs(t, err, listquery.ErrNetwork)
	require.Nil(t, items)
}

func TestFetchAll_PartialResults(t *testing.T) {
	f := newSliceFetcher(50)
	f.failAt = 20
	bf := NewBatchFetcher[int](f, Config{PageSize: 10, MaxConcurrency: 1})

	items, err := bf.FetchAll(context.Background(), "team-1", nil)
	require.ErrorIs(t, err, listquery.ErrNetwork)
	require.Equal(t, f.items[:20], items, "contiguous prefix before the failed page")
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	f := newSliceFetcher(100)
	f.delay = 20 * time.Millisecond
	bf := NewBatchFetcher[int](f, Config{PageSize: 10, MaxConcurrency: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	items, err := bf.FetchAll(ctx, "team-1", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Less(t, len(items), 100)
}

func TestAssemble_CapsAtTotal(t *testing.T) {
	pages := map[int][]int{0: {1, 2}, 1: {3, 4}}
	require.Equal(t, []int{1, 2, 3}, assemble(pages, 2, 3))
}
