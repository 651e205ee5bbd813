package listquery

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures a Controller.
type Options struct {
	// Name identifies the list in logs and metrics (e.g. "drivers").
	Name string

	// PageSize is the initial page size. Must be > 0.
	PageSize int

	Policy Policy

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// Controller mediates between UI intent (filters, page requests) and a
// Fetcher, producing a consistent list state.
//
// All methods are safe for concurrent use. State mutations are atomic; the
// lock is released while a fetch is in flight, and overlapping fetches are
// resolved by epoch.
type Controller[T any, F Filter] struct {
	name    string
	fetcher Fetcher[T]
	policy  Policy
	logger  zerolog.Logger

	mu    sync.Mutex
	state View[T, F]
	// settled is the last non-loading status, restored when a setter
	// supersedes a request in flight.
	settled Status

	// seq numbers published snapshots under mu; notification drops any
	// snapshot older than the last one delivered.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64

	subMu  sync.Mutex
	subs   map[int]func(View[T, F])
	nextID int
}

// update is a snapshot tagged with its publication order.
type update[T any, F Filter] struct {
	view View[T, F]
	seq  uint64
}

// inflight describes one issued request.
type inflight struct {
	req   Request
	epoch uint64
	page  int
	// more marks a FetchMore request; its page advance is rolled back on
	// failure.
	more bool
}

// New creates a controller in the Idle state with empty items, zero total and
// an optimistic has-more flag.
func New[T any, F Filter](fetcher Fetcher[T], filters F, opts Options) (*Controller[T, F], error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", ErrInvalidArgument)
	}
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be > 0 (got %d)", ErrInvalidArgument, opts.PageSize)
	}
	if opts.Name == "" {
		opts.Name = "list"
	}

	logger := log.With().
		Str("component", "listquery").
		Str("list", opts.Name).
		Logger()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("list", opts.Name).Logger()
	}

	return &Controller[T, F]{
		name:    opts.Name,
		fetcher: fetcher,
		policy:  opts.Policy,
		logger:  logger,
		state: View[T, F]{
			Filters:    filters,
			Pagination: Pagination{PageSize: opts.PageSize},
			HasMore:    true,
			Status:     StatusIdle,
		},
		settled: StatusIdle,
		subs:    make(map[int]func(View[T, F])),
	}, nil
}

// Name returns the list name.
func (c *Controller[T, F]) Name() string {
	return c.name
}

// Policy returns the reconciliation policy.
func (c *Controller[T, F]) Policy() Policy {
	return c.policy
}

// View returns a snapshot of the current state.
func (c *Controller[T, F]) View() View[T, F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called with a snapshot after every state
// transition. The returned function removes the subscription. Deliveries are
// serialized and in order: a snapshot published before one already delivered
// is dropped. fn runs on the goroutine that caused the transition, must not
// block, and must not call methods that change the controller's state.
func (c *Controller[T, F]) Subscribe(fn func(View[T, F])) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// SetFilters replaces the filter set. A value that differs from the current
// one resets pagination to page 0, clears items and returns to Idle; a
// deep-equal value is a no-op. SetFilters never fetches.
func (c *Controller[T, F]) SetFilters(filters F) {
	c.mu.Lock()
	if filtersEqual(c.state.Filters, filters) {
		c.mu.Unlock()
		c.logger.Debug().Msg("Filters unchanged - no reset")
		return
	}

	c.state.Filters = filters
	c.resetLocked()
	u := c.publishLocked()
	c.mu.Unlock()

	listResetsTotal.WithLabelValues(c.name).Inc()
	c.logger.Debug().
		Interface("filters", filters.Values()).
		Uint64("epoch", u.view.Epoch).
		Msg("Filters changed - list reset")
	c.notify(u)
}

// SetPagination replaces the request window. A negative offset is clamped to
// 0; pageSize <= 0 fails with ErrInvalidArgument. A changed page size resets
// the window to page 0 and clears items. In accumulate mode the offset is
// rounded down to a page boundary. SetPagination never fetches.
func (c *Controller[T, F]) SetPagination(offset, pageSize int) error {
	if pageSize <= 0 {
		return fmt.Errorf("%w: page size must be > 0 (got %d)", ErrInvalidArgument, pageSize)
	}
	if offset < 0 {
		offset = 0
	}

	c.mu.Lock()
	p := c.state.Pagination

	if pageSize != p.PageSize {
		c.state.Pagination.PageSize = pageSize
		c.resetLocked()
		u := c.publishLocked()
		c.mu.Unlock()

		listResetsTotal.WithLabelValues(c.name).Inc()
		c.logger.Debug().
			Int("page_size", pageSize).
			Msg("Page size changed - list reset")
		c.notify(u)
		return nil
	}

	next := p
	if c.policy.Mode == AccumulateMode {
		next.Page = offset / pageSize
		next.Offset = next.Page * pageSize
	} else {
		next.Offset = offset
	}
	if next == p {
		c.mu.Unlock()
		return nil
	}

	c.state.Pagination = next
	c.supersedeLocked()
	u := c.publishLocked()
	c.mu.Unlock()

	c.notify(u)
	return nil
}

// Reset returns the controller to its initial Idle state, keeping filters and
// page size. Any request in flight is superseded.
func (c *Controller[T, F]) Reset() {
	c.mu.Lock()
	c.resetLocked()
	u := c.publishLocked()
	c.mu.Unlock()

	c.notify(u)
}

// FetchPage requests the current window for scope and reconciles the
// response. An empty scope is a no-op.
//
// A response superseded by a newer request is discarded and FetchPage
// returns nil. A failure of the current request sets the Error state, keeps
// items and total, and returns an error wrapping ErrNetwork.
func (c *Controller[T, F]) FetchPage(ctx context.Context, scope string) error {
	if scope == "" {
		c.logger.Debug().Msg("No scope - fetch skipped")
		return nil
	}

	c.mu.Lock()
	in := c.beginLocked(scope, false)
	u := c.publishLocked()
	c.mu.Unlock()

	c.notify(u)
	return c.await(ctx, in)
}

// FetchMore advances one page and fetches it (accumulate mode only). While
// nothing has been loaded it fetches page 0 instead. It is a no-op when there
// is nothing more to load, a request is in flight, the scope is empty or the
// controller is in page mode.
func (c *Controller[T, F]) FetchMore(ctx context.Context, scope string) error {
	if scope == "" || c.policy.Mode != AccumulateMode {
		return nil
	}

	c.mu.Lock()
	if !c.state.HasMore || c.state.Loading {
		c.mu.Unlock()
		return nil
	}
	more := true
	if len(c.state.Items) == 0 && c.state.TotalCount == 0 {
		// Nothing loaded yet, e.g. the first page failed: load page 0.
		c.setPageLocked(0)
		more = false
	} else {
		c.setPageLocked(c.state.Pagination.Page + 1)
	}
	in := c.beginLocked(scope, more)
	u := c.publishLocked()
	c.mu.Unlock()

	c.notify(u)
	return c.await(ctx, in)
}

// MaybeFetchMore applies the scroll-threshold policy: it calls FetchMore when
// fewer than the policy threshold rows remain below the viewport. It reports
// whether a fetch was issued.
func (c *Controller[T, F]) MaybeFetchMore(ctx context.Context, scope string, remaining int) (bool, error) {
	v := c.View()
	if scope == "" || !c.policy.ShouldFetchMore(remaining, v.HasMore, v.Loading) {
		return false, nil
	}
	return true, c.FetchMore(ctx, scope)
}

// Refresh resets the window to page 0, keeping filters and items until the
// response arrives, and fetches it.
func (c *Controller[T, F]) Refresh(ctx context.Context, scope string) error {
	if scope == "" {
		return nil
	}

	c.mu.Lock()
	c.setPageLocked(0)
	if c.policy.Mode == PageMode {
		c.state.Pagination.Offset = 0
	}
	in := c.beginLocked(scope, false)
	u := c.publishLocked()
	c.mu.Unlock()

	c.notify(u)
	return c.await(ctx, in)
}

// FetchPageAsync runs FetchPage on a new goroutine. The returned channel
// receives the outcome and is then closed.
func (c *Controller[T, F]) FetchPageAsync(ctx context.Context, scope string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.FetchPage(ctx, scope)
	}()
	return done
}

// FetchMoreAsync runs FetchMore on a new goroutine. The returned channel
// receives the outcome and is then closed.
func (c *Controller[T, F]) FetchMoreAsync(ctx context.Context, scope string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.FetchMore(ctx, scope)
	}()
	return done
}

// await performs the fetch outside the lock and reconciles the outcome.
func (c *Controller[T, F]) await(ctx context.Context, in inflight) error {
	start := time.Now()
	page, fetchErr := c.fetcher.Fetch(ctx, in.req)
	duration := time.Since(start)
	listFetchDuration.WithLabelValues(c.name).Observe(duration.Seconds())

	c.mu.Lock()
	err := c.reconcileLocked(in, page, fetchErr)
	u := c.publishLocked()
	c.mu.Unlock()
	snap := u.view

	switch {
	case errors.Is(err, ErrStaleResponse):
		listFetchesTotal.WithLabelValues(c.name, outcomeStale).Inc()
		c.logger.Debug().
			Uint64("epoch", in.epoch).
			Uint64("current_epoch", snap.Epoch).
			Dur("duration", duration).
			Msg("Stale response discarded")
		return nil

	case err != nil:
		listFetchesTotal.WithLabelValues(c.name, outcomeError).Inc()
		c.logger.Warn().
			Err(fetchErr).
			Str("scope", in.req.Scope).
			Int("offset", in.req.Offset).
			Uint64("epoch", in.epoch).
			Msg("List fetch failed - keeping last items")
		c.notify(u)
		return err
	}

	listFetchesTotal.WithLabelValues(c.name, outcomeSuccess).Inc()
	listItems.WithLabelValues(c.name).Set(float64(len(snap.Items)))
	c.logger.Debug().
		Str("scope", in.req.Scope).
		Int("offset", in.req.Offset).
		Int("items", len(snap.Items)).
		Int("total", snap.TotalCount).
		Bool("has_more", snap.HasMore).
		Dur("duration", duration).
		Msg("List page loaded")
	c.notify(u)
	return nil
}

// reconcileLocked applies a fetch outcome to state if its epoch is current.
func (c *Controller[T, F]) reconcileLocked(in inflight, page Page[T], fetchErr error) error {
	if in.epoch != c.state.Epoch {
		return ErrStaleResponse
	}

	c.state.Loading = false

	if fetchErr != nil {
		if in.more {
			c.setPageLocked(in.page - 1)
		}
		c.state.Status = StatusError
		c.settled = StatusError
		if errors.Is(fetchErr, ErrNetwork) {
			c.state.Err = fmt.Errorf("fetch %s: %w", c.name, fetchErr)
		} else {
			c.state.Err = fmt.Errorf("fetch %s: %w: %w", c.name, ErrNetwork, fetchErr)
		}
		return c.state.Err
	}

	total := max(page.Total, 0)
	if c.policy.Appends(in.page) {
		c.state.Items = append(c.state.Items, page.Data...)
	} else {
		c.state.Items = slices.Clone(page.Data)
	}
	if len(c.state.Items) > total {
		c.logger.Warn().
			Int("items", len(c.state.Items)).
			Int("total", total).
			Msg("Server returned more items than its total - truncating")
		c.state.Items = c.state.Items[:total]
	}

	c.state.TotalCount = total
	c.state.HasMore = c.policy.HasMore(len(c.state.Items), total, c.state.Pagination.PageSize)
	c.state.Status = StatusLoaded
	c.settled = StatusLoaded
	c.state.Err = nil
	return nil
}

// beginLocked starts a new epoch and builds the request from current state.
func (c *Controller[T, F]) beginLocked(scope string, more bool) inflight {
	c.state.Epoch++
	c.state.Loading = true
	c.state.Status = StatusLoading

	p := c.state.Pagination
	return inflight{
		req: Request{
			Scope:   scope,
			Offset:  p.Offset,
			Limit:   p.PageSize,
			Filters: cleanFilters(c.state.Filters.Values()),
		},
		epoch: c.state.Epoch,
		page:  p.Page,
		more:  more,
	}
}

// resetLocked clears items and rewinds to page 0, keeping filters and page
// size. Requests in flight are superseded.
func (c *Controller[T, F]) resetLocked() {
	c.state.Items = nil
	c.state.TotalCount = 0
	c.state.HasMore = true
	c.state.Pagination.Offset = 0
	c.state.Pagination.Page = 0
	c.state.Err = nil
	c.settled = StatusIdle
	c.supersedeLocked()
	listItems.WithLabelValues(c.name).Set(0)
}

// supersedeLocked invalidates any request in flight.
func (c *Controller[T, F]) supersedeLocked() {
	if !c.state.Loading {
		c.state.Status = c.settled
		return
	}
	c.state.Epoch++
	c.state.Loading = false
	c.state.Status = c.settled
}

func (c *Controller[T, F]) setPageLocked(page int) {
	if c.policy.Mode != AccumulateMode {
		return
	}
	page = max(page, 0)
	c.state.Pagination.Page = page
	c.state.Pagination.Offset = page * c.state.Pagination.PageSize
}

func (c *Controller[T, F]) snapshotLocked() View[T, F] {
	v := c.state
	v.Items = slices.Clone(c.state.Items)
	return v
}

// publishLocked snapshots the state for subscribers and stamps it with the
// next sequence number.
func (c *Controller[T, F]) publishLocked() update[T, F] {
	c.seq++
	return update[T, F]{view: c.snapshotLocked(), seq: c.seq}
}

func (c *Controller[T, F]) notify(u update[T, F]) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if u.seq <= c.delivered {
		c.logger.Debug().
			Uint64("seq", u.seq).
			Uint64("delivered", c.delivered).
			Msg("Outdated snapshot not delivered")
		return
	}
	c.delivered = u.seq

	c.subMu.Lock()
	fns := make([]func(View[T, F]), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(u.view)
	}
}

// filtersEqual compares filters structurally, unexported fields included.
func filtersEqual[F Filter](a, b F) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty(), cmp.Exporter(func(reflect.Type) bool { return true }))
}

func cleanFilters(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
