package listquery

import (
	"context"
	"fmt"
)

// Filter is the constraint on a controller's filter object. Values returns the
// wire representation; empty values are dropped before a request is built.
type Filter interface {
	Values() map[string]string
}

// Request is what the controller hands to a Fetcher.
type Request struct {
	// Scope is the tenant/team identifier. Never empty.
	Scope string

	Offset int
	Limit  int

	// Filters only contains non-empty keys.
	Filters map[string]string
}

// Page is one page of records plus the total number of matching records as
// reported by the server.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Fetcher is the list endpoint capability consumed by the controller.
// Implementations report every failure as an error; the controller does not
// interpret status codes.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, req Request) (Page[T], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

// Fetch implements Fetcher.
func (f FetcherFunc[T]) Fetch(ctx context.Context, req Request) (Page[T], error) {
	return f(ctx, req)
}

// Status is the controller state machine position.
type Status int

const (
	// StatusIdle is the initial state and the state after a filter reset.
	StatusIdle Status = iota
	// StatusLoading means a request is in flight.
	StatusLoading
	// StatusLoaded means the latest request succeeded.
	StatusLoaded
	// StatusError means the latest request failed. Items are retained.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Pagination is the request window. Page mode uses Offset; accumulate mode
// uses Page and keeps Offset at Page*PageSize.
type Pagination struct {
	Offset   int `json:"offset"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// View is a read-only snapshot of a controller's state. Items is a copy and
// may be retained by the caller.
type View[T any, F Filter] struct {
	Items      []T
	TotalCount int
	Filters    F
	Pagination Pagination
	Loading    bool
	HasMore    bool

	Status Status
	// Err is the last failure surfaced by a current-epoch request. It is
	// cleared by the next successful reconciliation.
	Err error
	// Epoch identifies the most recently issued request.
	Epoch uint64
}

// HasNextPage reports whether a discrete pager can advance past the current
// window.
func (v View[T, F]) HasNextPage() bool {
	return v.Pagination.Offset+v.Pagination.PageSize < v.TotalCount
}

// HasPrevPage reports whether a discrete pager can go back.
func (v View[T, F]) HasPrevPage() bool {
	return v.Pagination.Offset > 0
}
