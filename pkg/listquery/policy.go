package listquery

import (
	"fmt"
	"strings"
)

// DefaultScrollThreshold is the number of remaining rows below which an
// observing view should request the next page.
const DefaultScrollThreshold = 5

// Mode selects how successive pages are reconciled.
type Mode int

const (
	// PageMode replaces the visible items with every response.
	PageMode Mode = iota
	// AccumulateMode appends pages after the first (infinite scroll).
	AccumulateMode
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case PageMode:
		return "page"
	case AccumulateMode:
		return "accumulate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "page", "paged":
		return PageMode, nil
	case "accumulate", "infinite", "scroll":
		return AccumulateMode, nil
	default:
		return PageMode, fmt.Errorf("%w: unknown list mode %q", ErrInvalidArgument, s)
	}
}

// Policy encapsulates the append-vs-replace decision and the scroll threshold
// used by infinite-scroll views.
type Policy struct {
	Mode Mode

	// Threshold is the remaining-row distance that triggers FetchMore.
	// Zero means DefaultScrollThreshold.
	Threshold int
}

// PagePolicy returns the discrete pager policy.
func PagePolicy() Policy {
	return Policy{Mode: PageMode}
}

// AccumulatePolicy returns the infinite-scroll policy with the default
// threshold.
func AccumulatePolicy() Policy {
	return Policy{Mode: AccumulateMode, Threshold: DefaultScrollThreshold}
}

// Appends reports whether a response for the given page index is appended to
// the current items instead of replacing them.
func (p Policy) Appends(page int) bool {
	return p.Mode == AccumulateMode && page > 0
}

// HasMore derives the has-more flag.
// Accumulate mode compares the accumulated length with the total; page mode
// reports whether the result set spans more than one page.
func (p Policy) HasMore(itemCount, totalCount, pageSize int) bool {
	if p.Mode == AccumulateMode {
		return itemCount < totalCount
	}
	return totalCount > pageSize
}

// ShouldFetchMore reports whether a view whose scroll container has
// remaining rows left below the viewport should request the next page.
func (p Policy) ShouldFetchMore(remaining int, hasMore, loading bool) bool {
	if p.Mode != AccumulateMode || !hasMore || loading {
		return false
	}
	return remaining < p.threshold()
}

func (p Policy) threshold() int {
	if p.Threshold <= 0 {
		return DefaultScrollThreshold
	}
	return p.Threshold
}
