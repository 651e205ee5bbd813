package listquery

import "errors"

// Errors returned by the controller.
var (
	// ErrInvalidArgument is returned synchronously for malformed pagination
	// parameters. No request is issued.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNetwork wraps every failure of the fetch capability (transport
	// errors and non-success responses alike).
	ErrNetwork = errors.New("network error")

	// ErrStaleResponse marks a response whose epoch was superseded. It never
	// reaches callers of FetchPage/FetchMore; it is counted and dropped.
	ErrStaleResponse = errors.New("stale response discarded")
)
