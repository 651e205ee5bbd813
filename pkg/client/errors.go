package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport and timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the local rate limit gate blocks a request.
	ErrRateLimited = errors.New("request blocked: rate limit critical")
)

// APIError is a non-success response from the dashboard API.
//
// Every APIError matches listquery.ErrNetwork, so list controllers treat it
// like any other fetch failure.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("API %s error (status %d) %s: %s: %v",
			e.ErrorClass, e.StatusCode, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("API %s error (status %d) %s: %s",
		e.ErrorClass, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is listquery.ErrNetwork.
func (e *APIError) Is(target error) bool {
	return target == listquery.ErrNetwork
}

// networkError marks a transport failure as a list fetch failure.
func networkError(err error) error {
	if err == nil || errors.Is(err, listquery.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", listquery.ErrNetwork, err)
}

// classifyStatus maps an HTTP status code to an ErrorClass.
// Returns "" for non-error statuses.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will not succeed on retry
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
