package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
)

// maxErrorBody bounds how much of an error response is kept as message.
const maxErrorBody = 512

// Endpoint is a typed list resource. It implements listquery.Fetcher[T] by
// requesting GET {base}/teams/{scope}/{resource} and decoding
//
//	{"data": [...], "total": N}
type Endpoint[T any] struct {
	client   *Client
	resource string
}

// NewEndpoint binds a list resource to a client.
func NewEndpoint[T any](c *Client, resource string) *Endpoint[T] {
	return &Endpoint[T]{client: c, resource: resource}
}

// Resource returns the resource path segment.
func (e *Endpoint[T]) Resource() string {
	return e.resource
}

// Fetch retrieves one page. Non-2xx responses and undecodable bodies are
// returned as errors matching listquery.ErrNetwork.
func (e *Endpoint[T]) Fetch(ctx context.Context, req listquery.Request) (listquery.Page[T], error) {
	var page listquery.Page[T]

	resp, err := e.client.GetList(ctx, e.resource, req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := string(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		class := classifyStatus(resp.StatusCode)
		if class == "" {
			class = ErrorClassServer
		}
		return page, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    msg,
			Endpoint:   e.resource,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return listquery.Page[T]{}, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    "decode list response",
			Endpoint:   e.resource,
			Err:        fmt.Errorf("decode %s: %w", e.resource, err),
		}
	}
	if page.Total < 0 {
		page.Total = 0
	}

	return page, nil
}
