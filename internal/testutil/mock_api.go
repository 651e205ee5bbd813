// Package testutil provides testing utilities for the fleetdash API client.
package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Dataset is the full, unpaginated item list of one resource.
// Match reports whether an item passes the request's query filters; a nil
// Match accepts everything.
type Dataset struct {
	Items []any
	Match func(item any, query map[string]string) bool
}

// MockAPI is a configurable mock of the dashboard REST API. Resources
// registered with SetDataset are served as paginated lists under
// /teams/{team}/{resource}.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	datasets map[string]Dataset

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastQuery         map[string]string
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		datasets: make(map[string]Dataset),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = flatten(r)

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.listHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDataset registers the items served for a resource of every team.
func (m *MockAPI) SetDataset(resource string, ds Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[resource] = ds
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetLastQuery returns the query parameters of the last request.
func (m *MockAPI) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// listHandler serves {"data": [...], "total": N} for registered datasets.
func (m *MockAPI) listHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-RateLimit-Remaining", "100")
	w.Header().Set("X-RateLimit-Reset", "60")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[len(parts)-3] != "teams" {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	resource := parts[len(parts)-1]

	m.mu.RLock()
	ds, ok := m.datasets[resource]
	m.mu.RUnlock()
	if !ok {
		http.Error(w, `{"error": "unknown resource"}`, http.StatusNotFound)
		return
	}

	query := flatten(r)
	offset, err := strconv.Atoi(query["offset"])
	if err != nil || offset < 0 {
		http.Error(w, `{"error": "invalid offset"}`, http.StatusBadRequest)
		return
	}
	limit, err := strconv.Atoi(query["limit"])
	if err != nil || limit <= 0 {
		http.Error(w, `{"error": "invalid limit"}`, http.StatusBadRequest)
		return
	}

	matched := make([]any, 0, len(ds.Items))
	for _, item := range ds.Items {
		if ds.Match == nil || ds.Match(item, query) {
			matched = append(matched, item)
		}
	}

	start := min(offset, len(matched))
	end := min(offset+limit, len(matched))
	body, err := json.Marshal(map[string]any{
		"data":  matched[start:end],
		"total": len(matched),
	})
	if err != nil {
		http.Error(w, `{"error": "encode"}`, http.StatusInternalServerError)
		return
	}

	sum := sha1.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ListPath returns the request path of a team list resource.
func ListPath(team, resource string) string {
	return fmt.Sprintf("/teams/%s/%s", team, resource)
}

// NewListResponse creates a 200 OK list response with rate limit headers.
func NewListResponse(data string, total int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"data": %s, "total": %d}`, data, total),
		Headers: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
			"ETag":                  `"test-etag-123"`,
			"Expires":               time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

func flatten(r *http.Request) map[string]string {
	out := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
