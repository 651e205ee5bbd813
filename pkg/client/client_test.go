package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/fleetdash/internal/testutil"
	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "fleetdash-test/1.0 (ops@example.com)"

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig(baseURL, testUserAgent)
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	for _, fn := range mutate {
		fn(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: DefaultConfig("https://api.example.com/v1", testUserAgent)},
		{name: "missing base url", cfg: DefaultConfig("", testUserAgent), wantErr: true},
		{name: "bad scheme", cfg: DefaultConfig("ftp://api.example.com", testUserAgent), wantErr: true},
		{name: "missing user agent", cfg: DefaultConfig("https://api.example.com", ""), wantErr: true},
		{name: "negative retries", cfg: Config{BaseURL: "https://api.example.com", UserAgent: testUserAgent, MaxRetries: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Nil(t, c.GetCache(), "no cache without redis")
			require.Equal(t, defaultTimeout, c.httpClient.Timeout)
		})
	}
}

func TestClient_ListURL(t *testing.T) {
	c := newTestClient(t, "https://api.example.com/v1/")

	got := c.ListURL("trips", listquery.Request{
		Scope:   "team 7",
		Offset:  20,
		Limit:   10,
		Filters: map[string]string{"status": "active", "search": "  "},
	})

	require.Equal(t, "https://api.example.com/v1/teams/team%207/trips?limit=10&offset=20&status=active", got)
}

func TestClient_RequestHeaders(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(testutil.ListPath("team-1", "drivers"), testutil.NewListResponse(`[]`, 0))

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.Token = "secret" })

	resp, err := c.GetList(context.Background(), "drivers", listquery.Request{Scope: "team-1", Limit: 10})
	require.NoError(t, err)
	resp.Body.Close()

	h := mock.LastRequestHeader
	require.Equal(t, testUserAgent, h.Get("User-Agent"))
	require.Equal(t, "Bearer secret", h.Get("Authorization"))
	require.Equal(t, "application/json", h.Get("Accept"))
	require.NotEmpty(t, h.Get("X-Request-ID"))
}

func TestClient_GetList_RequiresScope(t *testing.T) {
	c := newTestClient(t, "https://api.example.com")

	_, err := c.GetList(context.Background(), "drivers", listquery.Request{Limit: 10})
	require.ErrorIs(t, err, listquery.ErrInvalidArgument)
}

func TestClient_ServerErrorRetried(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(testutil.ListPath("team-1", "vehicles"), testutil.NewServerErrorResponse())

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.MaxRetries = 2 })

	_, err := c.GetList(context.Background(), "vehicles", listquery.Request{Scope: "team-1", Limit: 10})
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.ErrorIs(t, err, listquery.ErrNetwork)
	require.Equal(t, 3, mock.GetRequestCount())
}

func TestClient_ClientErrorReturnedAsResponse(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(testutil.ListPath("team-1", "vehicles"), testutil.MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"error": "forbidden"}`,
	})

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.MaxRetries = 3 })

	resp, err := c.GetList(context.Background(), "vehicles", listquery.Request{Scope: "team-1", Limit: 10})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, 1, mock.GetRequestCount(), "4xx must not be retried")
}

func TestClient_NetworkError(t *testing.T) {
	mock := testutil.NewMockAPI()
	url := mock.URL()
	mock.Close()

	c := newTestClient(t, url)

	_, err := c.GetList(context.Background(), "routes", listquery.Request{Scope: "team-1", Limit: 10})
	require.ErrorIs(t, err, listquery.ErrNetwork)
}

func TestClient_Stats(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(testutil.ListPath("team-1", "routes"), testutil.NewListResponse(`[]`, 0))

	c := newTestClient(t, mock.URL())
	for i := 0; i < 3; i++ {
		resp, err := c.GetList(context.Background(), "routes", listquery.Request{Scope: "team-1", Limit: 5})
		require.NoError(t, err)
		resp.Body.Close()
	}

	snap := c.Stats().Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, "routes", snap[0].Resource)
	require.Equal(t, 3, snap[0].Requests)
	require.GreaterOrEqual(t, snap[0].AvgLatencyMs, 0.0)
}

func TestClient_InvalidateScope_NoRedis(t *testing.T) {
	c := newTestClient(t, "https://api.example.com")
	require.NoError(t, c.InvalidateScope(context.Background(), "team-1", ""))
}

// setupTestRedis connects to a local Redis and skips the test when none is
// running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestClient_ConditionalRequestServedFromCache(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetDataset("drivers", testutil.Dataset{Items: []any{
		map[string]any{"id": 1, "name": "Ana"},
		map[string]any{"id": 2, "name": "Ben"},
	}})

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.Redis = redisClient })
	ep := NewEndpoint[testItem](c, "drivers")
	req := listquery.Request{Scope: "team-1", Limit: 10}

	first, err := ep.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, first.Total)
	require.Equal(t, 0, mock.GetConditionalCount())

	second, err := ep.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, mock.GetConditionalCount())

	require.NoError(t, c.InvalidateScope(context.Background(), "team-1", "drivers"))
	_, err = ep.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, mock.GetConditionalCount(), "invalidated page is fetched unconditionally")
}

func TestClient_RateLimitGate(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(testutil.ListPath("team-1", "trips"), testutil.NewRateLimitResponse())

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.Redis = redisClient })

	// First request is answered with 429 and Remaining 0.
	_, err := c.GetList(context.Background(), "trips", listquery.Request{Scope: "team-1", Limit: 10})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorClassRateLimit, apiErr.ErrorClass)

	// Second request is blocked locally.
	_, err = c.GetList(context.Background(), "trips", listquery.Request{Scope: "team-1", Limit: 10})
	require.ErrorIs(t, err, ErrRateLimited)
	require.ErrorIs(t, err, listquery.ErrNetwork)
	require.Equal(t, 1, mock.GetRequestCount())
}
