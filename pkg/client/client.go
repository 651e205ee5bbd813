// Package client provides the dashboard API HTTP client with rate limiting,
// page caching and error classification, plus typed list endpoints that
// satisfy listquery.Fetcher.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/fleetdash/pkg/cache"
	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/Sternrassler/fleetdash/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_api_requests_total",
		Help: "Total API requests by resource and status",
	}, []string{"resource", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetdash_api_request_duration_seconds",
		Help:    "API request duration in seconds by resource",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"resource"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

const (
	defaultTimeout = 15 * time.Second

	// rawResource labels requests issued through Do without a list resource.
	rawResource = "raw"
)

// Client is the dashboard API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	stats       *Stats
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the REST API, e.g. "https://api.example.com/v1".
	BaseURL string

	// User-Agent header (REQUIRED)
	UserAgent string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Redis enables the page cache and the shared rate limit gate.
	// Optional.
	Redis *redis.Client

	// Timeout per HTTP attempt.
	Timeout time.Duration

	// Retry. MaxRetries 0 means a single attempt.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns a safe default configuration without Redis.
func DefaultConfig(baseURL, userAgent string) Config {
	retry := DefaultRetryConfig()
	return Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		Timeout:        defaultTimeout,
		MaxRetries:     0,
		InitialBackoff: retry.InitialBackoff,
		MaxBackoff:     retry.MaxBackoff,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	logger := log.With().Str("component", "api-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		stats:   NewStats(),
		config:  cfg,
		logger:  logger,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, logger)
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Do performs an HTTP request with rate limiting, retries and error
// classification. Client errors (4xx) are returned as responses for the
// caller to interpret; every returned error matches listquery.ErrNetwork.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, rawResource, nil)
}

// do is Do with an optional cache key for list pages.
func (c *Client) do(req *http.Request, resource string, cacheKey *cache.CacheKey) (*http.Response, error) {
	ctx := req.Context()

	startTime := time.Now()
	defer func() {
		elapsed := time.Since(startTime)
		apiRequestDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
		c.stats.Observe(resource, elapsed)
	}()

	// Step 1: Check Rate Limit
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Rate limit check failed")
			return nil, networkError(fmt.Errorf("rate limit check: %w", err))
		}
		if !allowed {
			c.logger.Warn().
				Str("resource", resource).
				Msg("Request blocked by rate limiter")
			apiRequestsTotal.WithLabelValues(resource, "rate_limited").Inc()
			return nil, networkError(ErrRateLimited)
		}
	}

	// Step 2: Check Cache
	var cachedEntry *cache.CacheEntry
	if c.cache != nil && cacheKey != nil {
		entry, err := c.cache.Get(ctx, *cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("resource", resource).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	// Step 3: Conditional request on cache hit
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("resource", resource).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	c.logger.Debug().
		Str("resource", resource).
		Str("method", req.Method).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("Executing API request")

	// Step 5: Execute with retry
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.retryConfig(), c.logger, func() (ErrorClass, error) {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Warn().Err(reqErr).Str("resource", resource).Msg("HTTP request failed")
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(resource, "network_error").Inc()
			return ErrorClassNetwork, networkError(reqErr)
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		if resp.StatusCode == http.StatusNotModified {
			return "", nil
		}

		errClass := classifyStatus(resp.StatusCode)
		apiRequestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()
		if errClass == "" {
			return "", nil
		}

		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("resource", resource).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		if !shouldRetry(errClass) {
			// Let the caller interpret client errors
			return "", nil
		}

		resp.Body.Close()
		return errClass, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Endpoint:   req.URL.Path,
		}
	})
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 6: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		if cachedEntry == nil {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassServer,
				Message:    "304 without cached entry",
				Endpoint:   req.URL.Path,
			}
		}

		c.logger.Debug().Str("resource", resource).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, *cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 7: Update cache on success
	if c.cache != nil && cacheKey != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, *cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("key", cacheKey.String()).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// GetList requests one page of a team-scoped list resource:
//
//	GET {base}/teams/{scope}/{resource}?offset=N&limit=N&<filters>
func (c *Client) GetList(ctx context.Context, resource string, lr listquery.Request) (*http.Response, error) {
	if lr.Scope == "" {
		return nil, fmt.Errorf("%w: scope is required", listquery.ErrInvalidArgument)
	}

	reqURL := c.ListURL(resource, lr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	key := cache.CacheKey{
		Scope:    lr.Scope,
		Resource: resource,
		Offset:   lr.Offset,
		Limit:    lr.Limit,
		Filters:  lr.Filters,
	}

	return c.do(req, resource, &key)
}

// ListURL builds the list request URL.
func (c *Client) ListURL(resource string, lr listquery.Request) string {
	values := url.Values{}
	values.Set("offset", strconv.Itoa(lr.Offset))
	values.Set("limit", strconv.Itoa(lr.Limit))
	for k, v := range lr.Filters {
		if v = strings.TrimSpace(v); v != "" {
			values.Set(k, v)
		}
	}

	u := c.baseURL.JoinPath("teams", url.PathEscape(lr.Scope), strings.Trim(resource, "/"))
	u.RawQuery = values.Encode()
	return u.String()
}

// InvalidateScope drops cached pages of a scope (optionally one resource).
// It is a no-op without Redis.
func (c *Client) InvalidateScope(ctx context.Context, scope, resource string) error {
	if c.cache == nil {
		return nil
	}
	removed, err := c.cache.InvalidateScope(ctx, scope, resource)
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	c.logger.Debug().
		Str("scope", scope).
		Str("resource", resource).
		Int("removed", removed).
		Msg("Cache invalidated")
	return nil
}

// Stats returns the per-resource latency statistics.
func (c *Client) Stats() *Stats {
	return c.stats
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

func (c *Client) retryConfig() RetryConfig {
	rc := DefaultRetryConfig()
	rc.MaxAttempts = c.config.MaxRetries + 1
	if c.config.InitialBackoff > 0 {
		rc.InitialBackoff = c.config.InitialBackoff
	}
	if c.config.MaxBackoff > 0 {
		rc.MaxBackoff = c.config.MaxBackoff
	}
	return rc
}
