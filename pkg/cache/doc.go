// Package cache provides a Redis-backed cache for list endpoint pages with
// ETag support for conditional requests.
//
// The cache manager implements the following features:
//
// - TTL taken from the API's Expires header (DefaultTTL when absent)
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Deterministic cache keys per team scope, resource, window and filters
// - Scope invalidation on team switch or explicit refresh
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Scope:    "team-42",
//		Resource: "drivers",
//		Offset:   0,
//		Limit:    20,
//		Filters:  map[string]string{"status": "ACTIVE"},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from the API
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// A 304 response is served from entry via cache.EntryToResponse
//	}
//
// # Metrics
//
//   - fleetdash_cache_hits_total{layer="redis"} - Cache hits
//   - fleetdash_cache_misses_total - Cache misses
//   - fleetdash_cache_size_bytes{layer="redis"} - Bytes written to the cache
//   - fleetdash_304_responses_total - Conditional request successes
//   - fleetdash_conditional_requests_total - Conditional requests sent
//   - fleetdash_cache_errors_total{operation} - Cache operation errors
package cache
