package cache

import (
	"fmt"
	"sort"
	"strings"
)

// KeyPrefix is the namespace of every cache key.
const KeyPrefix = "fleetdash"

// CacheKey identifies one cached list page.
type CacheKey struct {
	// Scope is the team/tenant identifier
	Scope string

	// Resource is the list resource (e.g. "drivers", "invoices")
	Resource string

	Offset int
	Limit  int

	// Filters are the non-empty list filters (e.g. {"status": "ACTIVE"})
	Filters map[string]string
}

// String generates a deterministic cache key string.
// Format: fleetdash:scope:resource:offset=N:limit=N:filter1=val1
//
// Example:
//
//	fleetdash:team-42:drivers:offset=0:limit=20:status=ACTIVE
func (k CacheKey) String() string {
	parts := []string{KeyPrefix, k.Scope, strings.Trim(k.Resource, "/")}

	parts = append(parts,
		fmt.Sprintf("offset=%d", k.Offset),
		fmt.Sprintf("limit=%d", k.Limit),
	)

	// Filters sorted for determinism
	if len(k.Filters) > 0 {
		keys := make([]string, 0, len(k.Filters))
		for key := range k.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if k.Filters[key] == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Filters[key]))
		}
	}

	return strings.Join(parts, ":")
}

// ScopePattern returns the Redis MATCH pattern covering every key of a scope,
// optionally narrowed to one resource.
func ScopePattern(scope, resource string) string {
	if resource == "" {
		return fmt.Sprintf("%s:%s:*", KeyPrefix, scope)
	}
	return fmt.Sprintf("%s:%s:%s:*", KeyPrefix, scope, strings.Trim(resource, "/"))
}
