package cache

import (
	"testing"
	"time"
)

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{name: "expired entry", expires: time.Now().Add(-1 * time.Hour), want: true},
		{name: "valid entry", expires: time.Now().Add(1 * time.Minute), want: false},
		{name: "just expired", expires: time.Now().Add(-1 * time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "default ttl remaining",
			expires: time.Now().Add(DefaultTTL),
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL + time.Second,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Minute),
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Expires: tt.expires}
			got := entry.TTL()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestCacheEntry_Age(t *testing.T) {
	if age := (&CacheEntry{}).Age(); age != 0 {
		t.Errorf("Age() of unset CachedAt = %v, want 0", age)
	}

	entry := &CacheEntry{CachedAt: time.Now().Add(-10 * time.Second)}
	if age := entry.Age(); age < 9*time.Second || age > 11*time.Second {
		t.Errorf("Age() = %v, want ~10s", age)
	}
}
