package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *RateLimitState
		maxAge   time.Duration
		expected bool
	}{
		{name: "fresh state", state: &RateLimitState{LastUpdate: time.Now()}, maxAge: 5 * time.Minute, expected: false},
		{name: "stale state", state: &RateLimitState{LastUpdate: time.Now().Add(-10 * time.Minute)}, maxAge: 5 * time.Minute, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitState_Bands(t *testing.T) {
	future := time.Now().Add(30 * time.Second)
	past := time.Now().Add(-30 * time.Second)

	tests := []struct {
		name      string
		remaining int
		resetAt   time.Time
		block     bool
		throttle  bool
		healthy   bool
	}{
		{name: "healthy", remaining: 100, resetAt: future, healthy: true},
		{name: "at healthy threshold", remaining: ThresholdHealthy, resetAt: future, healthy: true},
		{name: "between warning and healthy", remaining: 30, resetAt: future},
		{name: "warning", remaining: ThresholdWarning - 1, resetAt: future, throttle: true},
		{name: "critical", remaining: ThresholdCritical - 1, resetAt: future, block: true},
		{name: "critical but window reset", remaining: 0, resetAt: past},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{Remaining: tt.remaining, ResetAt: tt.resetAt}
			state.UpdateHealth()

			if got := state.NeedsCriticalBlock(); got != tt.block {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.block)
			}
			if got := state.NeedsThrottling(); got != tt.throttle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.throttle)
			}
			if state.IsHealthy != tt.healthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.healthy)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	state := &RateLimitState{ResetAt: time.Now().Add(-time.Minute)}
	if got := state.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() for past reset = %v, want 0", got)
	}

	state.ResetAt = time.Now().Add(time.Minute)
	if got := state.TimeUntilReset(); got < 59*time.Second || got > time.Minute {
		t.Errorf("TimeUntilReset() = %v, want ~1m", got)
	}
}
