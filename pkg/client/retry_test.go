package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/rs/zerolog"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() (ErrorClass, error) {
		calls++
		if calls < 3 {
			return ErrorClassServer, errors.New("server error")
		}
		return "", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	err := retryWithBackoff(context.Background(), fastRetry(5), zerolog.Nop(), func() (ErrorClass, error) {
		calls++
		return ErrorClassClient, sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() (ErrorClass, error) {
		calls++
		return ErrorClassNetwork, networkError(errors.New("reset by peer"))
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("err = %v, want ErrRetryExhausted", err)
	}
	if !errors.Is(err, listquery.ErrNetwork) {
		t.Errorf("err = %v, should still match ErrNetwork", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_SingleAttempt(t *testing.T) {
	sentinel := errors.New("server error")
	err := retryWithBackoff(context.Background(), DefaultRetryConfig(), zerolog.Nop(), func() (ErrorClass, error) {
		return ErrorClassServer, sentinel
	})

	if err != sentinel {
		t.Errorf("single attempt should return the error unchanged, got %v", err)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Second

	calls := 0
	err := retryWithBackoff(ctx, cfg, zerolog.Nop(), func() (ErrorClass, error) {
		calls++
		cancel()
		return ErrorClassServer, errors.New("server error")
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("err = %v, want ErrContextCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryConfig_ForClass(t *testing.T) {
	base := DefaultRetryConfig()

	rl := base.forClass(ErrorClassRateLimit)
	if rl.InitialBackoff != 4*base.InitialBackoff {
		t.Errorf("rate limit InitialBackoff = %v, want %v", rl.InitialBackoff, 4*base.InitialBackoff)
	}

	srv := base.forClass(ErrorClassServer)
	if srv.InitialBackoff != base.InitialBackoff {
		t.Errorf("server InitialBackoff = %v, want %v", srv.InitialBackoff, base.InitialBackoff)
	}
}
