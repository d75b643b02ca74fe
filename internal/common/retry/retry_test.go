package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		RetryIf:      IsRetryable,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastConfig(5))

	if !result.Success {
		t.Fatalf("expected success, got %v", result.LastError)
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	result := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent{Err: errors.New("bad credentials")}
	}, fastConfig(5))

	if result.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (permanent errors are not retried)", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	result := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("always failing")
	}, fastConfig(3))

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
	if !errors.Is(result.LastError, ErrMaxAttemptsReached) {
		t.Errorf("last error = %v, want ErrMaxAttemptsReached", result.LastError)
	}
}

func TestDoHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Do(ctx, func(ctx context.Context) error {
		t.Fatal("operation should not run with a canceled context")
		return nil
	}, fastConfig(3))
	if !errors.Is(result.LastError, ErrContextCanceled) {
		t.Errorf("last error = %v, want ErrContextCanceled", result.LastError)
	}
}

func TestDoWithData(t *testing.T) {
	calls := 0
	data, result := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, fastConfig(3))

	if !result.Success || data != 42 {
		t.Errorf("data = %d, success = %v, want 42/true", data, result.Success)
	}
}

func TestIsRetryableStorageError(t *testing.T) {
	if !IsRetryableStorageError(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused should be retryable")
	}
	if IsRetryableStorageError(errors.New("object not found: models/a.ifc")) {
		t.Error("missing object should not be retryable")
	}
	if IsRetryableStorageError(context.Canceled) {
		t.Error("context cancellation should not be retryable")
	}
}
