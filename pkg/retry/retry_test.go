package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, fastConfig(3))

	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastConfig(5))

	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_AllAttemptsFail(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, fastConfig(3))

	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_RetryIfStops(t *testing.T) {
	wantErr := errors.New("fatal")
	calls := 0

	cfg := fastConfig(5)
	cfg.RetryIf = func(err error) bool { return false }

	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, cfg)

	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return nil
	}, fastConfig(3))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected 0 calls, got %d", calls)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int

	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	Do(context.Background(), func() error {
		return errors.New("fail")
	}, cfg)

	if len(attempts) != 2 {
		t.Errorf("expected 2 retry callbacks, got %d", len(attempts))
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(context.Background(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, fastConfig(3))

	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected %q, got %q", "ok", result)
	}
}

func TestDoWithResult_Failure(t *testing.T) {
	result, err := DoWithResult(context.Background(), func() (int, error) {
		return 42, errors.New("fail")
	}, fastConfig(2))

	if err == nil {
		t.Error("expected error")
	}
	if result != 0 {
		t.Errorf("expected zero value, got %d", result)
	}
}

func TestRetryIfNotContext(t *testing.T) {
	if RetryIfNotContext(context.Canceled) {
		t.Error("should not retry context.Canceled")
	}
	if RetryIfNotContext(context.DeadlineExceeded) {
		t.Error("should not retry context.DeadlineExceeded")
	}
	if !RetryIfNotContext(errors.New("network")) {
		t.Error("should retry ordinary errors")
	}
}

func TestPermanent(t *testing.T) {
	inner := errors.New("rejected")
	err := Permanent(inner)

	if !IsPermanent(err) {
		t.Error("IsPermanent returned false for PermanentError")
	}
	if !errors.Is(err, inner) {
		t.Error("PermanentError does not unwrap to inner error")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if IsPermanent(inner) {
		t.Error("IsPermanent returned true for plain error")
	}
}
