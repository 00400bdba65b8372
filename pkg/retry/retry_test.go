package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		MinBackoff:  time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(4).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_BoundedAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("always fails")
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	inner := errors.New("bad request")
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(inner)
	})
	if !errors.Is(err, inner) {
		t.Fatalf("error = %v, want %v", err, inner)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (permanent error must not retry)", calls)
	}
}

func TestDo_RetryablePredicate(t *testing.T) {
	calls := 0
	p := fastPolicy(5)
	p.Retryable = func(err error) bool { return false }
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, MinBackoff: time.Hour}
	err := p.Do(ctx, func(context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBackoff_CappedAtMax(t *testing.T) {
	p := Policy{MinBackoff: time.Second, MaxBackoff: 4 * time.Second}
	if d := p.backoff(10); d > 4*time.Second {
		t.Errorf("backoff(10) = %s, want <= 4s", d)
	}
}
