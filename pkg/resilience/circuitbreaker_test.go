package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/fn"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), fail); !errors.Is(err, boom) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(context.Background(), fail); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker must reject, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	boom := errors.New("boom")

	b.Call(context.Background(), func(context.Context) error { return boom })
	b.Call(context.Background(), func(context.Context) error { return nil })
	b.Call(context.Background(), func(context.Context) error { return boom })

	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after interleaved success", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Second, HalfOpenMax: 1})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), func(context.Context) error { return errors.New("x") })
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	clock = clock.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after timeout", b.State())
	}

	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Second})
	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), func(context.Context) error { return errors.New("x") })
	clock = clock.Add(2 * time.Second)
	b.Call(context.Background(), func(context.Context) error { return errors.New("y") })

	if b.State() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", b.State())
	}
}

func TestCallResult(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})

	r := CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		return fn.Ok(7)
	})
	if v, err := r.Unwrap(); err != nil || v != 7 {
		t.Errorf("got (%v, %v)", v, err)
	}

	CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		return fn.Errf[int]("fail")
	})
	r = CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		t.Error("open breaker must not invoke f")
		return fn.Ok(0)
	})
	if _, err := r.Unwrap(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("got %v", err)
	}
}

func TestStateString(t *testing.T) {
	if StateClosed.String() != "closed" || StateOpen.String() != "open" || StateHalfOpen.String() != "half-open" {
		t.Error("unexpected state strings")
	}
}
