package nse

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests move the breaker past its reset timeout without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestBreaker(maxFailures int) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)}
	b := NewBreaker(maxFailures, 30*time.Second)
	b.now = clk.now
	return b, clk
}

var errUpstream = errors.New("connection reset")

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(3)
	if b.State() != StateClosed {
		t.Errorf("expected Closed, got %v", b.State())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b, _ := newTestBreaker(3)

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errUpstream }); err != errUpstream {
			t.Fatalf("expected errUpstream, got %v", err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected Open after 3 failures, got %v", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn ran while breaker was open")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, clk := newTestBreaker(2)
	for i := 0; i < 2; i++ {
		b.Execute(func() error { return errUpstream })
	}

	clk.advance(31 * time.Second)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected Closed after successful probe, got %v", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clk := newTestBreaker(2)
	for i := 0; i < 2; i++ {
		b.Execute(func() error { return errUpstream })
	}

	clk.advance(31 * time.Second)
	b.Execute(func() error { return errUpstream })

	if b.State() != StateOpen {
		t.Errorf("expected Open after failed probe, got %v", b.State())
	}
	// The reopen restarts the timeout.
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen right after reopen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3)

	b.Execute(func() error { return errUpstream })
	b.Execute(func() error { return errUpstream })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errUpstream })
	b.Execute(func() error { return errUpstream })

	if b.State() != StateClosed {
		t.Errorf("expected Closed (counter should have reset), got %v", b.State())
	}
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	b, _ := newTestBreaker(1)

	for _, err := range []error{
		&APIError{StatusCode: 404},
		fmt.Errorf("wrapped: %w", &APIError{StatusCode: 400}),
		ErrInvalidSymbol,
		context.Canceled,
	} {
		b.Execute(func() error { return err })
		if b.State() != StateClosed {
			t.Fatalf("%v tripped the breaker", err)
		}
	}

	b.Execute(func() error { return &APIError{StatusCode: 503} })
	if b.State() != StateOpen {
		t.Errorf("503 should trip the breaker, got %v", b.State())
	}
}

func TestBreaker_DisabledWhenMaxFailuresZero(t *testing.T) {
	b, _ := newTestBreaker(0)
	for i := 0; i < 50; i++ {
		b.Execute(func() error { return errUpstream })
	}
	if b.State() != StateClosed {
		t.Errorf("disabled breaker opened")
	}
}

func TestBreaker_OnStateChangeCallback(t *testing.T) {
	var transitions []State
	b, clk := newTestBreaker(1)
	b.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	b.Execute(func() error { return errUpstream })
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("expected [Open], got %v", transitions)
	}

	clk.advance(time.Minute)
	b.Execute(func() error { return nil })

	if len(transitions) != 3 || transitions[1] != StateHalfOpen || transitions[2] != StateClosed {
		t.Errorf("expected [Open, HalfOpen, Closed], got %v", transitions)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d: got %s, want %s", s, s.String(), want)
		}
	}
}
