package redis

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	if cb.CurrentState() != BreakerClosed {
		t.Errorf("expected closed, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	errFail := errors.New("fail")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errFail }); err != errFail {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if cb.CurrentState() != BreakerOpen {
		t.Errorf("expected open after 3 failures, got %v", cb.CurrentState())
	}

	// Rejected immediately while open.
	if err := cb.Execute(func() error { return nil }); err != ErrCircuitOpen {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	errFail := errors.New("fail")

	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errFail })
	cb.Execute(func() error { return errFail })

	if cb.CurrentState() != BreakerClosed {
		t.Errorf("non-consecutive failures must not trip the breaker, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_ProbeRecovery(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	errFail := errors.New("fail")

	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errFail })
	}
	if cb.CurrentState() != BreakerOpen {
		t.Fatal("expected open")
	}

	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should pass through, got %v", err)
	}
	if cb.CurrentState() != BreakerClosed {
		t.Errorf("successful probe closes the breaker, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	errFail := errors.New("fail")

	for i := 0; i < 2; i++ {
		cb.Execute(func() error { return errFail })
	}
	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return errFail }); err != errFail {
		t.Fatalf("probe should pass through, got %v", err)
	}
	if cb.CurrentState() != BreakerOpen {
		t.Errorf("failed probe reopens the breaker, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_StateChangeHook(t *testing.T) {
	cb := NewCircuitBreaker(1, 50*time.Millisecond)

	var transitions []string
	cb.OnStateChange = func(from, to BreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	cb.Execute(func() error { return errors.New("fail") })
	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return nil })

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestRepo_BreakerAccessor(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Second)
	r := &Repo{breaker: cb}
	if r.Breaker() != cb {
		t.Fatal("Breaker() does not return the repo's circuit breaker")
	}
}
