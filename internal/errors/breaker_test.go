package errors

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(maxFailures int) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		MaxFailures:  maxFailures,
		ResetTimeout: TestCircuitBreakerResetTimeout,
	})
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if !cb.CanExecute() {
			t.Fatalf("breaker opened after %d failures", i+1)
		}
	}

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("expected open, got %s", cb.GetState())
	}
	if cb.CanExecute() {
		t.Error("open breaker allowed execution")
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.GetState() != CircuitClosed {
		t.Errorf("expected closed, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	cb, clock := newTestBreaker(1)

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatal("expected open breaker to reject")
	}

	clock.Advance(2 * TestCircuitBreakerResetTimeout)

	if !cb.CanExecute() {
		t.Fatal("expected trial call after reset timeout")
	}
	if cb.GetState() != CircuitHalfOpen {
		t.Errorf("expected half-open, got %s", cb.GetState())
	}
	if cb.CanExecute() {
		t.Error("second concurrent trial call should be rejected")
	}

	// failed trial call reopens
	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("expected open after failed trial call, got %s", cb.GetState())
	}

	clock.Advance(2 * TestCircuitBreakerResetTimeout)
	if !cb.CanExecute() {
		t.Fatal("expected second trial call")
	}
	cb.RecordSuccess()
	if cb.GetState() != CircuitClosed {
		t.Errorf("expected closed after successful trial call, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_ReleaseKeepsHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(1)

	cb.RecordFailure()
	clock.Advance(2 * TestCircuitBreakerResetTimeout)
	if !cb.CanExecute() {
		t.Fatal("expected trial call after reset timeout")
	}

	cb.Release()
	if cb.GetState() != CircuitHalfOpen {
		t.Errorf("expected half-open after release, got %s", cb.GetState())
	}
	if !cb.CanExecute() {
		t.Error("expected a new trial call after release")
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb, _ := newTestBreaker(0)

	for i := 0; i < 10; i++ {
		cb.RecordFailure()
	}
	if !cb.CanExecute() {
		t.Error("disabled breaker rejected execution")
	}

	var nilBreaker *CircuitBreaker
	if !nilBreaker.CanExecute() {
		t.Error("nil breaker should allow execution")
	}
	nilBreaker.RecordFailure()
	nilBreaker.RecordSuccess()
}

func TestCircuitBreakerState_String(t *testing.T) {
	if CircuitClosed.String() != "closed" || CircuitOpen.String() != "open" || CircuitHalfOpen.String() != "half-open" {
		t.Error("unexpected state names")
	}
}
