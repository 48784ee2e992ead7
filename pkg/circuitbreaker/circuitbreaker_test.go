package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error)    { return nil, errBoom }
func succeed() (interface{}, error) { return "ok", nil }

func TestTripsAfterThreshold(t *testing.T) {
	cb := New(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected underlying error, got %v", i, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	if _, err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open circuit should reject immediately, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)

	cb.Execute(fail)
	cb.Execute(succeed)
	cb.Execute(fail)

	if cb.State() != Closed {
		t.Errorf("non-consecutive failures should not trip the circuit, state = %v", cb.State())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.Execute(fail)
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(succeed); err != nil {
			t.Fatalf("half-open trial %d failed: %v", i, err)
		}
	}
	if cb.State() != Closed {
		t.Errorf("state = %v, want Closed after successful trials", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)
	cb.Execute(fail)

	if cb.State() != Open {
		t.Errorf("state = %v, want Open after half-open failure", cb.State())
	}
}
