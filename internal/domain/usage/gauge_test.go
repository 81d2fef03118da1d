package usage

import (
	"testing"
	"time"
)

func TestConcurrentGauge(t *testing.T) {
	g, err := NewConcurrentGauge("org_abc123", "active_sessions")
	if err != nil {
		t.Fatalf("NewConcurrentGauge() error = %v", err)
	}

	if got := g.Increment(); got != 1 {
		t.Errorf("Increment() = %v, want 1", got)
	}
	if got := g.Increment(); got != 2 {
		t.Errorf("Increment() = %v, want 2", got)
	}
	if got := g.Decrement(); got != 1 {
		t.Errorf("Decrement() = %v, want 1", got)
	}
	if got := g.Decrement(); got != 0 {
		t.Errorf("Decrement() = %v, want 0", got)
	}
}

func TestConcurrentGaugeClampsAtZero(t *testing.T) {
	g, err := NewConcurrentGauge("org_abc123", "active_sessions")
	if err != nil {
		t.Fatalf("NewConcurrentGauge() error = %v", err)
	}

	if got := g.Decrement(); got != 0 {
		t.Errorf("Decrement() on zero gauge = %v, want 0", got)
	}
	if got := g.Decrement(); got != 0 {
		t.Errorf("repeated Decrement() = %v, want 0", got)
	}
	if got := g.Value(); got != 0 {
		t.Errorf("Value() = %v, want 0", got)
	}
}

func TestReconstructConcurrentGaugeClampsNegative(t *testing.T) {
	g, err := ReconstructConcurrentGauge("org_abc123", "active_sessions", -3, time.Now())
	if err != nil {
		t.Fatalf("ReconstructConcurrentGauge() error = %v", err)
	}
	if got := g.Value(); got != 0 {
		t.Errorf("Value() = %v, want 0 after clamping negative stored value", got)
	}
}

func TestNewConcurrentGaugeValidation(t *testing.T) {
	if _, err := NewConcurrentGauge("", "active_sessions"); err == nil {
		t.Error("NewConcurrentGauge with empty org should fail")
	}
	if _, err := NewConcurrentGauge("org_abc123", ""); err == nil {
		t.Error("NewConcurrentGauge with empty metric should fail")
	}
}
