package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		analytic, simulated, want float64
	}{
		{4.58, 4.60, 0.02},
		{4.60, 4.58, 0.02},
		{7, 7, 0},
	}
	for _, test := range tests {
		got := Reconcile(PricingResult{Price: test.analytic}, SimulationResult{Price: test.simulated})
		if math.Abs(got-test.want) > 1e-12 {
			t.Fatalf("Reconcile(%f, %f) = %f, want %f", test.analytic, test.simulated, got, test.want)
		}
	}
}

func TestCompare(t *testing.T) {
	rec, err := Compare(
		PricingResult{Kind: Call, Price: 4.5},
		SimulationResult{Kind: Call, Price: 4.7, StdError: 0.1},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rec.AbsDiff-0.2) > 1e-12 || math.Abs(rec.StdErrors-2) > 1e-9 {
		t.Fatalf("unexpected reconciliation: %+v", rec)
	}

	_, err = Compare(PricingResult{Kind: Call}, SimulationResult{Kind: Put})
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestSimulatorValue(t *testing.T) {
	v, err := NewSimulator().Value(canonical, DefaultSimulations, DefaultSeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Params != canonical {
		t.Fatalf("params not carried through: %+v", v.Params)
	}
	if v.Reconciliation.AbsDiff != Reconcile(v.Analytic, v.Simulation) {
		t.Fatalf("reconciliation inconsistent with results")
	}
	if v.Reconciliation.AbsDiff > 0.3 {
		t.Fatalf("expected agreement within 0.3, got %f", v.Reconciliation.AbsDiff)
	}

	if _, err := NewSimulator().Value(canonical, 0, 1); !errors.Is(err, ErrInvalidSimulationCount) {
		t.Fatalf("expected ErrInvalidSimulationCount, got %v", err)
	}
}
