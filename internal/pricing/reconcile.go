package pricing

import (
	"fmt"
	"math"
)

// Reconcile returns |analytic − simulated|. The gap is sampling noise of
// order σ_payoff/√N and is informational only.
func Reconcile(analytic PricingResult, simulation SimulationResult) float64 {
	return math.Abs(analytic.Price - simulation.Price)
}

// Reconciliation is the display form of a Reconcile call.
type Reconciliation struct {
	Kind      OptionKind `json:"kind" yaml:"kind"`
	Analytic  float64    `json:"analytic" yaml:"analytic"`
	Simulated float64    `json:"simulated" yaml:"simulated"`
	AbsDiff   float64    `json:"abs_diff" yaml:"abs_diff"`
	StdError  float64    `json:"std_error" yaml:"std_error"`
	// StdErrors is AbsDiff in units of the simulation's standard error,
	// zero when the standard error is zero.
	StdErrors float64 `json:"std_errors" yaml:"std_errors"`
}

// Compare reconciles two results of the same kind.
func Compare(analytic PricingResult, simulation SimulationResult) (Reconciliation, error) {
	if analytic.Kind != simulation.Kind {
		return Reconciliation{}, fmt.Errorf("%w: analytic %s vs simulated %s", ErrKindMismatch, analytic.Kind, simulation.Kind)
	}
	rec := Reconciliation{
		Kind:      analytic.Kind,
		Analytic:  analytic.Price,
		Simulated: simulation.Price,
		AbsDiff:   Reconcile(analytic, simulation),
		StdError:  simulation.StdError,
	}
	if simulation.StdError > 0 {
		rec.StdErrors = rec.AbsDiff / simulation.StdError
	}
	return rec, nil
}

// Valuation bundles both prices of one parameter set.
type Valuation struct {
	Params         OptionParameters `json:"params" yaml:"params"`
	Analytic       PricingResult    `json:"analytic" yaml:"analytic"`
	Simulation     SimulationResult `json:"simulation" yaml:"simulation"`
	Reconciliation Reconciliation   `json:"reconciliation" yaml:"reconciliation"`
}

// Value prices p analytically and by simulation with s, then reconciles.
func (s *Simulator) Value(p OptionParameters, n int, seed uint64) (Valuation, error) {
	analytic, err := PriceAnalytic(p)
	if err != nil {
		return Valuation{}, err
	}
	sim, err := s.Price(p, n, seed)
	if err != nil {
		return Valuation{}, err
	}
	rec, err := Compare(analytic, sim)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{Params: p, Analytic: analytic, Simulation: sim, Reconciliation: rec}, nil
}
