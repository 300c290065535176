// Package pricing values European options two ways: a closed-form
// Black-Scholes pricer and a Monte Carlo pricer over risk-neutral geometric
// Brownian motion. Both are pure functions of their inputs; the simulation
// pricer additionally consumes an explicitly seeded random source.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidParameters reports a non-positive or non-finite spot, strike,
	// expiry or volatility (or a non-finite rate).
	ErrInvalidParameters = errors.New("invalid option parameters")

	// ErrInvalidOptionKind reports an option kind other than call or put.
	ErrInvalidOptionKind = errors.New("invalid option kind")

	// ErrInvalidSimulationCount reports a simulation count <= 0.
	ErrInvalidSimulationCount = errors.New("invalid simulation count")

	// ErrKindMismatch reports an attempt to compare results of different kinds.
	ErrKindMismatch = errors.New("option kind mismatch")
)

// OptionKind is either Call or Put.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// ParseOptionKind accepts "call", "c", "put" or "p" in any case.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOptionKind, s)
}

// Validate returns ErrInvalidOptionKind unless k is Call or Put.
func (k OptionKind) Validate() error {
	if k != Call && k != Put {
		return fmt.Errorf("%w: %q", ErrInvalidOptionKind, string(k))
	}
	return nil
}

// OptionParameters describes a European option on a non-dividend paying
// underlying. Expiry is in years, Rate and Volatility are annualized decimals.
type OptionParameters struct {
	Spot       float64    `json:"spot" yaml:"spot"`
	Strike     float64    `json:"strike" yaml:"strike"`
	Expiry     float64    `json:"expiry" yaml:"expiry"`
	Rate       float64    `json:"rate" yaml:"rate"`
	Volatility float64    `json:"volatility" yaml:"volatility"`
	Kind       OptionKind `json:"kind" yaml:"kind"`
}

// NewOptionParameters builds and validates a parameter set.
func NewOptionParameters(spot, strike, expiry, rate, volatility float64, kind OptionKind) (OptionParameters, error) {
	p := OptionParameters{
		Spot:       spot,
		Strike:     strike,
		Expiry:     expiry,
		Rate:       rate,
		Volatility: volatility,
		Kind:       kind,
	}
	if err := p.Validate(); err != nil {
		return OptionParameters{}, err
	}
	return p, nil
}

// Validate checks the numeric preconditions first and the kind second.
// A zero expiry or volatility would divide by zero in d1, so both are
// rejected here rather than surfacing as NaN or Inf downstream.
func (p OptionParameters) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"expiry", p.Expiry},
		{"volatility", p.Volatility},
	}
	for _, f := range positive {
		if !isFinite(f.v) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidParameters, f.name, f.v)
		}
	}
	if !isFinite(p.Rate) {
		return fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidParameters, p.Rate)
	}
	return p.Kind.Validate()
}

// WithKind returns a copy of p priced as kind.
func (p OptionParameters) WithKind(kind OptionKind) OptionParameters {
	p.Kind = kind
	return p
}

// WithStrike returns a copy of p with the strike replaced.
func (p OptionParameters) WithStrike(strike float64) OptionParameters {
	p.Strike = strike
	return p
}

// discount is e^(-rT).
func (p OptionParameters) discount() float64 {
	return math.Exp(-p.Rate * p.Expiry)
}

// payoff at expiry for a terminal underlying price st.
func (p OptionParameters) payoff(st float64) float64 {
	if p.Kind == Call {
		return math.Max(st-p.Strike, 0)
	}
	return math.Max(p.Strike-st, 0)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
