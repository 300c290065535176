package pricing

import (
	"errors"
	"math"
	"testing"
)

// canonical example: S=100, K=105, T=0.5, r=5%, σ=20%
var canonical = OptionParameters{Spot: 100, Strike: 105, Expiry: 0.5, Rate: 0.05, Volatility: 0.2, Kind: Call}

func TestPriceAnalyticCanonical(t *testing.T) {
	call, err := PriceAnalytic(canonical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	put, err := PriceAnalytic(canonical.WithKind(Put))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.Price < 4.57 || call.Price > 4.59 {
		t.Fatalf("expected call in [4.57, 4.59], got %f", call.Price)
	}
	if put.Price < 6.97 || put.Price > 7.01 {
		t.Fatalf("expected put in [6.97, 7.01], got %f", put.Price)
	}
	if math.Abs(call.D1-(-0.0975)) > 1e-3 {
		t.Fatalf("expected d1 ≈ -0.0975, got %f", call.D1)
	}
	if math.Abs(call.D2-(-0.2389)) > 1e-3 {
		t.Fatalf("expected d2 ≈ -0.2389, got %f", call.D2)
	}
	if call.D1 != put.D1 || call.D2 != put.D2 {
		t.Fatalf("d1/d2 must not depend on kind")
	}
}

func TestPriceAnalyticNonNegative(t *testing.T) {
	for _, spot := range []float64{1, 50, 100, 200, 1000} {
		for _, strike := range []float64{1, 50, 100, 200, 1000} {
			for _, expiry := range []float64{1.0 / 365, 0.25, 1, 5} {
				for _, vol := range []float64{0.01, 0.2, 1.5} {
					for _, rate := range []float64{-0.01, 0, 0.05} {
						for _, kind := range []OptionKind{Call, Put} {
							p := OptionParameters{spot, strike, expiry, rate, vol, kind}
							res, err := PriceAnalytic(p)
							if err != nil {
								t.Fatalf("%+v: unexpected error: %v", p, err)
							}
							if res.Price < 0 || math.IsNaN(res.Price) || math.IsInf(res.Price, 0) {
								t.Fatalf("%+v: expected finite non-negative price, got %v", p, res.Price)
							}
						}
					}
				}
			}
		}
	}
}

func TestPutCallParity(t *testing.T) {
	tests := []OptionParameters{
		canonical,
		{Spot: 100, Strike: 100, Expiry: 45.0 / 365, Rate: 0.03, Volatility: 0.25},
		{Spot: 581.39, Strike: 580, Expiry: 16.0 / 365, Rate: 0.045, Volatility: 0.14},
		{Spot: 20, Strike: 35, Expiry: 2, Rate: 0.01, Volatility: 0.6},
		{Spot: 150, Strike: 90, Expiry: 0.1, Rate: 0, Volatility: 0.35},
	}

	for _, p := range tests {
		call, err := PriceAnalytic(p.WithKind(Call))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		put, err := PriceAnalytic(p.WithKind(Put))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lhs := call.Price - put.Price
		rhs := p.Spot - p.Strike*math.Exp(-p.Rate*p.Expiry)
		if math.Abs(lhs-rhs) > 1e-6 {
			t.Fatalf("put-call parity violated for %+v: LHS=%f RHS=%f", p, lhs, rhs)
		}
	}
}

// At the money ln(S/K) vanishes, leaving d1,2 = (r ± σ²/2)·√T / σ.
func TestAtTheMoneyTerms(t *testing.T) {
	tests := []struct {
		rate, vol, expiry float64
	}{
		{0.05, 0.2, 0.5},
		{0.0, 0.3, 1},
		{0.02, 0.8, 0.25},
	}

	for _, test := range tests {
		p := OptionParameters{Spot: 100, Strike: 100, Expiry: test.expiry, Rate: test.rate, Volatility: test.vol, Kind: Call}
		res, err := PriceAnalytic(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sqrtT := math.Sqrt(test.expiry)
		wantD1 := (test.rate + 0.5*test.vol*test.vol) * sqrtT / test.vol
		wantD2 := (test.rate - 0.5*test.vol*test.vol) * sqrtT / test.vol
		if math.Abs(res.D1-wantD1) > 1e-12 || math.Abs(res.D2-wantD2) > 1e-12 {
			t.Fatalf("expected d1=%f d2=%f, got d1=%f d2=%f", wantD1, wantD2, res.D1, res.D2)
		}

		// symmetric around the drift term r·√T/σ
		mid := test.rate * sqrtT / test.vol
		if math.Abs((res.D1-mid)-(mid-res.D2)) > 1e-12 {
			t.Fatalf("d1 and d2 not symmetric around %f: d1=%f d2=%f", mid, res.D1, res.D2)
		}
	}
}

func TestGreeks(t *testing.T) {
	call, _ := PriceAnalytic(canonical)
	put, _ := PriceAnalytic(canonical.WithKind(Put))

	if math.Abs((call.Greeks.Delta-put.Greeks.Delta)-1) > 1e-12 {
		t.Fatalf("expected call delta − put delta = 1, got %f", call.Greeks.Delta-put.Greeks.Delta)
	}
	if call.Greeks.Gamma != put.Greeks.Gamma || call.Greeks.Vega != put.Greeks.Vega {
		t.Fatalf("gamma and vega must match across kinds")
	}
	if call.Greeks.Gamma <= 0 || call.Greeks.Vega <= 0 {
		t.Fatalf("expected positive gamma and vega, got %+v", call.Greeks)
	}
	if call.Greeks.Rho <= 0 || put.Greeks.Rho >= 0 {
		t.Fatalf("expected call rho > 0 and put rho < 0, got %f and %f", call.Greeks.Rho, put.Greeks.Rho)
	}

	// vega against a central difference
	h := 1e-5
	up, _ := PriceAnalytic(OptionParameters{100, 105, 0.5, 0.05, 0.2 + h, Call})
	down, _ := PriceAnalytic(OptionParameters{100, 105, 0.5, 0.05, 0.2 - h, Call})
	numeric := (up.Price - down.Price) / (2 * h)
	if math.Abs(numeric-call.Greeks.Vega) > 1e-4 {
		t.Fatalf("vega mismatch: analytic=%f numeric=%f", call.Greeks.Vega, numeric)
	}
}

func TestPriceAnalyticInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    OptionParameters
		want error
	}{
		{"zero expiry", OptionParameters{100, 105, 0, 0.05, 0.2, Call}, ErrInvalidParameters},
		{"zero vol", OptionParameters{100, 105, 0.5, 0.05, 0, Call}, ErrInvalidParameters},
		{"negative spot", OptionParameters{-1, 105, 0.5, 0.05, 0.2, Put}, ErrInvalidParameters},
		{"zero strike", OptionParameters{100, 0, 0.5, 0.05, 0.2, Put}, ErrInvalidParameters},
		{"nan rate", OptionParameters{100, 105, 0.5, math.NaN(), 0.2, Call}, ErrInvalidParameters},
		{"inf spot", OptionParameters{math.Inf(1), 105, 0.5, 0.05, 0.2, Call}, ErrInvalidParameters},
		{"bad kind", OptionParameters{100, 105, 0.5, 0.05, 0.2, "straddle"}, ErrInvalidOptionKind},
		{"empty kind", OptionParameters{100, 105, 0.5, 0.05, 0.2, ""}, ErrInvalidOptionKind},
	}

	for _, test := range tests {
		res, err := PriceAnalytic(test.p)
		if !errors.Is(err, test.want) {
			t.Fatalf("%s: expected %v, got %v", test.name, test.want, err)
		}
		if res != (PricingResult{}) {
			t.Fatalf("%s: expected zero result on error, got %+v", test.name, res)
		}
	}
}

func TestParseOptionKind(t *testing.T) {
	tests := []struct {
		in   string
		want OptionKind
	}{
		{"call", Call},
		{"CALL", Call},
		{" c ", Call},
		{"put", Put},
		{"P", Put},
	}
	for _, test := range tests {
		got, err := ParseOptionKind(test.in)
		if err != nil || got != test.want {
			t.Fatalf("ParseOptionKind(%q) = %q, %v; want %q", test.in, got, err, test.want)
		}
	}

	if _, err := ParseOptionKind("butterfly"); !errors.Is(err, ErrInvalidOptionKind) {
		t.Fatalf("expected ErrInvalidOptionKind, got %v", err)
	}
}

func TestNewOptionParameters(t *testing.T) {
	p, err := NewOptionParameters(100, 105, 0.5, 0.05, 0.2, Call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != canonical {
		t.Fatalf("expected %+v, got %+v", canonical, p)
	}

	if _, err := NewOptionParameters(100, 105, 0, 0.05, 0.2, Call); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}
