package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Greeks are the first-order sensitivities of the Black-Scholes price.
// Theta is per year and Rho per unit of rate; Vega is per unit of volatility.
type Greeks struct {
	Delta float64 `json:"delta" yaml:"delta" csv:"delta"`
	Gamma float64 `json:"gamma" yaml:"gamma" csv:"gamma"`
	Vega  float64 `json:"vega" yaml:"vega" csv:"vega"`
	Theta float64 `json:"theta" yaml:"theta" csv:"theta"`
	Rho   float64 `json:"rho" yaml:"rho" csv:"rho"`
}

// PricingResult is the closed-form valuation of one option.
type PricingResult struct {
	Kind   OptionKind `json:"kind" yaml:"kind"`
	Price  float64    `json:"price" yaml:"price"`
	D1     float64    `json:"d1" yaml:"d1"`
	D2     float64    `json:"d2" yaml:"d2"`
	Greeks Greeks     `json:"greeks" yaml:"greeks"`
}

// PriceAnalytic calculates the price of a European option using the
// Black-Scholes model.
//
//	d1 = (ln(S/K) + (r + σ²/2)·T) / (σ·√T)
//	d2 = d1 − σ·√T
//	call = S·Φ(d1) − K·e^(−rT)·Φ(d2)
//	put  = K·e^(−rT)·Φ(−d2) − S·Φ(−d1)
//
// It returns ErrInvalidParameters for non-positive spot, strike, expiry or
// volatility and ErrInvalidOptionKind for anything but Call or Put. The
// result never contains NaN or Inf.
func PriceAnalytic(p OptionParameters) (PricingResult, error) {
	if err := p.Validate(); err != nil {
		return PricingResult{}, err
	}

	d1, d2 := terms(p)
	sqrtT := math.Sqrt(p.Expiry)
	df := p.discount()
	pdf := normPDF(d1)

	res := PricingResult{Kind: p.Kind, D1: d1, D2: d2}
	res.Greeks.Gamma = pdf / (p.Spot * p.Volatility * sqrtT)
	res.Greeks.Vega = p.Spot * pdf * sqrtT
	decay := -p.Spot * pdf * p.Volatility / (2 * sqrtT)

	switch p.Kind {
	case Call:
		res.Price = p.Spot*normCDF(d1) - p.Strike*df*normCDF(d2)
		res.Greeks.Delta = normCDF(d1)
		res.Greeks.Theta = decay - p.Rate*p.Strike*df*normCDF(d2)
		res.Greeks.Rho = p.Strike * p.Expiry * df * normCDF(d2)
	case Put:
		res.Price = p.Strike*df*normCDF(-d2) - p.Spot*normCDF(-d1)
		res.Greeks.Delta = normCDF(d1) - 1
		res.Greeks.Theta = decay + p.Rate*p.Strike*df*normCDF(-d2)
		res.Greeks.Rho = -p.Strike * p.Expiry * df * normCDF(-d2)
	}

	// deep out-of-the-money prices can round a hair below zero
	res.Price = math.Max(res.Price, 0)
	return res, nil
}

// terms returns d1 and d2 for already validated parameters.
func terms(p OptionParameters) (d1, d2 float64) {
	volSqrtT := p.Volatility * math.Sqrt(p.Expiry)
	d1 = (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Volatility*p.Volatility)*p.Expiry) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// normCDF is the standard normal cumulative distribution function.
// distuv evaluates it through math.Erfc, which is accurate to full double
// precision in both tails.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
