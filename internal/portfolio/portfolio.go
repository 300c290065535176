// Package portfolio generates heuristic allocations from ticker pools and
// forecasts their annual return and volatility.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/quant-risk/internal/config"
	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/logger"
	"github.com/contactkeval/quant-risk/internal/risk"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidRequest  = errors.New("invalid portfolio request")
)

// minMeanReturn floors expected returns before weighting.
const minMeanReturn = 1e-4

type Strategy string

const (
	Stability Strategy = "stability"
	Balanced  Strategy = "balanced"
	Growth    Strategy = "growth"
)

// ParseStrategy is case-insensitive.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case Stability, Balanced, Growth:
		return st, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
}

// Request describes a portfolio to generate.
type Request struct {
	Investment float64  `json:"investment"`
	Strategy   Strategy `json:"strategy"`
	NumStocks  int      `json:"num_stocks"`
	Seed       uint64   `json:"seed"`
}

func (r Request) Validate() error {
	if !(r.Investment > 0) || math.IsInf(r.Investment, 0) {
		return fmt.Errorf("investment must be positive, got %v: %w", r.Investment, ErrInvalidRequest)
	}
	if r.NumStocks <= 0 {
		return fmt.Errorf("num_stocks must be positive, got %d: %w", r.NumStocks, ErrInvalidRequest)
	}
	if _, err := ParseStrategy(string(r.Strategy)); err != nil {
		return err
	}
	return nil
}

type Allocation struct {
	Ticker              string          `json:"ticker" yaml:"ticker" csv:"ticker"`
	ExpectedDailyReturn float64         `json:"expected_daily_return" yaml:"expected_daily_return" csv:"expected_daily_return"`
	Volatility          float64         `json:"volatility" yaml:"volatility" csv:"volatility"`
	Weight              float64         `json:"weight" yaml:"weight" csv:"weight"`
	Amount              decimal.Decimal `json:"amount" yaml:"amount" csv:"amount"`
}

type Plan struct {
	Strategy                 Strategy     `json:"strategy" yaml:"strategy"`
	Seed                     uint64       `json:"seed" yaml:"seed"`
	Allocations              []Allocation `json:"allocations" yaml:"allocations"`
	ExpectedAnnualReturn     float64      `json:"expected_annual_return" yaml:"expected_annual_return"`
	ExpectedAnnualVolatility float64      `json:"expected_annual_volatility" yaml:"expected_annual_volatility"`
	Sharpe                   float64      `json:"sharpe" yaml:"sharpe"`
}

// Generator draws tickers from configured pools and sizes them by expected
// return.
type Generator struct {
	pools    config.PoolsConfig
	prov     data.Provider
	lookback int
	now      func() time.Time
}

func NewGenerator(pools config.PoolsConfig, prov data.Provider, lookbackDays int) *Generator {
	return &Generator{pools: pools, prov: prov, lookback: lookbackDays, now: time.Now}
}

// Pool returns the tickers a strategy draws from.
func (g *Generator) Pool(s Strategy) ([]string, error) {
	switch s {
	case Stability:
		return dedupe(g.pools.Low), nil
	case Balanced:
		return dedupe(append(append([]string{}, g.pools.Low...), g.pools.Medium...)), nil
	case Growth:
		return dedupe(append(append([]string{}, g.pools.Medium...), g.pools.High...)), nil
	}
	return nil, fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
}

// Select draws n tickers from pool without replacement. The same seed always
// yields the same selection.
func Select(pool []string, n int, seed uint64) []string {
	if n > len(pool) {
		n = len(pool)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(pool))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// Generate selects tickers, fetches their history and builds the plan. The
// fallback tickers back-fill selections whose data cannot be fetched.
func (g *Generator) Generate(ctx context.Context, req Request) (*Plan, error) {
	strategy, err := ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	req.Strategy = strategy
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pool, err := g.Pool(strategy)
	if err != nil {
		return nil, err
	}

	selected := Select(pool, req.NumStocks, req.Seed)
	candidates := append([]string{}, selected...)
	for _, t := range g.pools.Fallback {
		if !contains(candidates, t) {
			candidates = append(candidates, t)
		}
	}
	logger.Debugf("portfolio %s candidates: %v", strategy, candidates)

	series, err := data.FetchAvailable(ctx, g.prov, candidates, data.Lookback(g.lookback, g.now()))
	if err != nil {
		return nil, err
	}
	var tickers []string
	for _, t := range candidates {
		if _, ok := series[strings.ToUpper(t)]; ok && len(tickers) < req.NumStocks {
			tickers = append(tickers, strings.ToUpper(t))
		}
	}

	rets, err := risk.AlignedReturns(series, tickers)
	if err != nil {
		return nil, err
	}
	return buildPlan(req, tickers, rets)
}

func buildPlan(req Request, tickers []string, rets [][]float64) (*Plan, error) {
	means := make([]float64, len(tickers))
	vols := make([]float64, len(tickers))
	for i, r := range rets {
		means[i], vols[i] = stat.MeanStdDev(r, nil)
	}
	weights := Weights(means)

	investment := decimal.NewFromFloat(req.Investment)
	allocs := make([]Allocation, len(tickers))
	for i, t := range tickers {
		allocs[i] = Allocation{
			Ticker:              t,
			ExpectedDailyReturn: means[i],
			Volatility:          vols[i],
			Weight:              weights[i],
			Amount:              investment.Mul(decimal.NewFromFloat(weights[i])).Round(2),
		}
	}

	annRet, annVol, sharpe := Forecast(means, weights, rets)
	return &Plan{
		Strategy:                 req.Strategy,
		Seed:                     req.Seed,
		Allocations:              allocs,
		ExpectedAnnualReturn:     annRet,
		ExpectedAnnualVolatility: annVol,
		Sharpe:                   sharpe,
	}, nil
}

// Weights clips each expected return at a small positive floor and
// normalises them to sum to one.
func Weights(meanReturns []float64) []float64 {
	out := make([]float64, len(meanReturns))
	sum := 0.0
	for i, m := range meanReturns {
		if math.IsNaN(m) || m < minMeanReturn {
			m = minMeanReturn
		}
		out[i] = m
		sum += m
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Forecast annualises the weighted mean return and the portfolio volatility
// sqrt(wᵀΣw) where Σ is the sample covariance of the aligned returns.
func Forecast(means, weights []float64, rets [][]float64) (annualReturn, annualVol, sharpe float64) {
	n := len(weights)
	if n == 0 {
		return 0, 0, 0
	}
	w := mat.NewVecDense(n, append([]float64(nil), weights...))
	mu := mat.NewVecDense(n, append([]float64(nil), means...))
	annualReturn = mat.Dot(mu, w) * risk.TradingDays

	obs := len(rets[0])
	if obs < 2 {
		return annualReturn, 0, 0
	}
	x := mat.NewDense(obs, n, nil)
	for j, r := range rets {
		for i, v := range r {
			x.Set(i, j, v)
		}
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	variance := mat.Inner(w, &cov, w)
	if variance > 0 {
		annualVol = math.Sqrt(variance) * math.Sqrt(risk.TradingDays)
	}
	if annualVol > 0 {
		sharpe = annualReturn / annualVol
	}
	return annualReturn, annualVol, sharpe
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if strings.EqualFold(v, x) {
			return true
		}
	}
	return false
}
