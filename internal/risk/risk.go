// Package risk computes historical-return risk metrics for a weighted
// portfolio.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/contactkeval/quant-risk/internal/data"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrWeightsMismatch  = errors.New("weights do not match tickers")
)

// TradingDays scales daily figures to annual ones.
const TradingDays = 252

// DefaultVolatility is used when a series is too short to estimate one.
const DefaultVolatility = 0.30

// Metrics summarises a daily return series.
type Metrics struct {
	MeanDailyReturn float64 `json:"mean_daily_return" yaml:"mean_daily_return" csv:"mean_daily_return"`
	Volatility      float64 `json:"volatility" yaml:"volatility" csv:"volatility"`
	VaR95           float64 `json:"var_95" yaml:"var_95" csv:"var_95"`
	CVaR95          float64 `json:"cvar_95" yaml:"cvar_95" csv:"cvar_95"`
	Sharpe          float64 `json:"sharpe" yaml:"sharpe" csv:"sharpe"`
	Observations    int     `json:"observations" yaml:"observations" csv:"observations"`
}

// DailyReturns is the simple percentage change between consecutive closes.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// AlignedReturns returns, for each ticker in order, its daily returns over
// the dates on which every ticker has a close.
func AlignedReturns(series map[string]data.PriceSeries, tickers []string) ([][]float64, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers: %w", ErrInsufficientData)
	}
	closes := make([]map[time.Time]float64, len(tickers))
	for i, t := range tickers {
		s, ok := series[t]
		if !ok {
			return nil, fmt.Errorf("%s: %w", t, data.ErrNoData)
		}
		m := make(map[time.Time]float64, len(s.Bars))
		for _, b := range s.Bars {
			m[b.Date] = b.Close
		}
		closes[i] = m
	}

	var dates []time.Time
	for d := range closes[0] {
		common := true
		for _, m := range closes[1:] {
			if _, ok := m[d]; !ok {
				common = false
				break
			}
		}
		if common {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) < 3 {
		return nil, fmt.Errorf("%d common dates: %w", len(dates), ErrInsufficientData)
	}

	out := make([][]float64, len(tickers))
	for i, m := range closes {
		aligned := make([]float64, len(dates))
		for k, d := range dates {
			aligned[k] = m[d]
		}
		out[i] = DailyReturns(aligned)
	}
	return out, nil
}

// PortfolioReturns is the weighted sum of AlignedReturns. tickers and
// weights are parallel.
func PortfolioReturns(series map[string]data.PriceSeries, tickers []string, weights []float64) ([]float64, error) {
	if len(tickers) == 0 || len(tickers) != len(weights) {
		return nil, fmt.Errorf("%d tickers, %d weights: %w", len(tickers), len(weights), ErrWeightsMismatch)
	}
	rets, err := AlignedReturns(series, tickers)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rets[0]))
	for i, r := range rets {
		for k := range r {
			out[k] += weights[i] * r[k]
		}
	}
	return out, nil
}

// Compute derives the metrics of a return series. Volatility is the sample
// standard deviation; VaR95 is the 5th percentile and CVaR95 the mean of the
// returns at or below it.
func Compute(returns []float64) (Metrics, error) {
	if len(returns) < 2 {
		return Metrics{}, fmt.Errorf("%d returns: %w", len(returns), ErrInsufficientData)
	}
	in := stats.Float64Data(returns)

	mean, err := stats.Mean(in)
	if err != nil {
		return Metrics{}, fmt.Errorf("mean: %w", err)
	}
	sd, err := stats.StandardDeviationSample(in)
	if err != nil {
		return Metrics{}, fmt.Errorf("std dev: %w", err)
	}

	var95 := percentileLinear(returns, 5)
	var tail stats.Float64Data
	for _, r := range returns {
		if r <= var95 {
			tail = append(tail, r)
		}
	}
	cvar95, err := stats.Mean(tail)
	if err != nil {
		return Metrics{}, fmt.Errorf("cvar: %w", err)
	}

	sharpe := 0.0
	if sd > 0 {
		sharpe = mean / sd
	}
	return Metrics{
		MeanDailyReturn: mean,
		Volatility:      sd,
		VaR95:           var95,
		CVaR95:          cvar95,
		Sharpe:          sharpe,
		Observations:    len(returns),
	}, nil
}

// percentileLinear interpolates between order statistics at rank
// p/100*(n-1).
func percentileLinear(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// AnnualizedVolatility estimates annual volatility from daily log returns,
// falling back to DefaultVolatility for short or degenerate series.
func AnnualizedVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return DefaultVolatility
	}
	rets := make(stats.Float64Data, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	sd, err := stats.StandardDeviationSample(rets)
	if err != nil || sd <= 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return DefaultVolatility
	}
	return sd * math.Sqrt(TradingDays)
}
