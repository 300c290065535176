// Package analysis runs a full risk, sentiment and option pricing pass over
// a set of tickers.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/logger"
	"github.com/contactkeval/quant-risk/internal/news"
	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/risk"
)

// DefaultExpiry is the option tenor in years when none is given.
const DefaultExpiry = 0.5

var ErrInvalidConfig = errors.New("invalid analysis config")

type Engine struct {
	cfg    *Config
	prov   data.Provider
	scorer *news.Scorer
	sim    *pricing.Simulator
	now    func() time.Time
}

// Config struct
type Config struct {
	Tickers      []string      `json:"tickers"`                 // e.g. ["AAPL","TSLA","MSFT"]
	Weights      []float64     `json:"weights,omitempty"`       // parallel to Tickers, defaults to equal weights
	LookbackDays int           `json:"lookback_days,omitempty"` // calendar days of history
	Option       OptionRequest `json:"option"`                  // option priced on the first ticker
	Simulations  int           `json:"simulations,omitempty"`   // Monte Carlo draws
	Seed         uint64        `json:"seed,omitempty"`          // Monte Carlo seed, 0 = pricing.DefaultSeed
	Sentiment    bool          `json:"sentiment,omitempty"`     // score headlines when a scorer is set
}

// OptionRequest describes the option to value. Unset pointers are filled
// from market data.
type OptionRequest struct {
	Kind       string   `json:"kind,omitempty"`       // "call" or "put", defaults to "call"
	Spot       *float64 `json:"spot,omitempty"`       // defaults to the last close
	Strike     *float64 `json:"strike,omitempty"`     // defaults to the spot (ATM)
	Expiry     float64  `json:"expiry,omitempty"`     // years, defaults to DefaultExpiry
	Rate       float64  `json:"rate"`                 // continuously compounded
	Volatility *float64 `json:"volatility,omitempty"` // defaults to historical volatility
}

// TickerStats is per-ticker market context.
type TickerStats struct {
	Ticker     string  `json:"ticker" yaml:"ticker" csv:"ticker"`
	LastClose  float64 `json:"last_close" yaml:"last_close" csv:"last_close"`
	Bars       int     `json:"bars" yaml:"bars" csv:"bars"`
	Weight     float64 `json:"weight" yaml:"weight" csv:"weight"`
	AnnualVol  float64 `json:"annual_vol" yaml:"annual_vol" csv:"annual_vol"`
	MeanReturn float64 `json:"mean_return" yaml:"mean_return" csv:"mean_return"`
}

// Result of one run.
type Result struct {
	RunID     string                `json:"run_id" yaml:"run_id"`
	AsOf      time.Time             `json:"as_of" yaml:"as_of"`
	Provider  string                `json:"provider" yaml:"provider"`
	Tickers   []TickerStats         `json:"tickers" yaml:"tickers"`
	Risk      risk.Metrics          `json:"risk" yaml:"risk"`
	Sentiment []news.SentimentScore `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Valuation *pricing.Valuation    `json:"valuation,omitempty" yaml:"valuation,omitempty"`
}

// NewEngine; scorer may be nil, in which case sentiment is skipped.
func NewEngine(cfg *Config, prov data.Provider, scorer *news.Scorer) *Engine {
	return &Engine{cfg: cfg, prov: prov, scorer: scorer, sim: pricing.NewSimulator(), now: time.Now}
}

// Run executes the analysis.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	cfg, err := e.normalized()
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := logger.WithFields(map[string]any{"run_id": runID})
	log.Infof("analyzing %v with weights %v", cfg.Tickers, cfg.Weights)

	// fetch bars
	asOf := e.now().UTC()
	series, err := data.FetchPrices(ctx, e.prov, cfg.Tickers, data.Lookback(cfg.LookbackDays, asOf))
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}

	// portfolio risk
	rets, err := risk.PortfolioReturns(series, cfg.Tickers, cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("portfolio returns: %w", err)
	}
	metrics, err := risk.Compute(rets)
	if err != nil {
		return nil, fmt.Errorf("risk metrics: %w", err)
	}
	log.Debugf("risk: mean=%.5f vol=%.5f var95=%.5f", metrics.MeanDailyReturn, metrics.Volatility, metrics.VaR95)

	// per-ticker context
	stats := make([]TickerStats, len(cfg.Tickers))
	for i, t := range cfg.Tickers {
		s := series[t]
		last, _ := s.Last()
		closes := s.Closes()
		mean := 0.0
		if r := risk.DailyReturns(closes); len(r) > 0 {
			for _, v := range r {
				mean += v
			}
			mean /= float64(len(r))
		}
		stats[i] = TickerStats{
			Ticker:     t,
			LastClose:  last.Close,
			Bars:       len(s.Bars),
			Weight:     cfg.Weights[i],
			AnnualVol:  risk.AnnualizedVolatility(closes),
			MeanReturn: mean,
		}
		log.Debugf("%s hist vol = %.2f%%", t, stats[i].AnnualVol*100)
	}

	res := &Result{
		RunID:    runID,
		AsOf:     asOf,
		Provider: e.prov.Name(),
		Tickers:  stats,
		Risk:     metrics,
	}

	if cfg.Sentiment && e.scorer != nil {
		res.Sentiment = e.scorer.Score(ctx, cfg.Tickers)
	}

	params, err := optionParams(cfg.Option, stats[0])
	if err != nil {
		return nil, fmt.Errorf("option on %s: %w", stats[0].Ticker, err)
	}
	val, err := e.sim.Value(params, cfg.Simulations, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("pricing %s: %w", stats[0].Ticker, err)
	}
	res.Valuation = &val
	log.Infof("%s %s: analytic=%.4f simulated=%.4f diff=%.4f", stats[0].Ticker, params.Kind,
		val.Analytic.Price, val.Simulation.Price, val.Reconciliation.AbsDiff)

	return res, nil
}

// normalized fills defaults without mutating the engine's config.
func (e *Engine) normalized() (Config, error) {
	cfg := *e.cfg
	if len(cfg.Tickers) == 0 {
		return cfg, fmt.Errorf("no tickers: %w", ErrInvalidConfig)
	}
	tickers := make([]string, len(cfg.Tickers))
	for i, t := range cfg.Tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(t))
		if tickers[i] == "" {
			return cfg, fmt.Errorf("empty ticker at %d: %w", i, ErrInvalidConfig)
		}
	}
	cfg.Tickers = tickers

	if len(cfg.Weights) == 0 {
		cfg.Weights = make([]float64, len(tickers))
		for i := range cfg.Weights {
			cfg.Weights[i] = 1 / float64(len(tickers))
		}
	}
	if len(cfg.Weights) != len(tickers) {
		return cfg, fmt.Errorf("%d tickers, %d weights: %w", len(tickers), len(cfg.Weights), risk.ErrWeightsMismatch)
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.Simulations == 0 {
		cfg.Simulations = pricing.DefaultSimulations
	}
	if cfg.Seed == 0 {
		cfg.Seed = pricing.DefaultSeed
	}
	if cfg.Option.Expiry == 0 {
		cfg.Option.Expiry = DefaultExpiry
	}
	return cfg, nil
}

func optionParams(req OptionRequest, ts TickerStats) (pricing.OptionParameters, error) {
	kind := pricing.Call
	if req.Kind != "" {
		k, err := pricing.ParseOptionKind(req.Kind)
		if err != nil {
			return pricing.OptionParameters{}, err
		}
		kind = k
	}
	spot := ts.LastClose
	if req.Spot != nil {
		spot = *req.Spot
	}
	strike := spot
	if req.Strike != nil {
		strike = *req.Strike
	}
	vol := ts.AnnualVol
	if req.Volatility != nil {
		vol = *req.Volatility
	}
	return pricing.NewOptionParameters(spot, strike, req.Expiry, req.Rate, vol, kind)
}
