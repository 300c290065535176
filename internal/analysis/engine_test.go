package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/news"
	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/risk"
)

type headlines map[string][]string

func (h headlines) Headlines(_ context.Context, ticker string) ([]string, error) {
	return h[ticker], nil
}

func newTestEngine(cfg *Config, scorer *news.Scorer) *Engine {
	e := NewEngine(cfg, data.NewSyntheticProvider(7), scorer)
	e.now = func() time.Time { return time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestRunDefaults(t *testing.T) {
	e := newTestEngine(&Config{Tickers: []string{"aapl", "tsla", "msft"}}, nil)

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "synthetic", res.Provider)
	require.Len(t, res.Tickers, 3)
	assert.Equal(t, "AAPL", res.Tickers[0].Ticker)
	assert.InDelta(t, 1.0/3, res.Tickers[1].Weight, 1e-12)
	assert.Greater(t, res.Risk.Observations, 30)
	assert.Nil(t, res.Sentiment)

	require.NotNil(t, res.Valuation)
	v := res.Valuation
	assert.Equal(t, pricing.Call, v.Params.Kind)
	assert.Equal(t, res.Tickers[0].LastClose, v.Params.Spot)
	assert.Equal(t, v.Params.Spot, v.Params.Strike)
	assert.Equal(t, res.Tickers[0].AnnualVol, v.Params.Volatility)
	assert.Equal(t, DefaultExpiry, v.Params.Expiry)
	assert.Equal(t, pricing.DefaultSimulations, v.Simulation.Simulations)
	assert.Equal(t, pricing.DefaultSeed, v.Simulation.Seed)
}

func TestRunDeterministic(t *testing.T) {
	cfg := &Config{Tickers: []string{"AAPL", "MSFT"}, Weights: []float64{0.7, 0.3}, Simulations: 2000, Seed: 9}
	a, err := newTestEngine(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	b, err := newTestEngine(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Risk, b.Risk)
	assert.Equal(t, a.Valuation.Simulation.Price, b.Valuation.Simulation.Price)
}

func TestRunOptionOverrides(t *testing.T) {
	spot, strike, vol := 100.0, 105.0, 0.2
	cfg := &Config{
		Tickers: []string{"AAPL"},
		Option:  OptionRequest{Kind: "put", Spot: &spot, Strike: &strike, Volatility: &vol, Expiry: 0.5, Rate: 0.05},
	}
	res, err := newTestEngine(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6.98922, res.Valuation.Analytic.Price, 1e-4)
}

func TestRunSentiment(t *testing.T) {
	scorer := news.NewScorer(headlines{"AAPL": {"Apple posts great results"}})
	res, err := newTestEngine(&Config{Tickers: []string{"AAPL", "MSFT"}, Sentiment: true}, scorer).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Sentiment, 2)
	assert.Equal(t, news.StatusOK, res.Sentiment[0].Status)
	assert.Equal(t, news.StatusNoData, res.Sentiment[1].Status)
}

func TestRunErrors(t *testing.T) {
	_, err := newTestEngine(&Config{}, nil).Run(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = newTestEngine(&Config{Tickers: []string{"A", "B"}, Weights: []float64{1}}, nil).Run(context.Background())
	assert.ErrorIs(t, err, risk.ErrWeightsMismatch)

	_, err = newTestEngine(&Config{Tickers: []string{"A"}, Option: OptionRequest{Kind: "straddle"}}, nil).Run(context.Background())
	assert.ErrorIs(t, err, pricing.ErrInvalidOptionKind)

	neg := -1.0
	_, err = newTestEngine(&Config{Tickers: []string{"A"}, Option: OptionRequest{Volatility: &neg}}, nil).Run(context.Background())
	assert.ErrorIs(t, err, pricing.ErrInvalidParameters)
}
