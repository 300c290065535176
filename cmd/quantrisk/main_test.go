package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/quant-risk/internal/analysis"
	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/risk"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("QUANTRISK_PROVIDER", "synthetic")
	t.Setenv("GNEWS_API_KEY", "")
	t.Setenv("QUANTRISK_GNEWS_API_KEY", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--verbosity", "0"))
	err := root.Execute()
	return out.String(), err
}

func TestPriceCommand(t *testing.T) {
	out, err := run(t, "price", "--kind", "put", "-o", "json")
	require.NoError(t, err)

	var res pricing.PricingResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 6.98922, res.Price, 1e-4)

	out, err = run(t, "price")
	require.NoError(t, err)
	assert.Contains(t, out, "Black-Scholes call price: $4.5817")
}

func TestPriceCommandInvalid(t *testing.T) {
	_, err := run(t, "price", "--vol", "0")
	assert.ErrorIs(t, err, pricing.ErrInvalidParameters)

	_, err = run(t, "price", "--kind", "straddle")
	assert.ErrorIs(t, err, pricing.ErrInvalidOptionKind)

	_, err = run(t, "price", "-o", "xml")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	png := filepath.Join(t.TempDir(), "hist.png")
	out, err := run(t, "simulate", "-n", "10000", "--seed", "42", "--histogram", png, "-o", "json")
	require.NoError(t, err)

	var val pricing.Valuation
	require.NoError(t, json.Unmarshal([]byte(out), &val))
	assert.InDelta(t, val.Analytic.Price, val.Simulation.Price, 0.3)
	assert.Nil(t, val.Simulation.Terminal)

	_, err = os.Stat(png)
	assert.NoError(t, err)
}

func TestRiskCommand(t *testing.T) {
	out, err := run(t, "risk", "-t", "aapl,tsla,msft", "-w", "0.3,0.5,0.2", "-o", "json")
	require.NoError(t, err)
	var m risk.Metrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Greater(t, m.Observations, 30)

	_, err = run(t, "risk", "-t", "aapl,tsla", "-w", "1")
	assert.ErrorIs(t, err, risk.ErrWeightsMismatch)
}

func TestSentimentCommandNeedsKey(t *testing.T) {
	_, err := run(t, "sentiment")
	assert.ErrorContains(t, err, "GNews")
}

func TestPortfolioCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "portfolio", "--strategy", "growth", "--num-stocks", "3", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Expected Annual Return")

	_, err = os.Stat(filepath.Join(dir, "allocations.csv"))
	assert.NoError(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "analyze", "-t", "AAPL,MSFT", "-n", "2000", "--out", dir, "-o", "json")
	require.NoError(t, err)

	var res analysis.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Valuation)
	assert.Equal(t, 0.05, res.Valuation.Params.Rate)
	assert.Equal(t, "AAPL", res.Tickers[0].Ticker)
	assert.Empty(t, res.Sentiment)

	for _, f := range []string{"analysis.json", "analysis.yaml", "tickers.csv", "terminal.png"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
}
