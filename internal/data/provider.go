package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// ErrNoData is returned when no provider in a chain has usable bars.
var ErrNoData = errors.New("no data")

// Provider supplies daily market data.
type Provider interface {
	Name() string
	Secondary() Provider
	GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error)
}

// Bar simplified OHLC
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a ticker's bars in ascending date order.
type PriceSeries struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// Closes returns the close prices in date order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, 0, len(s.Bars))
	for _, b := range s.Bars {
		out = append(out, b.Close)
	}
	return out
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Window is an inclusive date range.
type Window struct {
	From time.Time
	To   time.Time
}

// Lookback returns the window of the given number of calendar days ending
// at asOf.
func Lookback(days int, asOf time.Time) Window {
	to := asOf.UTC().Truncate(24 * time.Hour)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// WithSecondary makes secondary the fallback of primary.
func WithSecondary(primary, secondary Provider) Provider {
	if secondary == nil {
		return primary
	}
	return &chainedProvider{Provider: primary, secondary: secondary}
}

type chainedProvider struct {
	Provider
	secondary Provider
}

func (c *chainedProvider) Secondary() Provider { return c.secondary }

// FetchPrices fetches every ticker concurrently, walking each provider's
// secondary chain on failure. It fails if any ticker has no usable data.
func FetchPrices(ctx context.Context, prov Provider, tickers []string, w Window) (map[string]PriceSeries, error) {
	out := make(map[string]PriceSeries, len(tickers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(ticker))
		g.Go(func() error {
			bars, err := fetchWithFallback(ctx, prov, ticker, w)
			if err != nil {
				return err
			}
			mu.Lock()
			out[ticker] = PriceSeries{Ticker: ticker, Bars: bars}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAvailable is FetchPrices that skips tickers without data. It returns
// ErrNoData only if no ticker could be fetched.
func FetchAvailable(ctx context.Context, prov Provider, tickers []string, w Window) (map[string]PriceSeries, error) {
	out := make(map[string]PriceSeries, len(tickers))
	var mu sync.Mutex

	var g errgroup.Group
	for _, ticker := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(ticker))
		g.Go(func() error {
			bars, err := fetchWithFallback(ctx, prov, ticker, w)
			if err != nil {
				logger.Warnf("skipping %s: %v", ticker, err)
				return nil
			}
			mu.Lock()
			out[ticker] = PriceSeries{Ticker: ticker, Bars: bars}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(out) == 0 {
		return nil, fmt.Errorf("could not fetch data for any of %v: %w", tickers, ErrNoData)
	}
	return out, nil
}

func fetchWithFallback(ctx context.Context, prov Provider, ticker string, w Window) ([]Bar, error) {
	var lastErr error
	for p := prov; p != nil; p = p.Secondary() {
		bars, err := p.GetDailyBars(ctx, ticker, w.From, w.To)
		if err != nil {
			logger.Debugf("%s provider failed for %s: %v", p.Name(), ticker, err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		bars = cleanBars(bars)
		if len(bars) > 0 {
			logger.Tracef("%s provider returned %d bars for %s", p.Name(), len(bars), ticker)
			return bars, nil
		}
		logger.Debugf("%s provider returned no bars for %s", p.Name(), ticker)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s: %w (last error: %v)", ticker, ErrNoData, lastErr)
	}
	return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
}

// cleanBars drops bars whose close is unusable and sorts by date, so that
// nothing downstream ever sees a NaN or zero close.
func cleanBars(bars []Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
