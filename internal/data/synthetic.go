package data

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// synthDataProvider generates reproducible geometric Brownian motion bars.
// The same seed and ticker always produce the same path, so offline runs and
// tests are repeatable.
type synthDataProvider struct {
	seed uint64
}

func NewSyntheticProvider(seed uint64) *synthDataProvider {
	return &synthDataProvider{seed: seed}
}

func (s *synthDataProvider) Name() string { return "synthetic" }

func (s *synthDataProvider) Secondary() Provider { return nil }

func (s *synthDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker = strings.ToUpper(ticker)
	src := rand.NewSource(s.seed ^ tickerHash(ticker))
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	rng := rand.New(src)

	// per-ticker drift and volatility so the pool tiers differ
	mu := 0.0002 + 0.0006*rng.Float64()
	sigma := 0.008 + 0.025*rng.Float64()
	price := 20 + 480*rng.Float64()

	cur := fromDate.UTC().Truncate(24 * time.Hour)
	end := toDate.UTC().Truncate(24 * time.Hour)
	var out []Bar
	for !cur.After(end) {
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			open := price
			close := open * math.Exp(mu-0.5*sigma*sigma+sigma*norm.Rand())
			wick := math.Abs(norm.Rand()) * sigma * 0.5 * open
			out = append(out, Bar{
				Date:   cur,
				Open:   open,
				High:   math.Max(open, close) + wick,
				Low:    math.Max(math.Min(open, close)-wick, 0.01),
				Close:  close,
				Volume: float64(100000 + rng.Intn(900000)),
			})
			price = close
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return out, nil
}

func tickerHash(ticker string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return h.Sum64()
}
