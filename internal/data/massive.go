package data

import (
	"context"
	"fmt"
	"net/http"
	"time"

	massive "github.com/massive-com/client-go/v2/rest"
	massivemodels "github.com/massive-com/client-go/v2/rest/models"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// maxAggsLimit is the largest page the aggregates endpoint accepts.
const maxAggsLimit = 50000

// massiveDataProvider implements Provider using the Massive REST SDK.
type massiveDataProvider struct {
	client *massive.Client
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
//
// The HTTP client uses the same timeouts and pooling as the other REST
// providers.
func NewMassiveDataProvider(apiKey string) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")
	return newMassiveDataProvider(apiKey, newHTTPClient())
}

func newMassiveDataProvider(apiKey string, hc *http.Client) *massiveDataProvider {
	return &massiveDataProvider{client: massive.NewWithClient(apiKey, hc)}
}

func (m *massiveDataProvider) Name() string { return "massive" }

func (m *massiveDataProvider) Secondary() Provider { return nil }

// GetDailyBars retrieves adjusted daily bars in ascending order.
func (m *massiveDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	logger.Debugf("fetching massive bars: %s from=%s to=%s", ticker, fromDate.Format(time.DateOnly), toDate.Format(time.DateOnly))

	params := &massivemodels.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   massivemodels.Day,
		From:       massivemodels.Millis(fromDate),
		To:         massivemodels.Millis(toDate),
	}
	limit := maxAggsLimit
	asc := massivemodels.Asc
	adj := true
	params.Limit = &limit
	params.Order = &asc
	params.Adjusted = &adj

	iter := m.client.ListAggs(ctx, params)
	var bars []Bar
	for iter.Next() {
		a := iter.Item()
		bars = append(bars, aggBar(time.Time(a.Timestamp), a.Open, a.High, a.Low, a.Close, a.Volume))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("massive aggs %s: %w", ticker, err)
	}
	return bars, nil
}

// aggBar converts one aggregate from either REST SDK.
func aggBar(ts time.Time, open, high, low, close, volume float64) Bar {
	return Bar{
		Date:   ts.UTC().Truncate(24 * time.Hour),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}
