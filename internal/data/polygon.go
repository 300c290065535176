package data

import (
	"context"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// polygonDataProvider implements Provider using the Polygon.io REST SDK.
// Polygon keys issued before the Massive rebrand keep working here.
type polygonDataProvider struct {
	client *polygon.Client
}

func NewPolygonDataProvider(apiKey string) *polygonDataProvider {
	logger.Infof("initializing Polygon data provider")
	return newPolygonDataProvider(apiKey, newHTTPClient())
}

func newPolygonDataProvider(apiKey string, hc *http.Client) *polygonDataProvider {
	return &polygonDataProvider{client: polygon.NewWithClient(apiKey, hc)}
}

func (p *polygonDataProvider) Name() string { return "polygon" }

func (p *polygonDataProvider) Secondary() Provider { return nil }

func (p *polygonDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	logger.Debugf("fetching polygon bars: %s from=%s to=%s", ticker, fromDate.Format(time.DateOnly), toDate.Format(time.DateOnly))

	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(fromDate),
		To:         models.Millis(toDate),
	}.WithOrder(models.Asc).WithAdjusted(true)
	limit := maxAggsLimit
	params.Limit = &limit

	iter := p.client.ListAggs(ctx, params)
	var bars []Bar
	for iter.Next() {
		a := iter.Item()
		bars = append(bars, aggBar(time.Time(a.Timestamp), a.Open, a.High, a.Low, a.Close, a.Volume))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", ticker, err)
	}
	return bars, nil
}
