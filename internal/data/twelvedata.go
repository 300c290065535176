package data

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// twelveDataProvider implements Provider using the Twelve Data time_series
// endpoint.
type twelveDataProvider struct {
	apiKey string
	client *resty.Client
}

// twelveDataResp models both the success and the error payload; Twelve Data
// reports errors with HTTP 200 and status "error".
type twelveDataResp struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

// NewTwelveDataProvider builds a provider against baseURL
// (https://api.twelvedata.com in production).
func NewTwelveDataProvider(baseURL, apiKey string) *twelveDataProvider {
	logger.Infof("initializing Twelve Data provider")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() == http.StatusTooManyRequests
		})
	return &twelveDataProvider{apiKey: apiKey, client: client}
}

func (td *twelveDataProvider) Name() string { return "twelvedata" }

func (td *twelveDataProvider) Secondary() Provider { return nil }

func (td *twelveDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	logger.Debugf("fetching twelvedata bars: %s from=%s to=%s", ticker, fromDate.Format(time.DateOnly), toDate.Format(time.DateOnly))

	var body twelveDataResp
	resp, err := td.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     ticker,
			"interval":   "1day",
			"start_date": fromDate.Format(time.DateOnly),
			"end_date":   toDate.Format(time.DateOnly),
			"outputsize": "5000",
			"apikey":     td.apiKey,
		}).
		SetResult(&body).
		SetError(&body).
		Get("/time_series")
	if err != nil {
		return nil, fmt.Errorf("twelvedata request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("twelvedata status=%d message=%s", resp.StatusCode(), body.Message)
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata error code=%d message=%s", body.Code, body.Message)
	}

	bars := make([]Bar, 0, len(body.Values))
	for _, v := range body.Values {
		date, err := time.Parse(time.DateOnly, v.Datetime)
		if err != nil {
			continue // intraday or malformed timestamps
		}
		closePx, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{
			Date:   date,
			Open:   parseFloatOr(v.Open, closePx),
			High:   parseFloatOr(v.High, closePx),
			Low:    parseFloatOr(v.Low, closePx),
			Close:  closePx,
			Volume: parseFloatOr(v.Volume, 0),
		})
	}
	// Twelve Data returns newest first; FetchPrices sorts via cleanBars
	return bars, nil
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
