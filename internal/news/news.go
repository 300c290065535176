// Package news fetches recent headlines per ticker and scores their
// sentiment.
package news

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonreiter/govader"
	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// HeadlineSource returns recent headlines mentioning a ticker.
type HeadlineSource interface {
	Headlines(ctx context.Context, ticker string) ([]string, error)
}

// Client queries the GNews search API.
type Client struct {
	apiKey string
	max    int
	http   *resty.Client
}

type searchResp struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title string `json:"title"`
	} `json:"articles"`
	Errors []string `json:"errors"`
}

// NewClient builds a GNews client; baseURL is normally
// https://gnews.io/api/v4.
func NewClient(baseURL, apiKey string, maxArticles int) *Client {
	if maxArticles <= 0 {
		maxArticles = 5
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() == http.StatusTooManyRequests
		})
	return &Client{apiKey: apiKey, max: maxArticles, http: rc}
}

func (c *Client) Headlines(ctx context.Context, ticker string) ([]string, error) {
	var body searchResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     ticker + " stock",
			"lang":  "en",
			"max":   strconv.Itoa(c.max),
			"token": c.apiKey,
		}).
		SetResult(&body).
		SetError(&body).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("gnews request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gnews status=%d errors=%v", resp.StatusCode(), body.Errors)
	}

	titles := make([]string, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles, nil
}

type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
	StatusError  Status = "error"
)

// SentimentScore is the mean VADER compound score of a ticker's headlines.
// Score is nil unless Status is ok.
type SentimentScore struct {
	Ticker    string   `json:"ticker" yaml:"ticker" csv:"ticker"`
	Score     *float64 `json:"score" yaml:"score" csv:"score"`
	Headlines int      `json:"headlines" yaml:"headlines" csv:"headlines"`
	Status    Status   `json:"status" yaml:"status" csv:"status"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty" csv:"error"`
}

type Scorer struct {
	src      HeadlineSource
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewScorer(src HeadlineSource) *Scorer {
	return &Scorer{src: src, analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound scores one piece of text in [-1, 1].
func (s *Scorer) Compound(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}

// Score returns one result per ticker, in input order. A failing ticker
// does not affect the others.
func (s *Scorer) Score(ctx context.Context, tickers []string) []SentimentScore {
	out := make([]SentimentScore, len(tickers))
	var g errgroup.Group
	g.SetLimit(4)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			out[i] = s.scoreOne(ctx, ticker)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Scorer) scoreOne(ctx context.Context, ticker string) SentimentScore {
	titles, err := s.src.Headlines(ctx, ticker)
	if err != nil {
		logger.Warnf("sentiment for %s: %v", ticker, err)
		return SentimentScore{Ticker: ticker, Status: StatusError, Error: err.Error()}
	}
	if len(titles) == 0 {
		return SentimentScore{Ticker: ticker, Status: StatusNoData}
	}
	sum := 0.0
	for _, t := range titles {
		sum += s.Compound(t)
	}
	score := math.Round(sum/float64(len(titles))*1000) / 1000
	return SentimentScore{Ticker: ticker, Score: &score, Headlines: len(titles), Status: StatusOK}
}
