// Package report writes analysis results to files and renders them as
// terminal tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/quant-risk/internal/analysis"
	"github.com/contactkeval/quant-risk/internal/news"
	"github.com/contactkeval/quant-risk/internal/portfolio"
)

// WriteAll writes every report for res into outdir, creating it if needed.
func WriteAll(res *analysis.Result, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	if err := WriteJSON(res, outdir); err != nil {
		return err
	}
	if err := WriteYAML(res, outdir); err != nil {
		return err
	}
	if err := WriteCSV(res, outdir); err != nil {
		return err
	}
	if res.Valuation != nil && len(res.Valuation.Simulation.Terminal) > 0 {
		return WriteHistogram(res.Valuation.Simulation.Terminal, res.Valuation.Params.Strike, filepath.Join(outdir, "terminal.png"))
	}
	return nil
}

// WriteJSON writes res to analysis.json, including the terminal sample.
func WriteJSON(res *analysis.Result, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "analysis.json"), b, 0644)
}

// WriteYAML writes res to analysis.yaml.
func WriteYAML(res *analysis.Result, outdir string) error {
	b, err := yaml.Marshal(res)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "analysis.yaml"), b, 0644)
}

// WriteCSV writes tickers.csv and, when scored, sentiment.csv.
func WriteCSV(res *analysis.Result, outdir string) error {
	if err := marshalCSV(filepath.Join(outdir, "tickers.csv"), res.Tickers); err != nil {
		return err
	}
	if len(res.Sentiment) == 0 {
		return nil
	}
	return marshalCSV(filepath.Join(outdir, "sentiment.csv"), sentimentRows(res.Sentiment))
}

// WritePlanCSV writes the allocations of plan to allocations.csv.
func WritePlanCSV(plan *portfolio.Plan, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	return marshalCSV(filepath.Join(outdir, "allocations.csv"), allocationRows(plan.Allocations))
}

type sentimentRow struct {
	Ticker    string `csv:"ticker"`
	Score     string `csv:"score"`
	Headlines int    `csv:"headlines"`
	Status    string `csv:"status"`
	Error     string `csv:"error"`
}

type allocationRow struct {
	Ticker              string  `csv:"ticker"`
	ExpectedDailyReturn float64 `csv:"expected_daily_return"`
	Volatility          float64 `csv:"volatility"`
	Weight              float64 `csv:"weight"`
	Amount              string  `csv:"amount"`
}

func sentimentRows(scores []news.SentimentScore) []sentimentRow {
	rows := make([]sentimentRow, len(scores))
	for i, s := range scores {
		rows[i] = sentimentRow{Ticker: s.Ticker, Score: scoreText(s), Headlines: s.Headlines, Status: string(s.Status), Error: s.Error}
	}
	return rows
}

func allocationRows(allocs []portfolio.Allocation) []allocationRow {
	rows := make([]allocationRow, len(allocs))
	for i, a := range allocs {
		rows[i] = allocationRow{
			Ticker:              a.Ticker,
			ExpectedDailyReturn: a.ExpectedDailyReturn,
			Volatility:          a.Volatility,
			Weight:              a.Weight,
			Amount:              a.Amount.StringFixed(2),
		}
	}
	return rows
}

func scoreText(s news.SentimentScore) string {
	if s.Score == nil {
		return ""
	}
	return strconv.FormatFloat(*s.Score, 'f', 3, 64)
}

func marshalCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
