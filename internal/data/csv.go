package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/quant-risk/internal/logger"
)

// csvBarRow is one line of <TICKER>.csv.
type csvBarRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// localCSVDataProvider reads daily bars from <dir>/<TICKER>.csv.
type localCSVDataProvider struct {
	dir string
}

func NewLocalCSVDataProvider(dir string) *localCSVDataProvider {
	return &localCSVDataProvider{dir: dir}
}

func (l *localCSVDataProvider) Name() string { return "csv" }

func (l *localCSVDataProvider) Secondary() Provider { return nil }

func (l *localCSVDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(l.dir, strings.ToUpper(ticker)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoData)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*csvBarRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	from := fromDate.UTC().Truncate(24 * time.Hour)
	to := toDate.UTC().Truncate(24 * time.Hour)
	bars := make([]Bar, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
		if err != nil {
			logger.Tracef("%s: skipping row with bad date %q", path, r.Date)
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		bars = append(bars, Bar{Date: date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	return bars, nil
}
