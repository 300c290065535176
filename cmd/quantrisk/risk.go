package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/report"
	"github.com/contactkeval/quant-risk/internal/risk"
)

func newRiskCmd(a *app) *cobra.Command {
	var (
		tickers  []string
		weights  []float64
		lookback int
	)
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Historical risk metrics of a weighted portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers = normalize(tickers)
			if len(weights) == 0 {
				for range tickers {
					weights = append(weights, 1/float64(len(tickers)))
				}
			}
			if lookback <= 0 {
				lookback = a.cfg.LookbackDays
			}
			prov, err := a.provider()
			if err != nil {
				return err
			}
			if len(tickers) != len(weights) {
				return fmt.Errorf("%d tickers, %d weights: %w", len(tickers), len(weights), risk.ErrWeightsMismatch)
			}
			series, err := data.FetchPrices(cmd.Context(), prov, tickers, data.Lookback(lookback, time.Now()))
			if err != nil {
				return err
			}
			rets, err := risk.PortfolioReturns(series, tickers, weights)
			if err != nil {
				return err
			}
			m, err := risk.Compute(rets)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), m, func(w io.Writer) { report.RenderRisk(w, m) })
		},
	}
	cmd.Flags().StringSliceVarP(&tickers, "tickers", "t", []string{"AAPL", "TSLA", "MSFT"}, "comma-separated tickers")
	cmd.Flags().Float64SliceVarP(&weights, "weights", "w", nil, "comma-separated weights, default equal")
	cmd.Flags().IntVar(&lookback, "lookback", 0, "calendar days of history, default from config")
	return cmd
}

func newSentimentCmd(a *app) *cobra.Command {
	var tickers []string
	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Average VADER sentiment of recent headlines per ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			scorer := a.scorer()
			if scorer == nil {
				return errors.New("no GNews API key configured (set GNEWS_API_KEY)")
			}
			scores := scorer.Score(cmd.Context(), normalize(tickers))
			return a.emit(cmd.OutOrStdout(), scores, func(w io.Writer) { report.RenderSentiment(w, scores) })
		},
	}
	cmd.Flags().StringSliceVarP(&tickers, "tickers", "t", []string{"AAPL", "TSLA", "MSFT"}, "comma-separated tickers")
	return cmd
}
