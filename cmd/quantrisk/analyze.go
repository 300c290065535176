package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/quant-risk/internal/analysis"
	"github.com/contactkeval/quant-risk/internal/logger"
	"github.com/contactkeval/quant-risk/internal/report"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		cfg       analysis.Config
		kind      string
		strike    float64
		vol       float64
		outDir    string
		noReports bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Risk, sentiment and option pricing in one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			cfg.Option.Kind = kind
			if cmd.Flags().Changed("strike") {
				cfg.Option.Strike = &strike
			}
			if cmd.Flags().Changed("vol") {
				cfg.Option.Volatility = &vol
			}
			if !cmd.Flags().Changed("rate") {
				cfg.Option.Rate = a.cfg.RiskFreeRate
			}
			if cfg.LookbackDays == 0 {
				cfg.LookbackDays = a.cfg.LookbackDays
			}
			if cfg.Simulations == 0 {
				cfg.Simulations = a.cfg.Simulations
			}
			if cfg.Seed == 0 {
				cfg.Seed = a.cfg.Seed
			}

			prov, err := a.provider()
			if err != nil {
				return err
			}
			scorer := a.scorer()
			if cfg.Sentiment && scorer == nil {
				logger.Warnf("sentiment requested but no GNews API key configured, skipping")
			}

			res, err := analysis.NewEngine(&cfg, prov, scorer).Run(cmd.Context())
			if err != nil {
				return err
			}
			if !noReports {
				if outDir == "" {
					outDir = a.cfg.Report.Dir
				}
				if err := report.WriteAll(res, outDir); err != nil {
					return err
				}
				logger.Infof("[done] finished in %v, wrote reports to %s", time.Since(start), outDir)
			}
			if res.Valuation != nil {
				res.Valuation.Simulation.Terminal = nil
			}
			return a.emit(cmd.OutOrStdout(), res, func(w io.Writer) { report.RenderAnalysis(w, res) })
		},
	}
	cmd.Flags().StringSliceVarP(&cfg.Tickers, "tickers", "t", []string{"AAPL", "TSLA", "MSFT"}, "comma-separated tickers, the first is priced")
	cmd.Flags().Float64SliceVarP(&cfg.Weights, "weights", "w", nil, "comma-separated weights, default equal")
	cmd.Flags().IntVar(&cfg.LookbackDays, "lookback", 0, "calendar days of history, default from config")
	cmd.Flags().StringVar(&kind, "kind", "call", "call or put")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike, default at the money")
	cmd.Flags().Float64Var(&cfg.Option.Expiry, "expiry", analysis.DefaultExpiry, "time to maturity in years")
	cmd.Flags().Float64Var(&cfg.Option.Rate, "rate", 0, "risk-free rate, default from config")
	cmd.Flags().Float64Var(&vol, "vol", 0, "volatility, default historical")
	cmd.Flags().IntVarP(&cfg.Simulations, "simulations", "n", 0, "Monte Carlo paths, default from config")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "Monte Carlo seed, default from config")
	cmd.Flags().BoolVar(&cfg.Sentiment, "sentiment", true, "score headlines when a GNews key is configured")
	cmd.Flags().StringVar(&outDir, "out", "", "report directory, default from config")
	cmd.Flags().BoolVar(&noReports, "no-reports", false, "skip writing report files")
	return cmd
}
