package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contactkeval/quant-risk/internal/portfolio"
	"github.com/contactkeval/quant-risk/internal/report"
)

func newPortfolioCmd(a *app) *cobra.Command {
	var (
		req    portfolio.Request
		strat  string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Generate a return-weighted allocation from the configured pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := portfolio.ParseStrategy(strat)
			if err != nil {
				return err
			}
			req.Strategy = s
			prov, err := a.provider()
			if err != nil {
				return err
			}
			plan, err := portfolio.NewGenerator(a.cfg.Pools, prov, a.cfg.LookbackDays).Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := report.WritePlanCSV(plan, outDir); err != nil {
					return err
				}
			}
			return a.emit(cmd.OutOrStdout(), plan, func(w io.Writer) { report.RenderPortfolio(w, plan) })
		},
	}
	cmd.Flags().Float64Var(&req.Investment, "investment", 10000, "amount to allocate")
	cmd.Flags().StringVar(&strat, "strategy", string(portfolio.Balanced), "stability, balanced or growth")
	cmd.Flags().IntVar(&req.NumStocks, "num-stocks", 5, "number of tickers to hold")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 42, "selection seed")
	cmd.Flags().StringVar(&outDir, "out", "", "also write allocations.csv to this directory")
	return cmd
}

func normalize(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
