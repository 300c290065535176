package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/report"
)

type optionFlags struct {
	spot, strike, expiry, rate, vol float64
	kind                            string
}

func (f *optionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.spot, "spot", 100, "underlying price S")
	cmd.Flags().Float64Var(&f.strike, "strike", 105, "strike price K")
	cmd.Flags().Float64Var(&f.expiry, "expiry", 0.5, "time to maturity in years")
	cmd.Flags().Float64Var(&f.rate, "rate", 0.05, "continuously compounded risk-free rate")
	cmd.Flags().Float64Var(&f.vol, "vol", 0.2, "annualized volatility")
	cmd.Flags().StringVar(&f.kind, "kind", "call", "call or put")
}

func (f *optionFlags) params() (pricing.OptionParameters, error) {
	kind, err := pricing.ParseOptionKind(f.kind)
	if err != nil {
		return pricing.OptionParameters{}, err
	}
	return pricing.NewOptionParameters(f.spot, f.strike, f.expiry, f.rate, f.vol, kind)
}

func newPriceCmd(a *app) *cobra.Command {
	var f optionFlags
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option with Black-Scholes",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			res, err := pricing.PriceAnalytic(p)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "Black-Scholes %s price: $%.4f (d1=%.6f, d2=%.6f)\n", res.Kind, res.Price, res.D1, res.D2)
				report.RenderGreeks(w, res.Greeks)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		f         optionFlags
		n         int
		seed      uint64
		workers   int
		histogram string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Price by Monte Carlo and reconcile with Black-Scholes",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("simulations") {
				n = a.cfg.Simulations
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Seed
			}
			sim := &pricing.Simulator{Workers: workers}
			val, err := sim.Value(p, n, seed)
			if err != nil {
				return err
			}
			if histogram != "" {
				if err := report.WriteHistogram(val.Simulation.Terminal, p.Strike, histogram); err != nil {
					return fmt.Errorf("writing histogram: %w", err)
				}
			}
			val.Simulation.Terminal = nil
			return a.emit(cmd.OutOrStdout(), val, func(w io.Writer) { report.RenderPricing(w, val) })
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&n, "simulations", "n", pricing.DefaultSimulations, "number of simulated paths")
	cmd.Flags().Uint64Var(&seed, "seed", pricing.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers, 0 = GOMAXPROCS")
	cmd.Flags().StringVar(&histogram, "histogram", "", "write a terminal price histogram PNG to this path")
	return cmd
}
