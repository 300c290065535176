package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactkeval/quant-risk/internal/config"
	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/logger"
	"github.com/contactkeval/quant-risk/internal/news"
)

// app carries state resolved once in the root command's pre-run.
type app struct {
	configPath string
	envFile    string
	verbosity  int
	output     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "quantrisk",
		Short:         "Portfolio risk, sentiment and option pricing analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath, a.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verbosity") {
				cfg.Verbosity = a.verbosity
			}
			logger.SetVerbosity(cfg.Verbosity)
			if a.output != "table" && a.output != "json" {
				return fmt.Errorf("unknown output format %q", a.output)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().IntVarP(&a.verbosity, "verbosity", "v", 1, "0=errors,1=info,2=debug,3=trace")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newPriceCmd(a),
		newSimulateCmd(a),
		newRiskCmd(a),
		newSentimentCmd(a),
		newPortfolioCmd(a),
		newAnalyzeCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) provider() (data.Provider, error) {
	return data.FromConfig(a.cfg)
}

// scorer returns nil when no GNews key is configured.
func (a *app) scorer() *news.Scorer {
	if a.cfg.GNews.APIKey == "" {
		return nil
	}
	return news.NewScorer(news.NewClient(a.cfg.GNews.BaseURL, a.cfg.GNews.APIKey, a.cfg.GNews.MaxArticles))
}

// emit writes v as JSON when --output=json, otherwise calls table.
func (a *app) emit(w io.Writer, v any, table func(io.Writer)) error {
	if a.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table(w)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
