package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/contactkeval/quant-risk/internal/analysis"
	"github.com/contactkeval/quant-risk/internal/news"
	"github.com/contactkeval/quant-risk/internal/portfolio"
	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/risk"
)

var p = message.NewPrinter(language.English)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func money(v float64) string { return "$" + p.Sprintf("%.2f", v) }
func pct(v float64) string   { return p.Sprintf("%.2f%%", v*100) }
func num(v float64) string   { return p.Sprintf("%.4f", v) }

// RenderPricing prints both prices, the Greeks and the reconciliation.
func RenderPricing(w io.Writer, v pricing.Valuation) {
	params := newTable(w, "Spot", "Strike", "Expiry (y)", "Rate", "Volatility", "Kind")
	params.Append([]string{money(v.Params.Spot), money(v.Params.Strike), num(v.Params.Expiry), pct(v.Params.Rate), pct(v.Params.Volatility), string(v.Params.Kind)})
	params.Render()

	prices := newTable(w, "Pricer", "Price", "Std Error", "d1", "d2")
	prices.Append([]string{"Black-Scholes", money(v.Analytic.Price), "", num(v.Analytic.D1), num(v.Analytic.D2)})
	prices.Append([]string{
		fmt.Sprintf("Monte Carlo (n=%s, seed=%d)", p.Sprintf("%d", v.Simulation.Simulations), v.Simulation.Seed),
		money(v.Simulation.Price), num(v.Simulation.StdError), "", "",
	})
	prices.SetFooter([]string{"Difference", p.Sprintf("$%.4f", v.Reconciliation.AbsDiff), p.Sprintf("%.2f SE", v.Reconciliation.StdErrors), "", ""})
	prices.Render()

	RenderGreeks(w, v.Analytic.Greeks)
}

func RenderGreeks(w io.Writer, g pricing.Greeks) {
	table := newTable(w, "Delta", "Gamma", "Vega", "Theta", "Rho")
	table.Append([]string{num(g.Delta), num(g.Gamma), num(g.Vega), num(g.Theta), num(g.Rho)})
	table.Render()
}

func RenderRisk(w io.Writer, m risk.Metrics) {
	table := newTable(w, "Metric", "Value")
	table.AppendBulk([][]string{
		{"Mean Daily Return", p.Sprintf("%.5f", m.MeanDailyReturn)},
		{"Volatility", p.Sprintf("%.5f", m.Volatility)},
		{"Value at Risk (95%)", p.Sprintf("%.5f", m.VaR95)},
		{"Conditional VaR (95%)", p.Sprintf("%.5f", m.CVaR95)},
		{"Sharpe Ratio", p.Sprintf("%.3f", m.Sharpe)},
		{"Observations", p.Sprintf("%d", m.Observations)},
	})
	table.Render()
}

func RenderTickers(w io.Writer, stats []analysis.TickerStats) {
	table := newTable(w, "Ticker", "Last Close", "Bars", "Weight", "Mean Daily Return", "Annual Vol")
	for _, s := range stats {
		table.Append([]string{s.Ticker, money(s.LastClose), p.Sprintf("%d", s.Bars), pct(s.Weight), pct(s.MeanReturn), pct(s.AnnualVol)})
	}
	table.Render()
}

func RenderSentiment(w io.Writer, scores []news.SentimentScore) {
	table := newTable(w, "Ticker", "Score", "Headlines", "Status")
	for _, s := range scores {
		score := scoreText(s)
		switch s.Status {
		case news.StatusNoData:
			score = "No data"
		case news.StatusError:
			score = "N/A"
		}
		table.Append([]string{s.Ticker, score, p.Sprintf("%d", s.Headlines), string(s.Status)})
	}
	table.Render()
}

func RenderPortfolio(w io.Writer, plan *portfolio.Plan) {
	table := newTable(w, "Ticker", "Expected Daily Return", "Volatility", "Weight", "Allocation")
	for _, a := range plan.Allocations {
		table.Append([]string{a.Ticker, pct(a.ExpectedDailyReturn), pct(a.Volatility), pct(a.Weight), money(a.Amount.InexactFloat64())})
	}
	table.Render()

	summary := newTable(w, "Expected Annual Return", "Expected Annual Volatility", "Sharpe Ratio")
	summary.Append([]string{pct(plan.ExpectedAnnualReturn), pct(plan.ExpectedAnnualVolatility), p.Sprintf("%.2f", plan.Sharpe)})
	summary.Render()
}

// RenderAnalysis prints every section of res that is present.
func RenderAnalysis(w io.Writer, res *analysis.Result) {
	fmt.Fprintf(w, "Run %s (%s, as of %s)\n", res.RunID, res.Provider, res.AsOf.Format("2006-01-02"))
	RenderTickers(w, res.Tickers)
	fmt.Fprintln(w, "Portfolio Risk Metrics")
	RenderRisk(w, res.Risk)
	if len(res.Sentiment) > 0 {
		fmt.Fprintln(w, "Sentiment Analysis")
		RenderSentiment(w, res.Sentiment)
	}
	if res.Valuation != nil {
		fmt.Fprintln(w, "Option Pricing")
		RenderPricing(w, *res.Valuation)
	}
}
