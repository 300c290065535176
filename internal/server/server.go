// Package server exposes pricing, risk, sentiment and portfolio generation
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/contactkeval/quant-risk/internal/config"
	"github.com/contactkeval/quant-risk/internal/data"
	"github.com/contactkeval/quant-risk/internal/logger"
	"github.com/contactkeval/quant-risk/internal/news"
	"github.com/contactkeval/quant-risk/internal/portfolio"
	"github.com/contactkeval/quant-risk/internal/pricing"
	"github.com/contactkeval/quant-risk/internal/risk"
)

var (
	errBadRequest        = errors.New("bad request")
	errSentimentDisabled = errors.New("sentiment scoring is not configured")
	errMethodNotAllowed  = errors.New("method not allowed")
)

type Server struct {
	cfg     *config.Config
	prov    data.Provider
	scorer  *news.Scorer
	gen     *portfolio.Generator
	sim     *pricing.Simulator
	metrics *metrics
	router  *mux.Router
}

// New wires the routes. scorer may be nil, which disables /v1/sentiment.
func New(cfg *config.Config, prov data.Provider, scorer *news.Scorer) *Server {
	s := &Server{
		cfg:     cfg,
		prov:    prov,
		scorer:  scorer,
		gen:     portfolio.NewGenerator(cfg.Pools, prov, cfg.LookbackDays),
		sim:     pricing.NewSimulator(),
		metrics: newMetrics(),
		router:  mux.NewRouter(),
	}
	r := s.router
	r.Use(s.metrics.middleware)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	r.HandleFunc("/v1/price", s.handlePrice).Methods(http.MethodPost)
	r.HandleFunc("/v1/simulate", s.handleSimulate).Methods(http.MethodPost)
	r.HandleFunc("/v1/reconcile", s.handleReconcile).Methods(http.MethodPost)
	r.HandleFunc("/v1/risk", s.handleRisk).Methods(http.MethodPost)
	r.HandleFunc("/v1/sentiment", s.handleSentiment).Methods(http.MethodGet)
	r.HandleFunc("/v1/portfolio", s.handlePortfolio).Methods(http.MethodPost)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		setErrorResponse(w, fmt.Errorf("%w: %s %s", errMethodNotAllowed, req.Method, req.URL.Path))
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func setResponse(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("encode response: %v", err)
	}
}

func setErrorResponse(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	} else {
		logger.Debugf("request rejected (%d): %v", code, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, pricing.ErrInvalidParameters),
		errors.Is(err, pricing.ErrInvalidOptionKind),
		errors.Is(err, pricing.ErrInvalidSimulationCount),
		errors.Is(err, risk.ErrWeightsMismatch),
		errors.Is(err, risk.ErrInsufficientData),
		errors.Is(err, portfolio.ErrUnknownStrategy),
		errors.Is(err, portfolio.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, errSentimentDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// optionRequest is the JSON body shared by the pricing routes.
type optionRequest struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Expiry     float64 `json:"expiry"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Kind       string  `json:"kind"`

	Simulations     int     `json:"simulations,omitempty"`
	Seed            *uint64 `json:"seed,omitempty"`
	IncludeTerminal bool    `json:"include_terminal,omitempty"`
}

func (o optionRequest) params() (pricing.OptionParameters, error) {
	kind := pricing.Call
	if o.Kind != "" {
		k, err := pricing.ParseOptionKind(o.Kind)
		if err != nil {
			return pricing.OptionParameters{}, err
		}
		kind = k
	}
	return pricing.NewOptionParameters(o.Spot, o.Strike, o.Expiry, o.Rate, o.Volatility, kind)
}

func (s *Server) simulationArgs(o optionRequest) (int, uint64, error) {
	n := o.Simulations
	if n == 0 {
		n = s.cfg.Simulations
	}
	if n > s.cfg.SimulationsMax {
		return 0, 0, fmt.Errorf("%w: %d exceeds the limit of %d", pricing.ErrInvalidSimulationCount, n, s.cfg.SimulationsMax)
	}
	seed := s.cfg.Seed
	if o.Seed != nil {
		seed = *o.Seed
	}
	return n, seed, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if err := decode(r, &req); err != nil {
		setErrorResponse(w, err)
		return
	}
	p, err := req.params()
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	defer s.metrics.observePricing("analytic", time.Now())
	res, err := pricing.PriceAnalytic(p)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	setResponse(w, res)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if err := decode(r, &req); err != nil {
		setErrorResponse(w, err)
		return
	}
	p, err := req.params()
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	n, seed, err := s.simulationArgs(req)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	start := time.Now()
	res, err := s.sim.Price(p, n, seed)
	s.metrics.observePricing("simulation", start)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	if !req.IncludeTerminal {
		res.Terminal = nil
	}
	setResponse(w, res)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if err := decode(r, &req); err != nil {
		setErrorResponse(w, err)
		return
	}
	p, err := req.params()
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	n, seed, err := s.simulationArgs(req)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	start := time.Now()
	val, err := s.sim.Value(p, n, seed)
	s.metrics.observePricing("reconcile", start)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	setResponse(w, val.Reconciliation)
}

type riskRequest struct {
	Tickers      []string  `json:"tickers"`
	Weights      []float64 `json:"weights"`
	LookbackDays int       `json:"lookback_days"`
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := decode(r, &req); err != nil {
		setErrorResponse(w, err)
		return
	}
	if len(req.Tickers) == 0 {
		setErrorResponse(w, fmt.Errorf("%w: tickers are required", errBadRequest))
		return
	}
	tickers := normalizeTickers(req.Tickers)
	weights := req.Weights
	if len(weights) == 0 {
		weights = equalWeights(len(tickers))
	}
	if len(weights) != len(tickers) {
		setErrorResponse(w, fmt.Errorf("%d tickers, %d weights: %w", len(tickers), len(weights), risk.ErrWeightsMismatch))
		return
	}
	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = s.cfg.LookbackDays
	}

	series, err := data.FetchPrices(r.Context(), s.prov, tickers, data.Lookback(lookback, time.Now()))
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	rets, err := risk.PortfolioReturns(series, tickers, weights)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	m, err := risk.Compute(rets)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	setResponse(w, m)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil {
		setErrorResponse(w, errSentimentDisabled)
		return
	}
	raw := r.URL.Query().Get("tickers")
	if strings.TrimSpace(raw) == "" {
		setErrorResponse(w, fmt.Errorf("%w: tickers query parameter is required", errBadRequest))
		return
	}
	setResponse(w, s.scorer.Score(r.Context(), normalizeTickers(strings.Split(raw, ","))))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolio.Request
	if err := decode(r, &req); err != nil {
		setErrorResponse(w, err)
		return
	}
	plan, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		setErrorResponse(w, err)
		return
	}
	setResponse(w, plan)
}

func normalizeTickers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}
