package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gregtusar/pairs/pkg/marketdata"
	"github.com/gregtusar/pairs/pkg/models"
	"github.com/gregtusar/pairs/pkg/pairs"
	"github.com/gregtusar/pairs/pkg/report"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Port int
	// AuthSecret enables HS256 bearer auth on every route except health.
	AuthSecret string
}

type Server struct {
	provider   marketdata.Provider
	defaults   pairs.Config
	logger     *logrus.Logger
	port       int
	authSecret []byte
	runs       *runStore
}

func NewServer(provider marketdata.Provider, defaults pairs.Config, logger *logrus.Logger, opts Options) *Server {
	s := &Server{
		provider: provider,
		defaults: defaults,
		logger:   logger,
		port:     opts.Port,
		runs:     newRunStore(),
	}
	if opts.AuthSecret != "" {
		s.authSecret = []byte(opts.AuthSecret)
	}
	return s
}

// Handler returns the routed API with CORS and, when configured, auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/backtests", s.handleCreateBacktest)
	protected.HandleFunc("GET /api/backtests", s.handleListBacktests)
	protected.HandleFunc("GET /api/backtests/{id}", s.handleGetBacktest)
	protected.HandleFunc("GET /api/backtests/{id}/series", s.handleGetSeries)
	protected.HandleFunc("GET /api/backtests/{id}/stream", s.handleStream)

	var backtests http.Handler = protected
	if s.authSecret != nil {
		backtests = authMiddleware(s.authSecret, s.logger)(protected)
	}
	mux.Handle("/api/backtests", backtests)
	mux.Handle("/api/backtests/", backtests)

	return corsMiddleware(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting API server on port %d", s.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

type BacktestRequest struct {
	TickerA        string   `json:"ticker_a"`
	TickerB        string   `json:"ticker_b"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Window         *int     `json:"window,omitempty"`
	EntryThreshold *float64 `json:"entry_threshold,omitempty"`
	ExitThreshold  *float64 `json:"exit_threshold,omitempty"`
}

// analyzerConfig overlays the optional request fields on the server
// defaults.
func (req BacktestRequest) analyzerConfig(defaults pairs.Config) pairs.Config {
	cfg := defaults
	if req.Window != nil {
		cfg.Window = *req.Window
	}
	if req.EntryThreshold != nil {
		cfg.Thresholds.Entry = *req.EntryThreshold
	}
	if req.ExitThreshold != nil {
		cfg.Thresholds.Exit = *req.ExitThreshold
	}
	return cfg
}

func (req BacktestRequest) dateRange() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, req.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", req.Start)
	}
	end, err := time.Parse(time.DateOnly, req.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", req.End)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

func (s *Server) handleCreateBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	req.TickerA = strings.ToUpper(strings.TrimSpace(req.TickerA))
	req.TickerB = strings.ToUpper(strings.TrimSpace(req.TickerB))
	if req.TickerA == "" || req.TickerB == "" || req.TickerA == req.TickerB {
		s.writeError(w, http.StatusBadRequest, errors.New("ticker_a and ticker_b must be two different symbols"))
		return
	}
	start, end, err := req.dateRange()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg := req.analyzerConfig(s.defaults)
	if err := cfg.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"ticker_a": req.TickerA,
		"ticker_b": req.TickerB,
		"start":    req.Start,
		"end":      req.End,
	})

	pair, err := marketdata.FetchPair(r.Context(), s.provider, req.TickerA, req.TickerB, start, end)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch price history")
		s.writeError(w, fetchStatus(err), err)
		return
	}

	result, err := pairs.NewAnalyzer(cfg, s.logger).Run(pair)
	if err != nil {
		log.WithError(err).Warn("Backtest failed")
		s.writeError(w, pipelineStatus(err), err)
		return
	}

	id := uuid.NewString()
	s.runs.put(id, result)
	log.WithField("id", id).Info("Stored backtest")

	s.writeJSON(w, http.StatusCreated, report.NewDocument(id, result))
}

func (s *Server) handleListBacktests(w http.ResponseWriter, r *http.Request) {
	entries := s.runs.list()
	docs := make([]report.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, report.NewDocument(e.id, e.result))
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := s.runs.get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("backtest %s not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, report.NewDocument(id, result))
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := s.runs.get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("backtest %s not found", id))
		return
	}
	series := result.Series
	if series == nil {
		series = []models.SeriesPoint{}
	}
	s.writeJSON(w, http.StatusOK, series)
}

func fetchStatus(err error) int {
	if errors.Is(err, marketdata.ErrNoData) || errors.Is(err, marketdata.ErrNoOverlap) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, pairs.ErrInputAlignment),
		errors.Is(err, pairs.ErrEstimation),
		errors.Is(err, pairs.ErrInsufficientData),
		errors.Is(err, pairs.ErrNumericDegeneracy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
