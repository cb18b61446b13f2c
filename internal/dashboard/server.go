// Package dashboard exposes the fetch machines over HTTP: the front end
// kicks off fetches, polls state, retries, and clears errors through a
// small JSON API.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/core/fetch"
)

// Server provides the HTTP endpoints backing the dashboard.
type Server struct {
	predict *fetch.Machine[domain.Prediction]
	history *fetch.Machine[domain.History]
	server  *http.Server
	log     *slog.Logger
}

// NewServer creates the dashboard server on the given port.
func NewServer(predict *fetch.Machine[domain.Prediction], history *fetch.Machine[domain.History], port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		predict: predict,
		history: history,
		log:     log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("POST /api/v1/fetch", s.handleFetch)
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("POST /api/v1/retry", s.handleRetry)
	mux.HandleFunc("POST /api/v1/errors/clear", s.handleClearErrors)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type fetchRequest struct {
	Ticker string `json:"ticker"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorView(w, http.StatusBadRequest, &errorView{
			Kind:    string(fault.KindValidation),
			Code:    "INVALID_REQUEST",
			Message: "Request body must be JSON with a ticker field.",
		})
		return
	}

	// Reject bad tickers before touching the machines, so garbage input
	// never disturbs whatever the dashboard currently shows.
	if _, err := domain.ParseTicker(req.Ticker); err != nil {
		cerr := fault.Normalize(err, map[string]any{"ticker": req.Ticker})
		writeErrorView(w, http.StatusUnprocessableEntity, errorViewOf(cerr, fault.UserMessage(cerr)))
		return
	}

	s.log.Info("Fetch requested", "ticker", req.Ticker)
	s.predict.Fetch(req.Ticker)
	s.history.Fetch(req.Ticker)
	s.writeSnapshot(w, http.StatusAccepted)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, http.StatusOK)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.predict.Retry()
	s.history.Retry()
	s.writeSnapshot(w, http.StatusAccepted)
}

func (s *Server) handleClearErrors(w http.ResponseWriter, r *http.Request) {
	s.predict.ClearError()
	s.history.ClearError()
	s.writeSnapshot(w, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pp := s.predict.Snapshot().Phase
	hp := s.history.Snapshot().Phase

	// The process is healthy even when the upstream is not; a machine
	// stuck in error only degrades the report.
	status := "ok"
	if pp == fetch.PhaseError || hp == fetch.PhaseError {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":     status,
		"prediction": string(pp),
		"history":    string(hp),
	})
}

func (s *Server) writeSnapshot(w http.ResponseWriter, status int) {
	snap := snapshotView{
		Prediction: viewOf(s.predict.Snapshot()),
		History:    viewOf(s.history.Snapshot()),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(snap)
}

func writeErrorView(w http.ResponseWriter, status int, v *errorView) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]*errorView{"error": v})
}
