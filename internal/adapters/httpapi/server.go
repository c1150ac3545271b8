// Package httpapi serves the read-only status API: engine status, live games,
// the trade journal, performance analytics, Prometheus metrics and a
// WebSocket stream of cycle results.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alejandrodnm/kalshibot/internal/application/engine/live"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
	defaultDays       = 7
)

// StatusSource is the engine view the API reads.
type StatusSource interface {
	Status() live.Status
}

// Server wires handlers to a chi router.
type Server struct {
	status    StatusSource
	analytics ports.AnalyticsStore
	hub       *Hub
	router    chi.Router
}

// NewServer builds the router. analytics and hub may be nil; their routes
// then answer 503.
func NewServer(status StatusSource, analytics ports.AnalyticsStore, hub *Hub) *Server {
	s := &Server{status: status, analytics: analytics, hub: hub}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.getStatus)
		r.Get("/games", s.getGames)
		r.Get("/trades", s.getTrades)
		r.Get("/performance", s.getPerformance)
		r.Get("/ws", s.handleWS)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("httpapi: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpapi.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("httpapi: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi.ListenAndServe: shutdown: %w", err)
	}
	return nil
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "kalshibot"})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeError(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) getGames(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeError(w, "engine not running", http.StatusServiceUnavailable)
		return
	}
	games := []domain.GameState{}
	if last := s.status.Status().LastCycle; last != nil && last.LiveGames != nil {
		games = last.LiveGames
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "count": len(games)})
}

func (s *Server) getTrades(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	limit, err := intParam(r, "limit", defaultTradeLimit)
	if err != nil || limit <= 0 {
		writeError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	limit = min(limit, maxTradeLimit)

	trades, err := s.analytics.RecentTrades(r.Context(), limit)
	if err != nil {
		slog.Error("httpapi: recent trades", "err", err)
		writeError(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []domain.TradeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": trades, "count": len(trades)})
}

// performanceResponse is the payload of GET /api/performance.
type performanceResponse struct {
	Summary    domain.PerformanceSummary `json:"summary"`
	WinRate    float64                   `json:"win_rate"`
	BySport    []domain.GroupPerformance `json:"by_sport"`
	ByStrategy []domain.GroupPerformance `json:"by_strategy"`
	Daily      []domain.DailyPnL         `json:"daily"`
	ExecRate   map[string]float64        `json:"signal_execution_rate"`
}

func (s *Server) getPerformance(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	days, err := intParam(r, "days", defaultDays)
	if err != nil || days <= 0 {
		writeError(w, "days must be a positive integer", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	filter := ports.PerformanceFilter{Strategy: r.URL.Query().Get("strategy")}

	var resp performanceResponse
	if resp.Summary, err = s.analytics.Performance(ctx, filter); err != nil {
		s.analyticsError(w, "performance", err)
		return
	}
	if resp.BySport, err = s.analytics.PerformanceBySport(ctx); err != nil {
		s.analyticsError(w, "by sport", err)
		return
	}
	if resp.ByStrategy, err = s.analytics.PerformanceByStrategy(ctx); err != nil {
		s.analyticsError(w, "by strategy", err)
		return
	}
	if resp.Daily, err = s.analytics.DailyPnL(ctx, days); err != nil {
		s.analyticsError(w, "daily pnl", err)
		return
	}
	if resp.ExecRate, err = s.analytics.SignalExecutionRate(ctx); err != nil {
		s.analyticsError(w, "execution rate", err)
		return
	}
	resp.WinRate = resp.Summary.WinRate()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, "stream not enabled", http.StatusServiceUnavailable)
		return
	}
	s.hub.HandleWS(w, r)
}

func (s *Server) analyticsError(w http.ResponseWriter, what string, err error) {
	slog.Error("httpapi: analytics", "query", what, "err", err)
	writeError(w, "failed to load performance", http.StatusInternalServerError)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("httpapi: encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
