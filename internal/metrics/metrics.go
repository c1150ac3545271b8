// Package metrics provides Prometheus instrumentation for the trading loop
// and the status API.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts polling cycles by result (ok, skipped, error).
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_cycles_total",
		Help: "Total polling cycles",
	}, []string{"result"})

	// CycleDuration tracks how long a polling cycle takes.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kalshibot_cycle_duration_seconds",
		Help:    "Polling cycle duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// LiveGames tracks games in progress seen in the last cycle, per sport.
	LiveGames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kalshibot_live_games",
		Help: "Live games observed in the last cycle",
	}, []string{"sport"})

	// SignalsTotal counts actionable signals per strategy.
	SignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_signals_total",
		Help: "Actionable signals produced by strategies",
	}, []string{"strategy"})

	// TradesTotal counts signal outcomes by status (executed, dry_run, rejected, failed).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_trades_total",
		Help: "Trade outcomes by status",
	}, []string{"status"})

	// RiskRejections counts signals blocked or resized to zero by the risk manager.
	RiskRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshibot_risk_rejections_total",
		Help: "Signals rejected by the risk manager",
	})

	// FeedErrors counts upstream failures by feed (espn, kalshi) and kind.
	FeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_feed_errors_total",
		Help: "Upstream feed errors",
	}, []string{"feed", "kind"})

	// TotalExposure is the risk manager's total exposure in cents.
	TotalExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshibot_total_exposure_cents",
		Help: "Total exposure across markets in cents",
	})

	// DailyPnL is the realized P&L of the current trading day in cents.
	DailyPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshibot_daily_pnl_cents",
		Help: "Realized P&L for the current day in cents",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshibot_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// JobRuns counts scheduled job executions by job and result.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_job_runs_total",
		Help: "Scheduled job runs",
	}, []string{"job", "result"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshibot_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kalshibot_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern prefers the chi route pattern to keep label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
