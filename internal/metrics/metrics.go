// Package metrics provides Prometheus instrumentation for the
// consumption engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ForecastRunsTotal counts completed forecast runs, partitioned by
	// outcome ("ok" or "invalid_input").
	ForecastRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapline_forecast_runs_total",
		Help: "Total number of forecast runs",
	}, []string{"outcome"})

	// ForecastDuration tracks wall-clock duration of forecast runs.
	ForecastDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tapline_forecast_duration_seconds",
		Help:    "Forecast run duration in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// SimulatedDaysTotal counts calendar days simulated across all runs.
	SimulatedDaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapline_simulated_days_total",
		Help: "Cumulative number of calendar days simulated",
	})

	// ScenariosCreated counts persisted scenarios.
	ScenariosCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tapline_scenarios_created_total",
		Help: "Total number of scenarios created",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tapline_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tapline_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tapline_http_request_duration_seconds",
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
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
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
