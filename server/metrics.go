package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token operations recorded by the server
const (
	OpExchange = "exchange"
	OpRefresh  = "refresh"
	OpJWT      = "jwt"
	OpUsersMe  = "users_me"
)

// Metrics holds the server's Prometheus collectors on a registry of its own,
// so several servers can live in one process (as they do in tests).
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quickstart_token_operations_total",
			Help: "Token operations against the OAuth provider",
		}, []string{"flow", "operation", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quickstart_token_operation_duration_seconds",
			Help:    "Time taken by token operations against the OAuth provider",
			Buckets: prometheus.ExponentialBucketsRange(0.005, 20, 12),
		}, []string{"flow", "operation", "status"}),
	}
}

// Observe records one operation that started at start and ended with err
func (m *Metrics) Observe(flow, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(flow, operation, status).Inc()
	m.durations.WithLabelValues(flow, operation, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the collectors, e.g. for testutil
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (s *Server) observe(operation string, start time.Time, err error) {
	s.metrics.Observe(string(s.flow), operation, start, err)
}
