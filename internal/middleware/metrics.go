package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	rpcs      *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	downloads *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "rpc_requests_total",
			Help:      "Connect RPCs handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "foodgram",
			Name:      "rpc_duration_seconds",
			Help:      "Connect RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "shopping_list_downloads_total",
			Help:      "Shopping list downloads, by format and outcome.",
		}, []string{"format", "outcome"}),
	}
	m.registry.MustRegister(
		m.rpcs,
		m.latency,
		m.downloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Interceptor records count and latency of every unary RPC.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
				} else {
					code = connect.CodeUnknown.String()
				}
			}
			m.rpcs.WithLabelValues(procedure, code).Inc()
			m.latency.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

// ObserveDownload counts one shopping list download attempt.
func (m *Metrics) ObserveDownload(format, outcome string) {
	m.DownloadCounter(format, outcome).Inc()
}

// DownloadCounter returns the download counter for one format and outcome.
func (m *Metrics) DownloadCounter(format, outcome string) prometheus.Counter {
	return m.downloads.WithLabelValues(format, outcome)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
