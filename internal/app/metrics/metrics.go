// Package metrics defines the prometheus metrics of the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application metrics.
//
// All methods are safe to call on a nil Metrics, which records nothing.
type Metrics struct {
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LookupTotal         *prometheus.CounterVec
	LossLoadTotal       *prometheus.CounterVec
	StatusChangeTotal   *prometheus.CounterVec
}

// New creates a new Metrics instance and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "srp_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "srp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LookupTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "srp_lookup_total",
			Help: "Total number of name lookups by kind and result",
		}, []string{"kind", "result"}),
		LossLoadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "srp_loss_load_total",
			Help: "Total number of loaded killmails by source",
		}, []string{"source"}),
		StatusChangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "srp_loss_status_changes_total",
			Help: "Total number of loss status changes by new status",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.HTTPRequestTotal,
		m.HTTPRequestDuration,
		m.LookupTotal,
		m.LossLoadTotal,
		m.StatusChangeTotal,
	)
	return m
}

// Lookup results
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Loss load sources
const (
	SourceStore = "store"
	SourceESI   = "esi"
)

func (m *Metrics) ObserveLookup(kind, result string) {
	if m == nil {
		return
	}
	m.LookupTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveLossLoad(source string) {
	if m == nil {
		return
	}
	m.LossLoadTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.StatusChangeTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
