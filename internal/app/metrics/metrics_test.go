package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/warpedintentions/srp/internal/app/metrics"
)

func TestMetrics(t *testing.T) {
	t.Run("can record lookups", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		m.ObserveLookup("type", metrics.ResultHit)
		m.ObserveLookup("type", metrics.ResultHit)
		m.ObserveLookup("type", metrics.ResultMiss)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupTotal.WithLabelValues("type", metrics.ResultHit)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupTotal.WithLabelValues("type", metrics.ResultMiss)))
	})
	t.Run("can record HTTP requests by status class", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		m.ObserveHTTPRequest("GET", "/losses", 200, 0.1)
		m.ObserveHTTPRequest("GET", "/losses", 204, 0.1)
		m.ObserveHTTPRequest("GET", "/losses", 403, 0.1)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues("GET", "/losses", "2xx")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues("GET", "/losses", "4xx")))
	})
	t.Run("nil metrics record nothing", func(t *testing.T) {
		var m *metrics.Metrics
		assert.NotPanics(t, func() {
			m.ObserveLookup("type", metrics.ResultHit)
			m.ObserveLossLoad(metrics.SourceESI)
			m.ObserveStatusChange("Paid")
			m.ObserveHTTPRequest("GET", "/", 200, 0.1)
		})
	})
}
