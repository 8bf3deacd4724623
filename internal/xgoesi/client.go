package xgoesi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/antihax/goesi"
	"github.com/gohugoio/httpcache"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientParams configures the HTTP client for ESI.
type ClientParams struct {
	// Cache for HTTP responses. No caching when nil.
	Cache httpcache.Cache
	// Registerer for the request metrics. No metrics when nil.
	Registerer prometheus.Registerer
	// Maximum number of retries for failed requests.
	RetryMax int
	// Timeout for a single request including retries.
	Timeout time.Duration
	// Transport actually used to make requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// NewHTTPClient returns a new HTTP client for accessing ESI.
//
// The client retries failed requests with backoff, caches responses,
// protects against exceeding the ESI error limit, adds the datasource parameter
// and records metrics.
func NewHTTPClient(arg ClientParams) *http.Client {
	var rt http.RoundTripper = arg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if arg.Registerer != nil {
		rt = instrumentRoundTripper(arg.Registerer, rt)
	}
	rt = &DatasourceTransport{Transport: rt}
	rt = &ErrorLimiter{Transport: rt}
	if arg.Cache != nil {
		rt = &httpcache.Transport{Transport: rt, Cache: arg.Cache, MarkCachedResponses: true}
	}
	rhc := retryablehttp.NewClient()
	rhc.HTTPClient.Transport = rt
	rhc.HTTPClient.Timeout = arg.Timeout
	rhc.Logger = slog.Default()
	rhc.ResponseLogHook = LogResponse
	if arg.RetryMax > 0 {
		rhc.RetryMax = arg.RetryMax
	}
	rhc.CheckRetry = checkRetry
	c := rhc.StandardClient()
	c.Timeout = arg.Timeout
	return c
}

// NewAPIClient returns a new ESI client using an HTTP client.
func NewAPIClient(httpClient *http.Client, userAgent string) *goesi.APIClient {
	return goesi.NewAPIClient(httpClient, userAgent)
}

func instrumentRoundTripper(reg prometheus.Registerer, next http.RoundTripper) http.RoundTripper {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srp_esi_requests_total",
			Help: "Number of requests to ESI by status code and method.",
		},
		[]string{"code", "method"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "srp_esi_request_duration_seconds",
			Help:    "Duration of requests to ESI.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	reg.MustRegister(counter, duration)
	return promhttp.InstrumentRoundTripperCounter(counter,
		promhttp.InstrumentRoundTripperDuration(duration, next),
	)
}
