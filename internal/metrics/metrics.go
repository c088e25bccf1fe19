package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks handler latency per route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "icb_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			Buckets: []float64{
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
				30.0,  // 30s
			},
		},
		[]string{"route", "code"},
	)

	// ChainCalls counts eth_call round trips by contract method and outcome
	ChainCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icb_chain_calls_total",
			Help: "Contract read calls by method and result",
		},
		[]string{"method", "result"},
	)

	// CacheLookups counts response cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icb_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records the duration of one request
func RecordHTTPRequest(route, code string, duration float64) {
	HTTPRequestDuration.WithLabelValues(route, code).Observe(duration)
}

// RecordChainCall counts one contract call; result is ok, error or decode_error
func RecordChainCall(method, result string) {
	ChainCalls.WithLabelValues(method, result).Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
