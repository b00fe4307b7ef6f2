// Package metrics holds the Prometheus collectors for the push pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokenExchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reportpush_token_exchanges_total",
		Help: "Assertion-for-token exchanges by result",
	}, []string{"result"})

	PushSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reportpush_push_sends_total",
		Help: "Per-device push sends by result",
	}, []string{"result"})

	DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reportpush_dispatch_duration_seconds",
		Help:    "Time to fan one notification out to all of a recipient's devices",
		Buckets: prometheus.DefBuckets,
	})

	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reportpush_send_requests_total",
		Help: "Send calls by terminal outcome (ok or error kind)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		TokenExchanges,
		PushSends,
		DispatchDuration,
		Requests,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
