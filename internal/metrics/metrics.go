// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts finished requests by route pattern, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "narreyes",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route pattern and method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "narreyes",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// GenerationRequests counts calls to the text-generation provider.
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "narreyes",
		Name:      "generation_requests_total",
		Help:      "Generation proxy calls by category and outcome.",
	}, []string{"category", "outcome"})

	// RateLimited counts requests rejected by the login/register limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "narreyes",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)
