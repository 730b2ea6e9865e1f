package teslamate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tesdash",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "TeslaMate API requests by operation and result code.",
		},
		[]string{"op", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tesdash",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "TeslaMate API request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
