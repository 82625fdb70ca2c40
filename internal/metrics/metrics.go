// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// QuoteTransitionsTotal counts status changes by action and outcome
	// (applied, already_responded, rejected).
	QuoteTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_transitions_total",
			Help: "Quote status transitions",
		},
		[]string{"action", "outcome"},
	)

	OutboxDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_deliveries_total",
			Help: "Notification outbox delivery attempts",
		},
		[]string{"kind", "result"},
	)

	OutboxPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_messages",
		Help: "Outbox messages waiting for delivery",
	})

	QuoteNumbersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_numbers_issued_total",
		Help: "Quote numbers allocated",
	})
)
