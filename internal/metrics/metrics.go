// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_orders_submitted_total",
		Help: "Orders accepted by the engine.",
	})

	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_orders_rejected_total",
		Help: "Orders rejected at validation.",
	})

	OrdersRested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_orders_rested_total",
		Help: "Orders posted to the book with quantity remaining after matching.",
	})

	TradesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_trades_executed_total",
		Help: "Fills produced by the matching loop.",
	})

	LevelMatchesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_level_matches_abandoned_total",
		Help: "Full-level match attempts abandoned after losing the taker fill swap.",
	})

	TradesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_journal_trades_dropped_total",
		Help: "Trades dropped because the journal buffer was full.",
	})

	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_submit_duration_seconds",
		Help:    "End-to-end latency of a single submit call.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	})
)
