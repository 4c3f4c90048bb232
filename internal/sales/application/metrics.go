package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "register_transactions_created_total",
		Help: "Tabs opened since process start.",
	})
	metricTransactionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "register_transactions_completed_total",
		Help: "Successful checkouts.",
	})
	metricTransactionsVoided = promauto.NewCounter(prometheus.CounterOpts{
		Name: "register_transactions_voided_total",
		Help: "Voided tabs.",
	})
	metricCheckoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "register_checkout_failures_total",
		Help: "Checkouts aborted by a ledger write failure.",
	})
	metricCheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "register_checkout_duration_seconds",
		Help:    "Time spent journaling a completed sale.",
		Buckets: prometheus.DefBuckets,
	})
	metricScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "register_barcode_scans_total",
		Help: "Barcode scans by outcome.",
	}, []string{"outcome"})
)
