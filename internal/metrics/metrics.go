package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsCreated tracks payment intents created through the server endpoint
	IntentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paymentd_intents_created_total",
			Help: "Total number of payment intents created",
		},
	)

	// ConfirmAttempts tracks card confirmation attempts by outcome
	ConfirmAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paymentd_confirm_attempts_total",
			Help: "Total number of card confirmation attempts",
		},
		[]string{"outcome"},
	)

	// ConfirmLatency tracks gateway confirmation latency
	ConfirmLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paymentd_confirm_latency_seconds",
			Help:    "Card confirmation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RetriesScheduled tracks retries that entered a backoff wait
	RetriesScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paymentd_retries_scheduled_total",
			Help: "Total number of payment retries scheduled",
		},
	)

	// RetriesExhausted tracks retry sequences that hit the attempt budget
	RetriesExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paymentd_retries_exhausted_total",
			Help: "Total number of retry sequences that exhausted their budget",
		},
	)

	// RetryWindowsExpired tracks retry windows that elapsed without success
	RetryWindowsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paymentd_retry_windows_expired_total",
			Help: "Total number of retry windows that expired",
		},
	)

	// DBConnectionPoolUsage tracks connection pool utilization percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paymentd_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)

	// ActiveRetryStates tracks retry entries currently held in the store
	ActiveRetryStates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paymentd_active_retry_states",
			Help: "Number of retry entries currently tracked",
		},
	)
)
