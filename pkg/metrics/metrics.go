package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider API metrics
	ProviderRequestsTotal   prometheus.CounterVec
	ProviderErrorsTotal     prometheus.CounterVec
	ProviderRequestDuration prometheus.HistogramVec

	// Sync metrics
	SyncRunsTotal     prometheus.CounterVec
	SyncItemsTotal    prometheus.Counter
	SyncDuration      prometheus.Histogram

	// Alert metrics
	AlertsCreatedTotal prometheus.CounterVec

	// Consumption metrics
	ConsumptionDocumentsTotal prometheus.Counter
	ConsumptionRowsTotal      prometheus.Counter
)

var initialized bool

// InitMetrics registers all collectors under the given prefix.
func InitMetrics(prefix string) {
	initialized = true

	ProviderRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_provider_requests_total",
			Help: "Total number of provider API requests",
		},
		[]string{"endpoint", "status"},
	)

	ProviderErrorsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_provider_errors_total",
			Help: "Total number of provider API errors by kind",
		},
		[]string{"endpoint", "kind"},
	)

	ProviderRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_provider_request_duration_seconds",
			Help:    "Duration of provider API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SyncRunsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sync_runs_total",
			Help: "Total number of tenant sync runs by terminal status",
		},
		[]string{"status"},
	)

	SyncItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_sync_items_total",
			Help: "Total number of stock items synced",
		},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_sync_duration_seconds",
			Help:    "Duration of a single tenant sync in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	AlertsCreatedTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_alerts_created_total",
			Help: "Total number of alerts created by type",
		},
		[]string{"alert_type"},
	)

	ConsumptionDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_consumption_documents_total",
			Help: "Total number of sales documents aggregated",
		},
	)

	ConsumptionRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_consumption_rows_total",
			Help: "Total number of variant-day consumption rows upserted",
		},
	)
}

// ObserveProviderRequest records one provider call outcome.
// All recorders are no-ops until InitMetrics has run, so library code and
// tests can call them unconditionally.
func ObserveProviderRequest(endpoint, status string, start time.Time) {
	if !initialized {
		return
	}
	ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func RecordProviderError(endpoint, kind string) {
	if !initialized {
		return
	}
	ProviderErrorsTotal.WithLabelValues(endpoint, kind).Inc()
}

func RecordSyncRun(status string) {
	if !initialized {
		return
	}
	SyncRunsTotal.WithLabelValues(status).Inc()
}

func RecordAlertCreated(alertType string) {
	if !initialized {
		return
	}
	AlertsCreatedTotal.WithLabelValues(alertType).Inc()
}

func ObserveSyncDuration(seconds float64) {
	if !initialized {
		return
	}
	SyncDuration.Observe(seconds)
}

func RecordSyncItems(n int) {
	if !initialized {
		return
	}
	SyncItemsTotal.Add(float64(n))
}

func RecordConsumption(documents, rows int) {
	if !initialized {
		return
	}
	ConsumptionDocumentsTotal.Add(float64(documents))
	ConsumptionRowsTotal.Add(float64(rows))
}
