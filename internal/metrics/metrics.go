// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ytdash"

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "YouTube Data API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of YouTube Data API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Dashboard searches by search type.",
	}, []string{"type"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_pipeline_duration_seconds",
		Help:      "Duration of the search, enrich and normalize pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	SkippedItems = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "normalize_skipped_items_total",
		Help:      "Raw items skipped as malformed during normalization.",
	})

	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Persistence operations by name and outcome.",
	}, []string{"operation", "outcome"})

	VideosInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "videos_inserted_total",
		Help:      "Video rows actually inserted into the catalog.",
	})

	HistoryEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_entries_saved_total",
		Help:      "Search history entries appended to the ledger.",
	})

	StoreTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_state_transitions_total",
		Help:      "Store handle state transitions by target state.",
	}, []string{"to"})

	StoreConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_connected",
		Help:      "1 when the persistence handle is connected, 0 otherwise.",
	})

	ExportedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "export_rows_total",
		Help:      "Rows written to CSV exports.",
	})
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeQuota = "quota"
)

// Observe records the outcome of an operation counter.
func Observe(vec *prometheus.CounterVec, name string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	vec.WithLabelValues(name, outcome).Inc()
}
