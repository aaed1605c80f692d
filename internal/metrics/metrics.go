// Package metrics provides centralized Prometheus metrics registry for the statistics service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SourceLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Name:      "source_loads_total",
		Help:      "Total number of store loads by source and outcome",
	}, []string{"source", "outcome"})
	ReferentialGapsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Name:      "referential_gaps_total",
		Help:      "Result rows dropped by joins against a missing dimension",
	}, []string{"view", "dimension"})
	SkippedEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Name:      "skipped_entries_total",
		Help:      "Calendar entries or feed items skipped as unparseable",
	}, []string{"source"})
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Name:      "queries_total",
		Help:      "Total number of aggregation queries by view and outcome",
	}, []string{"view", "outcome"})
)

// Gauge metrics
var (
	DatasetRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pitwall",
		Name:      "dataset_rows",
		Help:      "Rows held by the loaded dataset per table",
	}, []string{"table"})
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitwall",
		Name:      "cache_hit_ratio",
		Help:      "Hit ratio of the memoized store loaders",
	})
	CountdownClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pitwall",
		Name:      "countdown_clients",
		Help:      "Connected countdown stream clients",
	})
)

// Histogram metrics
var (
	SourceLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pitwall",
		Name:      "source_load_duration_seconds",
		Help:      "Duration of store loads in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})
	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pitwall",
		Name:      "query_duration_seconds",
		Help:      "Duration of aggregation queries in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(SourceLoadsTotal)
		registry.MustRegister(ReferentialGapsTotal)
		registry.MustRegister(SkippedEntriesTotal)
		registry.MustRegister(QueriesTotal)

		// Register gauge metrics
		registry.MustRegister(DatasetRows)
		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(CountdownClients)

		// Register histogram metrics
		registry.MustRegister(SourceLoadDuration)
		registry.MustRegister(QueryDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSourceLoad records a store load and its duration.
func RecordSourceLoad(source string, durationSeconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SourceLoadsTotal.WithLabelValues(source, outcome).Inc()
	SourceLoadDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordReferentialGaps records result rows dropped by a join.
func RecordReferentialGaps(view, dimension string, dropped int) {
	if dropped <= 0 {
		return
	}
	ReferentialGapsTotal.WithLabelValues(view, dimension).Add(float64(dropped))
}

// RecordSkippedEntries records unparseable entries skipped by a loader.
func RecordSkippedEntries(source string, skipped int) {
	if skipped <= 0 {
		return
	}
	SkippedEntriesTotal.WithLabelValues(source).Add(float64(skipped))
}

// RecordQuery records an aggregation query.
func RecordQuery(view string, durationSeconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	QueriesTotal.WithLabelValues(view, outcome).Inc()
	QueryDuration.WithLabelValues(view).Observe(durationSeconds)
}

// UpdateDatasetRows updates the per-table row gauge.
func UpdateDatasetRows(table string, rows int) {
	DatasetRows.WithLabelValues(table).Set(float64(rows))
}

// UpdateCacheHitRatio updates the loader cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	CacheHitRatio.Set(ratio)
}

// UpdateCountdownClients updates the connected countdown client gauge.
func UpdateCountdownClients(count int) {
	CountdownClients.Set(float64(count))
}
