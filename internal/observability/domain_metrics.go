package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translateAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querysmith_translate_attempts_total",
			Help: "Model invocation attempts by model, call convention, and outcome.",
		},
		[]string{"model", "convention", "outcome"},
	)
	translateExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querysmith_translate_exhausted_total",
			Help: "Total number of generation requests for which every model candidate failed.",
		},
	)
	translateDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querysmith_translate_duration_seconds",
			Help:    "End-to-end natural-language-to-SQL translation latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)
	catalogDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querysmith_catalog_degraded_total",
			Help: "Catalog lookups that failed and were degraded to an empty level in the schema summary.",
		},
		[]string{"level"},
	)
	schemaSummaryDatabases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "querysmith_schema_summary_databases",
			Help: "Databases included in the most recent schema summary.",
		},
	)
	schemaSummaryTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "querysmith_schema_summary_tables",
			Help: "Tables included in the most recent schema summary.",
		},
	)
	schemaSummaryColumns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "querysmith_schema_summary_columns",
			Help: "Columns included in the most recent schema summary.",
		},
	)
	sqlExecutionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querysmith_sql_execution_duration_seconds",
			Help:    "SQL execution latency.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"outcome"},
	)
	authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querysmith_auth_failures_total",
			Help: "Rejected requests by failure reason (missing or invalid API key).",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		translateAttemptsTotal,
		translateExhaustedTotal,
		translateDurationSeconds,
		catalogDegradedTotal,
		schemaSummaryDatabases,
		schemaSummaryTables,
		schemaSummaryColumns,
		sqlExecutionDurationSeconds,
		authFailuresTotal,
	)
}

func IncrementAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}

func ObserveTranslateAttempt(model, convention, outcome string) {
	translateAttemptsTotal.WithLabelValues(model, convention, outcome).Inc()
}

func IncrementTranslateExhausted() {
	translateExhaustedTotal.Inc()
}

func ObserveTranslate(elapsed time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	translateDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func IncrementCatalogDegraded(level string) {
	catalogDegradedTotal.WithLabelValues(level).Inc()
}

func SetSchemaSummarySize(databases, tables, columns int) {
	schemaSummaryDatabases.Set(float64(databases))
	schemaSummaryTables.Set(float64(tables))
	schemaSummaryColumns.Set(float64(columns))
}

func ObserveSQLExecution(elapsed time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	sqlExecutionDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
