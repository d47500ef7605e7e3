package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pipeline-dashboard/internal/observability/logging"
)

const (
	metricPrefix = "pipeline_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	importTotal   *prometheus.CounterVec
	importLatency *prometheus.HistogramVec
	importRows    *prometheus.CounterVec

	recalcTotal   *prometheus.CounterVec
	recalcLatency *prometheus.HistogramVec

	assetMutations *prometheus.CounterVec
	ratingsTotal   *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers metrics and DB-backed gauges for the assets table.
func Init(db *sql.DB, assetsTable string, logger *logging.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total signed ingest requests by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Signed ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		importTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_total",
				Help: "Total import jobs by result",
			},
			[]string{"result"},
		)
		importLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_latency_seconds",
				Help:    "Import job latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "Imported rows by outcome",
			},
			[]string{"outcome"},
		)

		recalcTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recalculate_total",
				Help: "Total portfolio recalculations by result",
			},
			[]string{"result"},
		)
		recalcLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "recalculate_latency_seconds",
				Help:    "Portfolio recalculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		assetMutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "asset_mutations_total",
				Help: "Asset mutations by action",
			},
			[]string{"action"},
		)
		ratingsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ratings_computed_total",
				Help: "Computed asset ratings by rating",
			},
			[]string{"rating"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total asset export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Asset export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestLatency,
			importTotal,
			importLatency,
			importRows,
			recalcTotal,
			recalcLatency,
			assetMutations,
			ratingsTotal,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, assetsTable, logger)
		}
	})
}

// ObserveIngest records signed ingest duration and result.
func ObserveIngest(result string, duration time.Duration) {
	observe(ingestRequests, ingestLatency, result, duration)
}

// ObserveImport records import job duration and result.
func ObserveImport(result string, duration time.Duration) {
	observe(importTotal, importLatency, result, duration)
}

// AddImportRows adds count rows to an outcome.
func AddImportRows(outcome string, count int) {
	if count <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if importRows != nil {
		importRows.WithLabelValues(outcome).Add(float64(count))
	}
}

// ObserveRecalculate records portfolio recalculation duration and result.
func ObserveRecalculate(result string, duration time.Duration) {
	observe(recalcTotal, recalcLatency, result, duration)
}

// IncAssetMutation increments the mutation counter.
func IncAssetMutation(action string) {
	if action == "" {
		action = "unknown"
	}
	if assetMutations != nil {
		assetMutations.WithLabelValues(action).Inc()
	}
}

// IncRating counts a computed rating.
func IncRating(rating string) {
	if rating == "" {
		rating = "N/A"
	}
	if ratingsTotal != nil {
		ratingsTotal.WithLabelValues(rating).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

func observe(total *prometheus.CounterVec, latency *prometheus.HistogramVec, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if total != nil {
		total.WithLabelValues(result).Inc()
	}
	if latency != nil {
		latency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

// ResultOf maps an error to a result label.
func ResultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
