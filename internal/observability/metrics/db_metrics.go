package metrics

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"pipeline-dashboard/internal/observability/logging"
)

func registerDBMetrics(db *sql.DB, table string, logger *logging.Logger) {
	if table == "" {
		table = "assets"
	}
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "assets_active",
			Help: "Active assets",
		},
		func() float64 {
			return queryCount(db, logger, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_active", table))
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "assets_rating_na",
			Help: "Active assets whose overall rating is N/A",
		},
		func() float64 {
			return queryCount(db, logger, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_active AND overall_score IS NULL", table))
		},
	))
}

func queryCount(db *sql.DB, logger *logging.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		logger.Warn("metrics query failed", "error", err)
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
