package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "statements_flagged_negative",
			Help: "Statements flagged for negative balance awaiting review",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM owner_statements WHERE status = 'flagged_negative_balance'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "statements_draft",
			Help: "Statements still in draft",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM owner_statements WHERE status = 'draft'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
