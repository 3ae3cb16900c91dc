package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var rowGauges = map[string]string{
	"water_readings":       "Stored water treatment readings",
	"quality_tests":        "Stored product quality tests",
	"equipment":            "Registered equipment",
	"operation_events":     "Recorded shutdown/startup events",
	"alert_thresholds":     "Configured alert thresholds",
	"commercial_standards": "Configured commercial standards",
}

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	for table, help := range rowGauges {
		query := "SELECT COUNT(*) FROM " + table
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + table + "_rows",
				Help: help,
			},
			func() float64 {
				return queryCount(db, logger, query)
			},
		))
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "operation_events_open",
			Help: "Shutdown/startup events without an end time",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM operation_events WHERE ended_at IS NULL")
		},
	))
}

func queryCount(db *sql.DB, logger *zap.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.String("query", query), zap.Error(err))
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
