package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "refinery_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	crudTotal   *prometheus.CounterVec
	crudLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	alertsEvaluated *prometheus.CounterVec
	notifyTotal     *prometheus.CounterVec

	dashboardLatency *prometheus.HistogramVec
	digestTotal      *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		crudTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "crud_operations_total",
				Help: "Total CRUD operations by module, operation and result",
			},
			[]string{"module", "op", "result"},
		)
		crudLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "crud_latency_seconds",
				Help:    "CRUD operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module", "op"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by module, format and result",
			},
			[]string{"module", "format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module", "format"},
		)

		alertsEvaluated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_evaluated_total",
				Help: "Out-of-range alerts produced by module and severity",
			},
			[]string{"module", "severity"},
		)
		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Alert notifications by channel and result",
			},
			[]string{"channel", "result"},
		)

		dashboardLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_latency_seconds",
				Help:    "Dashboard summary latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		digestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "digest_runs_total",
				Help: "Scheduled digest runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			crudTotal,
			crudLatency,
			exportTotal,
			exportLatency,
			alertsEvaluated,
			notifyTotal,
			dashboardLatency,
			digestTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveCRUD records a CRUD operation.
func ObserveCRUD(module, op, result string, duration time.Duration) {
	if module == "" {
		module = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if crudTotal != nil {
		crudTotal.WithLabelValues(module, op, result).Inc()
	}
	if crudLatency != nil {
		crudLatency.WithLabelValues(module, op).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(module, format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(module, format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(module, format).Observe(duration.Seconds())
	}
}

// AddAlerts increments the evaluated alert counter.
func AddAlerts(module, severity string, count int) {
	if count <= 0 {
		return
	}
	if severity == "" {
		severity = "unknown"
	}
	if alertsEvaluated != nil {
		alertsEvaluated.WithLabelValues(module, severity).Add(float64(count))
	}
}

// IncNotification increments notification counters.
func IncNotification(channel, result string) {
	if channel == "" {
		channel = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(channel, result).Inc()
	}
}

// ObserveDashboard records dashboard summary latency.
func ObserveDashboard(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if dashboardLatency != nil {
		dashboardLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncDigest increments digest run counter.
func IncDigest(result string) {
	if result == "" {
		result = resultSuccess
	}
	if digestTotal != nil {
		digestTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
