package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtracker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtracker_operation_duration_seconds",
		Help:    "Duration of pipeline operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	operationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_operation_outcomes_total",
		Help: "Count of pipeline operations by outcome",
	}, []string{"operation", "outcome"})

	slowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_slow_operations_total",
		Help: "Count of operations that exceeded the slow operation threshold",
	}, []string{"operation"})

	tenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_tenant_resolutions_total",
		Help: "Count of tenant resolutions by final state and source",
	}, []string{"state", "source"})

	maintenanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_maintenance_runs_total",
		Help: "Count of background maintenance runs by task and result",
	}, []string{"task", "result"})

	maintenanceAffected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_maintenance_rows_total",
		Help: "Rows changed by background maintenance",
	}, []string{"task"})

	loginThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobtracker_login_throttled_total",
		Help: "Login attempts rejected by the throttle",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOperation records one pipeline run.
func ObserveOperation(operation, outcome string, duration time.Duration, slow bool) {
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	operationOutcomes.WithLabelValues(operation, outcome).Inc()
	if slow {
		slowOperations.WithLabelValues(operation).Inc()
	}
}

func ObserveTenantResolution(state, source string) {
	tenantResolutions.WithLabelValues(state, source).Inc()
}

// ObserveMaintenance records a scheduler task run and the rows it touched.
func ObserveMaintenance(task, result string, affected int) {
	maintenanceRuns.WithLabelValues(task, result).Inc()
	if affected > 0 {
		maintenanceAffected.WithLabelValues(task).Add(float64(affected))
	}
}

func IncrementLoginThrottled() {
	loginThrottled.Inc()
}
