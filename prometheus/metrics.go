package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"licity-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	LoginCounter        prometheus.Counter
	RegisterCounter     prometheus.Counter
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorCounter    prometheus.CounterVec

	// Tenant and scope metrics
	TenantOperationsCounter  prometheus.CounterVec
	ScopeOperationsCounter   prometheus.CounterVec
	ScopeFallbackCounter     prometheus.Counter
	EmptyScopeShortCircuits  prometheus.Counter
	CrossTenantRejectCounter prometheus.Counter

	// Domain entity metrics
	EntityOperationsCounter prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Tenant specific metrics
	MembershipsPerTenantGauge prometheus.GaugeVec

	// Document storage metrics
	StorageOperationsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_logins_total",
			Help: "Total number of login requests",
		},
	)

	RegisterCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of registration requests",
		},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by type",
		},
		[]string{"type"},
	)

	TenantOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"},
	)

	ScopeOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_scope_operations_total",
			Help: "Total number of scope selection operations",
		},
		[]string{"operation"},
	)

	ScopeFallbackCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scope_fallbacks_total",
			Help: "Total number of stale scope selections corrected to a valid scope",
		},
	)

	EmptyScopeShortCircuits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_empty_scope_short_circuits_total",
			Help: "Total number of list queries answered empty without touching the database",
		},
	)

	CrossTenantRejectCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_cross_tenant_rejects_total",
			Help: "Total number of mutations rejected for a tenant outside the caller's memberships",
		},
	)

	EntityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of domain entity operations",
		},
		[]string{"entity", "operation"},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	MembershipsPerTenantGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_memberships_per_tenant",
			Help: "Number of memberships per tenant",
		},
		[]string{"tenant_id", "tenant_name"},
	)

	StorageOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_storage_operations_total",
			Help: "Total number of blob storage operations",
		},
		[]string{"operation"},
	)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			HttpRequestDuration.With(prometheus.Labels{
				"path":   endpoint,
				"method": method,
				"status": status,
			}).Observe(duration)

			HttpRequestsTotal.With(prometheus.Labels{
				"path":   endpoint,
				"method": method,
				"status": status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordTenantOperation increments the counter for tenant operations
func RecordTenantOperation(operation string) {
	TenantOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordScopeOperation increments the counter for scope operations
func RecordScopeOperation(operation string) {
	ScopeOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordEntityOperation increments the counter for domain entity operations
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordStorageOperation increments the counter for blob storage operations
func RecordStorageOperation(operation string) {
	StorageOperationsCounter.WithLabelValues(operation).Inc()
}

// UpdateMembershipsPerTenant updates the gauge for memberships per tenant
func UpdateMembershipsPerTenant(tenantID uint, tenantName string, count int) {
	MembershipsPerTenantGauge.WithLabelValues(
		strconv.FormatUint(uint64(tenantID), 10),
		tenantName,
	).Set(float64(count))
}
