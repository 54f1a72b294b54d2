package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerMetrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type ServiceMetrics struct {
	MethodCount        *prometheus.CounterVec
	MethodDuration     *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
}

type RepositoryMetrics struct {
	QueryCount    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

func NewHandlerMetrics(reg prometheus.Registerer) *HandlerMetrics {
	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_total",
			Help: "Total number of HTTP requests handled by the ad and user handlers.",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handler_request_duration_seconds",
			Help:    "Histogram of response latency for handler in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	reg.MustRegister(requestCount, requestDuration)

	return &HandlerMetrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
	}
}

func NewServiceMetrics(reg prometheus.Registerer) *ServiceMetrics {
	methodCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_methods_total",
			Help: "Total number of service methods executed.",
		},
		[]string{"method", "status"},
	)

	methodDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "service_method_duration_seconds",
			Help:    "Histogram of service method execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	validationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_ad_validation_failures_total",
			Help: "Ads rejected by validation, by category and first failing field.",
		},
		[]string{"category", "field"},
	)

	reg.MustRegister(methodCount, methodDuration, validationFailures)

	return &ServiceMetrics{
		MethodCount:        methodCount,
		MethodDuration:     methodDuration,
		ValidationFailures: validationFailures,
	}
}

func NewRepositoryMetrics(reg prometheus.Registerer) *RepositoryMetrics {
	queryCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_queries_total",
			Help: "Total number of ad and user repository operations executed.",
		},
		[]string{"backend", "operation", "status"},
	)

	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_query_duration_seconds",
			Help:    "Histogram of repository operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation", "status"},
	)

	reg.MustRegister(queryCount, queryDuration)

	return &RepositoryMetrics{
		QueryCount:    queryCount,
		QueryDuration: queryDuration,
	}
}

// Observe records one request. A nil receiver records nothing.
func (hm *HandlerMetrics) Observe(method, endpoint, status string, started time.Time) {
	if hm == nil {
		return
	}
	duration := time.Since(started).Seconds()
	hm.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	hm.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}

func (sm *ServiceMetrics) Observe(method, status string, started time.Time) {
	if sm == nil {
		return
	}
	duration := time.Since(started).Seconds()
	sm.MethodCount.WithLabelValues(method, status).Inc()
	sm.MethodDuration.WithLabelValues(method, status).Observe(duration)
}

func (sm *ServiceMetrics) ValidationFailed(category, field string) {
	if sm == nil {
		return
	}
	sm.ValidationFailures.WithLabelValues(category, field).Inc()
}

func (rm *RepositoryMetrics) Observe(backend, operation, status string, started time.Time) {
	if rm == nil {
		return
	}
	duration := time.Since(started).Seconds()
	rm.QueryCount.WithLabelValues(backend, operation, status).Inc()
	rm.QueryDuration.WithLabelValues(backend, operation, status).Observe(duration)
}

// HTTPHandler exposes everything registered on g.
func HTTPHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
