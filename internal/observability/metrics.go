package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/squareit/account-service/internal/domain"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a no-op.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	RotationsTotal     *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the service metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "account_service_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_http_errors_total",
				Help: "Total number of error responses by error code",
			},
			[]string{"code"},
		),
		RotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_token_rotations_total",
				Help: "Total number of session token rotations by mode",
			},
			[]string{"mode"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_guard_rejections_total",
				Help: "Total number of session guard rejections by error code",
			},
			[]string{"code"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_service_notifications_total",
				Help: "Total number of notifications by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ErrorsTotal,
		m.RotationsTotal,
		m.RejectionsTotal,
		m.NotificationsTotal,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(code).Inc()
}

// RecordRotation counts a committed token rotation.
func (m *Metrics) RecordRotation(mode domain.RotationMode) {
	if m == nil {
		return
	}
	m.RotationsTotal.WithLabelValues(string(mode)).Inc()
}

// RecordRejection counts a request refused by the session guard.
func (m *Metrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(code).Inc()
}

// RecordNotification counts a notification outcome such as "queued" or "delivered".
func (m *Metrics) RecordNotification(kind domain.NotificationKind, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(string(kind), outcome).Inc()
}
