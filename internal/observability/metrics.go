package observability

import (
	"errors"
	"strconv"
	"task_tracker/internal/apperr"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every application metric. A nil *Metrics is valid and
// records nothing, so services can be built without instrumentation.
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Task Metrics
	TaskOperationsTotal *prometheus.CounterVec

	// Auth Metrics
	AuthAttemptsTotal      *prometheus.CounterVec
	SessionRejectionsTotal *prometheus.CounterVec

	// Store Metrics
	StoreOperationDuration *prometheus.HistogramVec

	// Queue (RabbitMQ) Metrics
	QueueMessagesPublished *prometheus.CounterVec
	QueuePublishFailures   *prometheus.CounterVec
	QueueMessagesConsumed  *prometheus.CounterVec
}

// NewMetrics registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		TaskOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "task_operations_total",
				Help: "Total number of task operations by outcome",
			},
			[]string{"operation", "outcome"},
		),

		AuthAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of registration and login attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),

		SessionRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_rejections_total",
				Help: "Total number of rejected bearer tokens by internal reason",
			},
			[]string{"reason"}, // invalid_token, unknown_user
		),

		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_operation_duration_seconds",
				Help:    "Duration of document store calls in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"backend", "operation", "outcome"},
		),

		QueueMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Total number of messages published to the queue",
			},
			[]string{"queue_name"},
		),

		QueuePublishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_publish_failures_total",
				Help: "Total number of messages that could not be published",
			},
			[]string{"queue_name"},
		),

		QueueMessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_consumed_total",
				Help: "Total number of messages consumed from the queue",
			},
			[]string{"queue_name", "event_type"},
		),
	}
}

// Outcome turns an operation result into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveTaskOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.TaskOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveAuthAttempt(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveSessionRejection(reason string) {
	if m == nil {
		return
	}
	m.SessionRejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveStoreOperation(backend, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreOperationDuration.WithLabelValues(backend, operation, Outcome(err)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObservePublish(queueName string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.QueuePublishFailures.WithLabelValues(queueName).Inc()
		return
	}
	m.QueueMessagesPublished.WithLabelValues(queueName).Inc()
}

func (m *Metrics) ObserveConsumed(queueName, eventType string) {
	if m == nil {
		return
	}
	m.QueueMessagesConsumed.WithLabelValues(queueName, eventType).Inc()
}

// StartHTTPRequest marks a request in flight. The returned func records it
// once the response status is known.
func (m *Metrics) StartHTTPRequest() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}

	start := time.Now()
	m.HTTPRequestsInFlight.Inc()
	return func(method, route string, status int) {
		m.HTTPRequestsInFlight.Dec()
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
