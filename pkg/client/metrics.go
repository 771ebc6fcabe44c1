package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures session metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "live").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
}

// MetricsOption configures session metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// Metrics holds the Prometheus collectors of a session. A nil *Metrics
// records nothing.
type Metrics struct {
	connects          prometheus.Counter
	connectFailures   prometheus.Counter
	reconnects        prometheus.Counter
	framesReceived    prometheus.Counter
	framesSent        prometheus.Counter
	protocolErrors    *prometheus.CounterVec
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	outboxDepth       prometheus.Gauge
	outboxEvicted     prometheus.Counter
	boundElements     prometheus.Gauge
}

// NewMetrics registers session collectors with reg.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "live",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		connects:        counter("connects_total", "Total number of sockets opened"),
		connectFailures: counter("connect_failures_total", "Total number of transport errors"),
		reconnects:      counter("reconnects_scheduled_total", "Total number of scheduled reconnects"),
		framesReceived:  counter("frames_received_total", "Total number of frames received"),
		framesSent:      counter("frames_sent_total", "Total number of frames written to the socket"),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "protocol_errors_total",
			Help:        "Total number of frames rejected by the decoder",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "operations_total",
			Help:        "Total number of operations applied",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "operation_duration_seconds",
			Help:        "Operation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		outboxDepth:   gauge("outbox_depth", "Number of buffered messages"),
		outboxEvicted: counter("outbox_evicted_total", "Total number of buffered messages dropped"),
		boundElements: gauge("bound_elements", "Number of bound elements"),
	}
}

func (m *Metrics) recordConnect() {
	if m != nil {
		m.connects.Inc()
	}
}

func (m *Metrics) recordConnectFailure() {
	if m != nil {
		m.connectFailures.Inc()
	}
}

func (m *Metrics) recordReconnect() {
	if m != nil {
		m.reconnects.Inc()
	}
}

func (m *Metrics) recordFrameReceived() {
	if m != nil {
		m.framesReceived.Inc()
	}
}

func (m *Metrics) recordFrameSent() {
	if m != nil {
		m.framesSent.Inc()
	}
}

func (m *Metrics) recordProtocolError(code string) {
	if m != nil {
		m.protocolErrors.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) recordOperation(op, status string, d time.Duration) {
	if m != nil {
		m.operations.WithLabelValues(op, status).Inc()
		m.operationDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}

func (m *Metrics) setOutboxDepth(n int) {
	if m != nil {
		m.outboxDepth.Set(float64(n))
	}
}

func (m *Metrics) recordOutboxEvicted() {
	if m != nil {
		m.outboxEvicted.Inc()
	}
}

func (m *Metrics) setBound(n int) {
	if m != nil {
		m.boundElements.Set(float64(n))
	}
}
