package intent

import (
	"time"

	"github.com/c360/neurostreams/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// intentMetrics holds Prometheus metrics for intent processor operations.
type intentMetrics struct {
	// Sample counters
	samplesTotal *prometheus.CounterVec // By component and outcome (broadcast/suppressed/error)
	transitions  *prometheus.CounterVec // By component
	errors       *prometheus.CounterVec // By component and error_type

	// Performance metrics
	processDuration *prometheus.HistogramVec // By component
}

// newIntentMetrics creates and registers intent metrics with the provided registry.
func newIntentMetrics(registry *metric.MetricsRegistry, componentName string) (*intentMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &intentMetrics{
		samplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "intent",
			Name:      "samples_total",
			Help:      "Samples run through the filter, by outcome",
		}, []string{"component", "outcome"}), // outcome: broadcast, suppressed, error

		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "intent",
			Name:      "transitions_total",
			Help:      "Committed action transitions, including returns to neutral",
		}, []string{"component"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "intent",
			Name:      "errors_total",
			Help:      "Sample handling errors",
		}, []string{"component", "error_type"}), // error_type: parse, serialize, publish

		processDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neurostreams",
			Subsystem: "intent",
			Name:      "process_duration_seconds",
			Help:      "Per-sample filter processing duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01}, // Filter work is pure computation
		}, []string{"component"}),
	}

	// Register all metrics
	if err := registry.RegisterCounterVec("intent", "samples_total", m.samplesTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("intent", "transitions", m.transitions); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("intent", "errors", m.errors); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("intent", "process_duration", m.processDuration); err != nil {
		return nil, err
	}

	return m, nil
}

// recordSample records one processed sample and its broadcast outcome.
func (m *intentMetrics) recordSample(componentName string, broadcast bool, duration time.Duration) {
	if m == nil {
		return
	}

	outcome := "suppressed"
	if broadcast {
		outcome = "broadcast"
	}

	m.samplesTotal.WithLabelValues(componentName, outcome).Inc()
	m.processDuration.WithLabelValues(componentName).Observe(duration.Seconds())
}

// recordTransition records one committed action transition.
func (m *intentMetrics) recordTransition(componentName string) {
	if m == nil {
		return
	}

	m.transitions.WithLabelValues(componentName).Inc()
}

// recordError records a sample handling error.
func (m *intentMetrics) recordError(componentName, errorType string) {
	if m == nil {
		return
	}

	m.errors.WithLabelValues(componentName, errorType).Inc()
	m.samplesTotal.WithLabelValues(componentName, "error").Inc()
}
