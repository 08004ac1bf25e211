package natsclient

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/neurostreams/metric"
)

// connMetrics holds Prometheus metrics for the NATS connection.
// All methods are nil-safe so the client can record unconditionally.
type connMetrics struct {
	status     prometheus.Gauge       // Connection status (0=disconnected .. 4=circuit_open)
	rttSeconds prometheus.Gauge       // Last measured round-trip time to the server
	reconnects prometheus.Counter     // Total reconnections
	failures   prometheus.Counter     // Total connection failures
	errors     *prometheus.CounterVec // Async protocol errors by kind
}

// newConnMetrics creates and registers connection metrics with the provided registry.
func newConnMetrics(registry *metric.MetricsRegistry) (*connMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &connMetrics{
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neurostreams",
			Subsystem: "nats",
			Name:      "connection_status",
			Help:      "NATS connection status (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=circuit_open)",
		}),

		rttSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neurostreams",
			Subsystem: "nats",
			Name:      "rtt_seconds",
			Help:      "Round-trip time to the NATS server in seconds",
		}),

		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "nats",
			Name:      "reconnects_total",
			Help:      "Total number of NATS reconnections",
		}),

		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "nats",
			Name:      "connection_failures_total",
			Help:      "Total number of NATS connection failures",
		}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurostreams",
			Subsystem: "nats",
			Name:      "errors_total",
			Help:      "Total number of asynchronous NATS errors",
		}, []string{"kind"}),
	}

	// Register all metrics
	if err := registry.RegisterGauge("nats", "connection_status", m.status); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("nats", "rtt_seconds", m.rttSeconds); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("nats", "reconnects", m.reconnects); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("nats", "connection_failures", m.failures); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("nats", "errors", m.errors); err != nil {
		return nil, err
	}

	return m, nil
}

// recordStatus records the current connection status.
func (m *connMetrics) recordStatus(status ConnectionStatus) {
	if m != nil {
		m.status.Set(float64(status))
	}
}

// recordReconnect records a successful reconnection.
func (m *connMetrics) recordReconnect() {
	if m != nil {
		m.reconnects.Inc()
	}
}

// recordFailure records a connection failure.
func (m *connMetrics) recordFailure() {
	if m != nil {
		m.failures.Inc()
	}
}

// recordError records an asynchronous NATS error.
func (m *connMetrics) recordError(kind string) {
	if m != nil {
		m.errors.WithLabelValues(kind).Inc()
	}
}

// updateStats refreshes connection statistics.
// Called periodically by the background poller. Fails gracefully when disconnected.
func (m *connMetrics) updateStats(client *Client) {
	if m == nil {
		return
	}

	rtt, err := client.RTT()
	if err != nil {
		// Not connected - a stale RTT reading would mislead
		m.rttSeconds.Set(0)
		return
	}

	m.rttSeconds.Set(rtt.Seconds())
}

// startPoller starts a background goroutine that polls connection stats periodically.
// Returns a cancel function to stop the poller.
func (m *connMetrics) startPoller(ctx context.Context, client *Client, interval time.Duration) context.CancelFunc {
	if m == nil {
		return func() {} // No-op if metrics disabled
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.updateStats(client)
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}
