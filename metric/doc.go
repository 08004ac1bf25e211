// Package metric provides Prometheus-based metrics collection and an HTTP
// server for pipeline monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, message flow, NATS health) and custom
// component-specific metrics, plus an HTTP server exposing everything in
// Prometheus format.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("udp-input", 2) // 2 = running
//	coreMetrics.RecordMessageReceived("udp-input", "raw_sample")
//
// Metrics are served at http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// The registry automatically registers platform metrics under the
// "neurostreams" namespace:
//
//   - neurostreams_service_status{service} (0=stopped, 1=starting, 2=running, 3=stopping)
//   - neurostreams_messages_received_total{service,message_type}
//   - neurostreams_messages_processed_total{service,message_type,status}
//   - neurostreams_messages_published_total{service,subject}
//   - neurostreams_processing_duration_seconds{service,operation}
//   - neurostreams_errors_total{service,error_type}
//   - neurostreams_health_status{service}
//   - neurostreams_nats_connected, neurostreams_nats_rtt_milliseconds,
//     neurostreams_nats_reconnects_total
//
// Record through the shared instance returned by CoreMetrics.
//
// # Component-Specific Metrics
//
// Components register their own metrics through the MetricsRegistrar
// interface, which the registry implements:
//
//	packets := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "neurostreams",
//	    Subsystem: "udp_input",
//	    Name:      "packets_received_total",
//	    Help:      "Datagrams read from the UDP socket",
//	})
//	err := registry.RegisterCounter("udp-input", "packets_received_total", packets)
//
// Registration fails on duplicate (service, metric) keys and on conflicts
// inside the underlying Prometheus registry. Unregister removes a metric by
// the same key.
//
// # HTTP Server
//
// The server exposes three endpoints:
//
//   - GET /         - HTML index linking to the other endpoints
//   - GET /metrics  - Prometheus-formatted metrics (path configurable)
//   - GET /health   - JSON health check
//
// Start blocks until Stop is called or the listener fails; run it in a
// goroutine. Stop shuts the listener down and Start returns nil.
//
// # Thread Safety
//
// All registry operations are safe for concurrent use. Registration methods
// take a mutex; metric recording is lock-free per the Prometheus client's
// guarantees; CoreMetrics and PrometheusRegistry return shared thread-safe
// instances.
package metric
