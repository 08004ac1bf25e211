// Package health provides health monitoring for pipeline components with
// thread-safe status tracking and aggregation.
//
// Each component reports one of three states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model lets a lagging broadcaster show up as degraded while
// a dead UDP socket shows up as unhealthy, so operators can tell which
// response is called for.
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("udp-input", "Socket bound, packets flowing")
//	monitor.UpdateDegraded("websocket-output", "Liveness sweep evicted 2 subscribers")
//	monitor.UpdateUnhealthy("intent-filter", "NATS subscription lost")
//
//	if status, exists := monitor.Get("udp-input"); exists && status.IsHealthy() {
//	    log.Println("UDP input is healthy")
//	}
//
// # System-Wide Aggregation
//
// AggregateHealth combines all monitored components into one status using
// worst-case rules: any unhealthy component marks the system unhealthy, any
// degraded component (with none unhealthy) marks it degraded.
//
//	systemHealth := monitor.AggregateHealth("neurostreams")
//	if systemHealth.IsUnhealthy() {
//	    log.Printf("System unhealthy: %s", systemHealth.Message)
//	}
//
// # Component Integration
//
// FromComponentHealth converts a component.HealthStatus into a health.Status
// and sanitizes the error message on the way through, replacing URLs, file
// paths, IP addresses, ports, and credential-shaped fragments with
// placeholders. Health endpoints should never leak where the pipeline
// connects to.
//
//	status := health.FromComponentHealth("udp-input", comp.Health())
//
// # Thread Safety
//
// All Monitor operations are safe for concurrent use; the monitor holds an
// RWMutex so reads proceed in parallel. Status is a value type and the
// With* methods return copies, so a status handed out through Get or GetAll
// can be modified freely without affecting the monitor.
package health
