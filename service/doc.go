// Package service provides service lifecycle management and component
// orchestration for the neurostreams pipeline.
//
// # Core Service Types
//
// BaseService: Foundation for all services with standardized lifecycle
// management:
//   - Lifecycle states: Stopped → Starting → Running → Stopping
//   - Health monitoring with periodic checks
//   - Metrics integration with CoreMetrics registry
//   - Context-based cancellation and graceful shutdown
//
// Manager: Central orchestration of service lifecycle:
//   - Service creation from registered constructors
//   - Mandatory component-manager creation
//   - Start in creation order, stop in reverse order
//   - Health aggregation across all services
//
// ComponentManager: Pipeline component lifecycle management:
//   - Component instantiation from registry factories and config
//   - Phased startup (outputs → processors → inputs) so downstream stages
//     subscribe before upstream stages produce
//   - Reverse-phase parallel shutdown with bounded timeouts
//   - Exclusive port/resource conflict detection
//   - Health monitoring of managed components
//
// Metrics: Prometheus metrics HTTP endpoint as a managed service.
//
// # Service Patterns
//
// All services follow the standardized constructor pattern with dependency
// injection:
//
//	func NewSomeService(rawConfig json.RawMessage, deps *Dependencies) (Service, error)
//
// Constructors are registered by name in a Registry (see RegisterAll), and
// the Manager instantiates them from the loaded configuration snapshot.
package service
