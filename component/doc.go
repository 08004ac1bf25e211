// Package component provides the core component infrastructure for NeuroStreams,
// enabling dynamic component discovery, registration, lifecycle management, and
// instance creation.
//
// # Overview
//
// The component package defines fundamental abstractions for all NeuroStreams
// components, supporting three component types: inputs (data sources), processors
// (data transformers), and outputs (data sinks). Components are self-describing
// units that can be discovered at runtime, configured through schemas, and managed
// through their lifecycle.
//
// The Registry serves as the central component management system, handling both
// factory registration and instance management with thread-safe operations and
// proper lifecycle control.
//
// # Component Registration Pattern
//
// NeuroStreams uses EXPLICIT registration rather than init() self-registration:
//
//  1. Each component package exports a Register(*Registry) error function
//  2. componentregistry.RegisterAll() orchestrates all registrations
//  3. main.go explicitly calls RegisterAll() with a created Registry
//  4. Components are now available for instantiation
//
// Example component registration:
//
//	// In input/udp/udp.go
//	func Register(registry *component.Registry) error {
//		return registry.RegisterWithConfig(component.RegistrationConfig{
//			Name:        "udp",
//			Factory:     CreateUDPInput,
//			Schema:      udpSchema,
//			Type:        "input",
//			Protocol:    "udp",
//			Domain:      "network",
//			Description: "UDP input component for headset data",
//			Version:     "1.0.0",
//		})
//	}
//
// This provides testability (isolated registries per test), an explicit component
// dependency graph, and no global state modification during package initialization.
//
// # Quick Start
//
// Creating and using a component:
//
//	registry := component.NewRegistry()
//	if err := componentregistry.RegisterAll(registry); err != nil {
//		return err
//	}
//
//	config := types.ComponentConfig{
//		Type:    types.ComponentTypeInput,
//		Name:    "udp",
//		Enabled: true,
//		Config:  json.RawMessage(`{"port": 13855, "bind_address": "0.0.0.0"}`),
//	}
//
//	deps := component.Dependencies{
//		NATSClient: natsClient,
//		Platform: component.PlatformMeta{
//			Org:      "c360",
//			Platform: "headset1",
//		},
//		Logger: slog.Default(),
//	}
//
//	instance, err := registry.CreateComponent("udp-input-1", config, deps)
//	if err != nil {
//		return err
//	}
//
//	meta := instance.Meta()
//	health := instance.Health()
//
// # Ports
//
// Components declare their inputs and outputs using strongly-typed ports that
// implement the Portable interface:
//
//   - NATSPort: core pub/sub messaging on NATS subjects
//   - NATSRequestPort: Request/reply pattern with timeouts
//   - NetworkPort: TCP/UDP network bindings for external connectivity
//
// NetworkPorts are exclusive resources; the Registry rejects a second instance
// claiming the same protocol/host/port binding.
//
// # Configuration Schema
//
// Components define their configuration through ConfigSchema, either by hand or
// generated from struct tags via GenerateConfigSchema. Configurations are checked
// with ValidateConfig, which compiles the schema to draft-07 JSON Schema and
// evaluates it with gojsonschema:
//
//	config := map[string]any{
//		"port": 99999, // Exceeds maximum
//	}
//
//	errors := component.ValidateConfig(config, schema)
//	if len(errors) > 0 {
//		// Returns: [{Field: "port", Message: `Field "port" must be <= 65535`, Code: "max"}]
//	}
//
// Validation is lenient: unknown fields are allowed for schema evolution, and
// components without schemas still work.
//
// # Lifecycle
//
// Components that implement LifecycleComponent follow the unified pattern:
// Initialize() does setup with no I/O, Start(ctx) begins processing, and
// Stop(timeout) shuts down gracefully. The service manager drives these
// transitions and tracks state through ManagedComponent.
//
// # Error Handling
//
// Registry operations return classified errors from the errors package, so
// callers can distinguish invalid configuration from factory failures:
//
//	_, err := registry.CreateComponent("instance-1", config, deps)
//	if errors.IsInvalid(err) {
//		// configuration error - do not retry
//	}
//
// # Testing
//
// The explicit registration pattern makes testing straightforward: create an
// isolated Registry per test, register only the components under test, and
// inject mock or containerized dependencies. Integration tests gate on the
// INTEGRATION_TESTS environment variable and share a containerized NATS
// server via natsclient.NewSharedTestClient.
package component
