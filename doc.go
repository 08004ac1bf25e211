// Package neurostreams turns noisy brain-computer interface classifier
// output into clean, rate-limited control events.
//
// # Overview
//
// A BCI headset's mental-command classifier emits a continuous stream of
// (action, confidence) samples over UDP, dozens of times per second, with
// jitter: confidence values flap around thresholds, actions flicker between
// candidates, and consumers (games, robots, dashboards) cannot act on raw
// samples directly. NeuroStreams sits between the classifier and those
// consumers and applies three stages of conditioning:
//
//  1. Hysteresis: an action must exceed onThreshold to become desired and
//     drop below offThreshold to release, eliminating threshold flapping.
//  2. Debounce: a desired action must hold stable for debounceMs before it
//     commits, eliminating transient misclassifications.
//  3. Rate limiting + dedup: committed state broadcasts at most rateHz
//     times per second, and identical consecutive events are suppressed
//     (with a 1s heartbeat so late subscribers still converge).
//
// The result is a stream of BrainEvents a downstream consumer can bind
// directly to actions.
//
// # Architecture
//
// Components communicate over NATS subjects and are orchestrated by the
// service layer:
//
//	┌──────────────┐         ┌──────────────┐         ┌──────────────┐
//	│  UDP Input   │         │    Intent    │         │  WebSocket   │
//	│  :7400       │────────→│  Processor   │────────→│  Output      │
//	│  OSC / CSV   │ decoded │  hysteresis  │ command │  :8181/ws    │
//	└──────────────┘ samples │  debounce    │ events  └──────────────┘
//	                         │  rate limit  │
//	                         └──────────────┘
//	     neuro.samples.decoded      neuro.events.command
//
// Each component is independently testable and replaceable: the processor
// does not know samples arrived over UDP, and the output does not know
// events came from a debounce filter. Swapping the input for a file
// replayer or adding a second output is a configuration change.
//
// # Wire Protocols
//
// The UDP input accepts two datagram formats, tried in order:
//
//   - OSC binary: a "/"-prefixed address whose final segment names the
//     action, followed by a type tag and a big-endian float32 confidence.
//     This is what EmotivBCI and similar headset software ship natively.
//   - CSV text: "action,confidence" as UTF-8, convenient for testing with
//     netcat or the bundled neurosend tool.
//
// Datagrams matching neither format are dropped with a debug log entry;
// ingestion never stalls on garbage.
//
// # Framework Packages
//
// Component system:
//   - component: lifecycle, registry, port definitions, schema generation
//   - componentregistry: registration of all pipeline components
//
// Pipeline components:
//   - input/udp: UDP socket ingestion and datagram decoding
//   - processor/intent: hysteresis, debounce, and broadcast gating
//   - output/websocket: WebSocket fan-out hub with liveness sweeps
//
// Infrastructure:
//   - natsclient: NATS connection management with reconnect handling
//   - service: service manager, component manager, metrics endpoint
//   - config: layered configuration (defaults, file, environment)
//   - metric: Prometheus metrics registry
//   - health: component health reporting
//   - errors: structured errors with severity and category
//
// Utilities:
//   - pkg/wire: OSC and CSV codecs shared by the input and test senders
//   - pkg/buffer: bounded ring buffer for ingestion handoff
//   - pkg/retry: retry policies for transient failures
//   - pkg/timestamp: epoch-millisecond time helpers
//
// # Usage
//
// Basic pipeline setup:
//
//	// Create NATS client
//	natsClient, _ := natsclient.NewClient("nats://localhost:4222")
//	natsClient.Connect(ctx)
//
//	// Register components
//	registry := component.NewRegistry()
//	componentregistry.Register(registry)
//
//	// Create services from configuration
//	manager := service.NewServiceManager(serviceRegistry)
//	manager.CreateFromConfig(cfg.Services, deps)
//	manager.StartAll(ctx)
//
// Custom input component:
//
//	func RegisterSerialInput(registry *component.Registry) error {
//	    return registry.RegisterWithConfig(component.RegistrationConfig{
//	        Name:        "serial",
//	        Factory:     CreateSerialInput,
//	        Schema:      serialSchema,
//	        Type:        "input",
//	        Protocol:    "serial",
//	        Domain:      "network",
//	        Description: "Serial port input for wired headsets",
//	        Version:     "1.0.0",
//	    })
//	}
//
// # Design Principles
//
// Separation of concerns:
//   - Decoding ≠ filtering ≠ broadcasting
//   - Components connect via NATS subjects, never direct calls
//
// Testability:
//   - Explicit dependencies (no globals)
//   - Isolated component testing with injected clocks
//   - Integration tests with testcontainers
//
// Determinism:
//   - Filter state has a single owner; samples process in arrival order
//   - All gating decisions derive from one timestamp per sample
//
// # Binary
//
// Build and run the pipeline:
//
//	task build
//	./bin/neurostreams --config configs/neurostreams.json
//
// Use cmd/neurosend to exercise a running pipeline with synthetic
// classifier traffic, and cmd/schema-exporter to dump component
// configuration schemas.
package neurostreams
