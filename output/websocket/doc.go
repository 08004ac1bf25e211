// Package websocket provides the push hub that broadcasts mental-command
// events to connected WebSocket subscribers.
//
// # Overview
//
// The hub runs a WebSocket server on the push port and subscribes to the
// command-event subject. Every event payload arrives already serialized;
// the hub forwards the bytes verbatim, so all subscribers see identical
// frames and the hub never needs to understand the event schema. A game
// engine, a browser overlay, and a logging script can all watch the same
// stream.
//
// # Quick Start
//
// Start a hub on the default push port:
//
//	output := websocket.NewOutput(8181, "/ws", "neuro.events.command", natsClient)
//	if err := output.Initialize(); err != nil { ... }
//	if err := output.Start(ctx); err != nil { ... }
//
// Or through the component factory:
//
//	config := websocket.DefaultConfig()
//	rawConfig, _ := json.Marshal(config)
//	output, err := websocket.CreateOutput(rawConfig, deps)
//
// # Subscriber Protocol
//
// Server to client: every frame is a complete JSON event,
//
//	{"ts":1712345678901,"type":"mental_command","action":"moveForward",
//	 "confidence":0.85,"durationMs":420,"source":"osc"}
//
// On connect the hub immediately sends a state snapshot in the same
// shape, so late joiners never wait for the next transition.
//
// Client to server: two literal text commands,
//
//	"ping"  → the hub answers with the text frame "pong"
//	"state" → the hub answers with a state snapshot, to that
//	          subscriber only
//
// State queries are rate limited per subscriber (StateQueriesPerSecond,
// default 5). Anything else a subscriber sends is logged at debug level
// and ignored.
//
// # State Snapshots
//
// Snapshots come from a StateSource wired in during pipeline assembly —
// normally the intent processor's Snapshot method:
//
//	hub.SetStateSource(intentProcessor)
//
// Without a source the hub falls back to the last event it broadcast.
//
// # Liveness
//
// A sweep runs every 30 seconds: each subscriber gets a WebSocket ping,
// and any subscriber whose last pong is older than two sweep cycles is
// forcibly closed and removed. Dead TCP peers would otherwise linger
// until the OS gave up on them.
//
// Removal is idempotent: read-loop exit, send failure, sweep eviction,
// and shutdown can all race to remove the same subscriber, and cleanup
// runs exactly once.
//
// # Failure Isolation
//
// Broadcasts fan out concurrently with a per-connection write mutex and
// a bounded write deadline. A subscriber that errors or stalls past the
// deadline is evicted on its own; the remaining subscribers receive the
// event undisturbed.
//
// # Message Flow
//
//	neuro.events.command → handleEvent → broadcast → one goroutine per
//	subscriber → WebSocket text frame
//
// A bind failure on the push port is fatal and aborts startup; a hub
// nobody can reach is not worth running.
package websocket
