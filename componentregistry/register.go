// Package componentregistry registers every NeuroStreams pipeline component.
package componentregistry

import (
	"errors"

	"github.com/c360/neurostreams/component"
	pkgerrors "github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/input/udp"
	"github.com/c360/neurostreams/output/websocket"
	"github.com/c360/neurostreams/processor/intent"
)

// Register registers all NeuroStreams components with the provided registry:
//
//   - UDP input (headset datagrams, OSC and CSV)
//   - Intent processor (hysteresis, debounce, broadcast gating)
//   - WebSocket output (push hub for downstream consumers)
func Register(registry *component.Registry) error {
	// CRITICAL: Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	// Inputs
	if err := udp.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "UDP input component registration")
	}

	// Processors
	if err := intent.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "intent processor component registration")
	}

	// Outputs
	if err := websocket.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "WebSocket output component registration")
	}

	return nil
}
