package message

import (
	"encoding/json"

	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/pkg/timestamp"
)

// TypeMentalCommand is the type label carried by every broadcast event.
const TypeMentalCommand = "mental_command"

// BrainEvent is the JSON object broadcast to push clients. The field set and
// names are the wire contract: ts, type, action, confidence, durationMs,
// source. Nothing else is emitted.
type BrainEvent struct {
	Timestamp  int64   `json:"ts"`         // broadcast time, Unix milliseconds
	Type       string  `json:"type"`       // always "mental_command"
	Action     string  `json:"action"`     // mapped action label
	Confidence float64 `json:"confidence"` // confidence of the triggering sample
	DurationMs int64   `json:"durationMs"` // how long the action has been active
	Source     string  `json:"source"`     // wire encoding of the triggering sample, "osc" or "csv"
}

// NewBrainEvent builds a mental_command event stamped with the current time.
func NewBrainEvent(action string, confidence float64, durationMs int64, source string) BrainEvent {
	return BrainEvent{
		Timestamp:  timestamp.Now(),
		Type:       TypeMentalCommand,
		Action:     action,
		Confidence: confidence,
		DurationMs: durationMs,
		Source:     source,
	}
}

// Marshal serializes the event for broadcast. It fails for non-finite
// confidence values, which JSON cannot represent; callers treat that as a
// skipped broadcast, not a fatal condition.
func (e BrainEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WrapInvalid(err, "BrainEvent", "Marshal", "encode event")
	}
	return data, nil
}

// UnmarshalBrainEvent parses a broadcast payload back into an event.
func UnmarshalBrainEvent(data []byte) (BrainEvent, error) {
	var e BrainEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BrainEvent{}, errors.WrapInvalid(err, "BrainEvent", "Unmarshal", "decode event")
	}
	return e, nil
}

// Validate checks the structural fields of the event. Confidence is passed
// through without range checks so clients see what the headset reported.
func (e BrainEvent) Validate() error {
	if e.Type != TypeMentalCommand {
		return errors.WrapInvalid(errors.ErrInvalidData, "BrainEvent", "Validate", "unexpected type "+e.Type)
	}
	if e.Action == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "BrainEvent", "Validate", "empty action")
	}
	if err := timestamp.Validate(e.Timestamp); err != nil {
		return errors.WrapInvalid(err, "BrainEvent", "Validate", "timestamp check")
	}
	if e.DurationMs < 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "BrainEvent", "Validate", "negative duration")
	}
	return nil
}
