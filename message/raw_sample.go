package message

import (
	"encoding/json"
	"math"

	"github.com/c360/neurostreams/errors"
)

// RawSample is one decoded mental-command reading from the headset, produced
// by the UDP input and consumed by the intent processor.
type RawSample struct {
	// Action is the lowercased command label, e.g. "push" or "neutral".
	Action string

	// Confidence is the value the headset reported, passed through
	// unaltered. May be NaN or out of [0,1] for misbehaving senders.
	Confidence float64

	// Source names the wire encoding the datagram arrived in, "osc" or
	// "csv". Carried through to the broadcast event.
	Source string

	// ReceivedAt is the datagram arrival time in Unix milliseconds.
	ReceivedAt int64
}

// rawSampleWire is the JSON form of RawSample. Confidence is a pointer so
// non-finite values can be carried as null; encoding/json rejects NaN and
// the infinities outright.
type rawSampleWire struct {
	Action     string   `json:"action"`
	Confidence *float64 `json:"confidence"`
	Source     string   `json:"source"`
	ReceivedAt int64    `json:"receivedAt"`
}

// MarshalJSON implements json.Marshaler. Non-finite confidence values are
// encoded as null.
func (s RawSample) MarshalJSON() ([]byte, error) {
	wire := rawSampleWire{
		Action:     s.Action,
		Source:     s.Source,
		ReceivedAt: s.ReceivedAt,
	}
	if !math.IsNaN(s.Confidence) && !math.IsInf(s.Confidence, 0) {
		c := s.Confidence
		wire.Confidence = &c
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler. A null or missing confidence
// comes back as NaN.
func (s *RawSample) UnmarshalJSON(data []byte) error {
	var wire rawSampleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapInvalid(err, "RawSample", "UnmarshalJSON", "decode wire format")
	}

	s.Action = wire.Action
	s.Source = wire.Source
	s.ReceivedAt = wire.ReceivedAt
	if wire.Confidence != nil {
		s.Confidence = *wire.Confidence
	} else {
		s.Confidence = math.NaN()
	}
	return nil
}

// Validate checks the structural fields of the sample. Confidence is
// deliberately not range-checked; the filter sees whatever the headset sent.
func (s RawSample) Validate() error {
	if s.Action == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "RawSample", "Validate", "empty action")
	}
	if s.ReceivedAt < 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "RawSample", "Validate", "negative arrival time")
	}
	return nil
}
