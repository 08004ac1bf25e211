package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/neurostreams/errors"
)

// SourceCSV tags samples decoded from the comma-separated text encoding.
const SourceCSV = "csv"

// TextCodec reads and writes the "action,confidence" line format used by
// headset simulators and other non-OSC senders.
type TextCodec struct{}

// NewTextCodec creates a text codec.
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

// Format returns the source tag for this encoding.
func (c *TextCodec) Format() string {
	return SourceCSV
}

// Decode parses a trimmed "action,confidence" line: exactly two
// comma-separated fields, the first lowercased as the action, the second
// parsed as a floating-point literal.
func (c *TextCodec) Decode(data []byte) (Sample, error) {
	fields := strings.Split(strings.TrimSpace(string(data)), ",")
	if len(fields) != 2 {
		return Sample{}, fmt.Errorf("%w: want 2 comma-separated fields, got %d",
			errors.ErrDecodeFailed, len(fields))
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: confidence %q", errors.ErrInvalidData, fields[1])
	}

	return Sample{
		Action:     strings.ToLower(strings.TrimSpace(fields[0])),
		Confidence: confidence,
		Source:     SourceCSV,
	}, nil
}

// Encode renders an "action,confidence" line with two decimal places,
// matching the format headset simulators emit.
func (c *TextCodec) Encode(action string, confidence float64) []byte {
	return []byte(action + "," + strconv.FormatFloat(confidence, 'f', 2, 64))
}
