package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/c360/neurostreams/errors"
)

// SourceOSC tags samples decoded from the binary OSC encoding.
const SourceOSC = "osc"

// oscAddressPrefix is the address namespace headset telemetry publishes
// mental commands under, e.g. /com/push.
const oscAddressPrefix = "/com/"

// minOSCLength is the smallest buffer that can hold a padded address
// plus a payload word. Anything shorter is rejected before parsing.
const minOSCLength = 8

// OSCCodec reads and writes Open Sound Control messages that carry a
// single float32 argument.
type OSCCodec struct{}

// NewOSCCodec creates an OSC codec.
func NewOSCCodec() *OSCCodec {
	return &OSCCodec{}
}

// Format returns the source tag for this encoding.
func (c *OSCCodec) Format() string {
	return SourceOSC
}

// Decode parses an OSC message: a /-prefixed, NUL-terminated address
// padded to a four-byte boundary, a type-tag field with the same
// termination and padding, then a big-endian IEEE-754 float32. The last
// /-delimited address segment, lowercased, becomes the action.
func (c *OSCCodec) Decode(data []byte) (Sample, error) {
	if len(data) < minOSCLength {
		return Sample{}, fmt.Errorf("%w: %d bytes", errors.ErrTruncatedDatagram, len(data))
	}
	if data[0] != '/' {
		return Sample{}, fmt.Errorf("%w: missing address prefix", errors.ErrDecodeFailed)
	}
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return Sample{}, fmt.Errorf("%w: unterminated address", errors.ErrDecodeFailed)
	}

	address := string(data[:nul])
	action := strings.ToLower(address[strings.LastIndexByte(address, '/')+1:])

	// Each string field occupies its bytes plus the NUL terminator,
	// padded out to the next four-byte boundary.
	cursor := pad4(nul + 1)
	if cursor >= len(data) {
		return Sample{}, fmt.Errorf("%w: no type tag after address", errors.ErrTruncatedDatagram)
	}
	tagEnd := bytes.IndexByte(data[cursor:], 0)
	if tagEnd < 0 {
		return Sample{}, fmt.Errorf("%w: unterminated type tag", errors.ErrDecodeFailed)
	}
	cursor = pad4(cursor + tagEnd + 1)
	if cursor+4 > len(data) {
		return Sample{}, fmt.Errorf("%w: no argument after type tag", errors.ErrTruncatedDatagram)
	}

	bits := binary.BigEndian.Uint32(data[cursor:])
	return Sample{
		Action:     action,
		Confidence: float64(math.Float32frombits(bits)),
		Source:     SourceOSC,
	}, nil
}

// Encode builds an OSC message for action under the mental-command
// address namespace, carrying confidence as its float32 argument.
func (c *OSCCodec) Encode(action string, confidence float64) []byte {
	return c.EncodeAddress(oscAddressPrefix+action, confidence)
}

// EncodeAddress builds an OSC message for an arbitrary address.
func (c *OSCCodec) EncodeAddress(address string, confidence float64) []byte {
	buf := make([]byte, 0, pad4(len(address)+1)+4+4)
	buf = appendPadded(buf, address)
	buf = appendPadded(buf, ",f")

	var arg [4]byte
	binary.BigEndian.PutUint32(arg[:], math.Float32bits(float32(confidence)))
	return append(buf, arg[:]...)
}

// appendPadded appends s, its NUL terminator, and zero padding up to
// the next four-byte boundary.
func appendPadded(buf []byte, s string) []byte {
	buf = append(buf, s...)
	for n := pad4(len(s)+1) - len(s); n > 0; n-- {
		buf = append(buf, 0)
	}
	return buf
}

// pad4 rounds n up to the next multiple of four.
func pad4(n int) int {
	return (n + 3) &^ 3
}
