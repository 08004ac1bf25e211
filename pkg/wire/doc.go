// Package wire decodes and encodes the two datagram formats spoken by
// mental-command senders.
//
// # Formats
//
// Headsets publish commands as binary OSC messages: a NUL-terminated
// address like /com/push padded to a four-byte boundary, a type-tag
// field with the same termination and padding, then the confidence as a
// big-endian IEEE-754 float32. The last address segment, lowercased, is
// the action name.
//
// Simulators and scripts use a plain text line instead:
//
//	push,0.85
//
// Exactly two comma-separated fields: the action (trimmed, lowercased)
// and the confidence as a floating-point literal.
//
// # Decoding
//
// Decode tries the OSC codec first and falls back to the text codec, so
// a listener needs no out-of-band knowledge of which sender is on the
// other end:
//
//	sample, err := wire.Decode(datagram)
//	if err != nil {
//	    // not a recognizable command in either encoding
//	}
//
// Each Sample records which codec produced it in Sample.Source ("osc"
// or "csv"). Confidence values are carried exactly as transmitted,
// including NaN and out-of-range values; policy belongs to the filter,
// not the codec.
//
// # Encoding
//
// Both codecs also encode, which the sender utility uses to exercise a
// pipeline without headset hardware:
//
//	wire.NewOSCCodec().Encode("push", 0.85)  // binary OSC under /com/
//	wire.NewTextCodec().Encode("push", 0.85) // "push,0.85"
package wire
