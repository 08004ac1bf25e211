package wire

import (
	"fmt"

	"github.com/c360/neurostreams/errors"
)

// Sample is one decoded classifier reading. It carries exactly what the
// datagram said: the action name is normalized to lower case, the
// confidence is not validated or clamped.
type Sample struct {
	Action     string
	Confidence float64
	// Source names the encoding the sample arrived in, SourceOSC or
	// SourceCSV.
	Source string
}

// Both codecs are stateless, so a single shared instance serves all
// callers.
var (
	oscCodec  = NewOSCCodec()
	textCodec = NewTextCodec()
)

// Decode attempts the supported encodings in a fixed order: binary OSC
// first, comma-separated text second. The first codec that accepts the
// datagram wins. If both reject it, the returned error carries the
// reason from each attempt and matches errors.ErrDecodeFailed.
func Decode(data []byte) (Sample, error) {
	sample, oscErr := oscCodec.Decode(data)
	if oscErr == nil {
		return sample, nil
	}

	sample, csvErr := textCodec.Decode(data)
	if csvErr == nil {
		return sample, nil
	}

	return Sample{}, fmt.Errorf("%w: osc: %v; csv: %v", errors.ErrDecodeFailed, oscErr, csvErr)
}
