package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/neurostreams/errors"
)

func TestOSCCodec(t *testing.T) {
	codec := NewOSCCodec()
	assert.Equal(t, "osc", codec.Format())

	t.Run("headset message", func(t *testing.T) {
		// /com/push padded to 12 bytes, ",f" tag padded to 4, then
		// 0.85 as a big-endian float32.
		data := []byte("/com/push\x00\x00\x00,f\x00\x00\x3f\x59\x99\x9a")

		sample, err := codec.Decode(data)
		require.NoError(t, err)

		assert.Equal(t, "push", sample.Action)
		assert.InDelta(t, 0.85, sample.Confidence, 1e-6)
		assert.Equal(t, "osc", sample.Source)
	})

	t.Run("address is lowercased", func(t *testing.T) {
		data := codec.EncodeAddress("/com/PUSH", 0.5)

		sample, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "push", sample.Action)
	})

	t.Run("deep address uses last segment", func(t *testing.T) {
		data := codec.EncodeAddress("/emotiv/com/Lift", 0.75)

		sample, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "lift", sample.Action)
		assert.Equal(t, 0.75, sample.Confidence)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := codec.Decode([]byte("/a\x00"))
		assert.ErrorIs(t, err, errors.ErrTruncatedDatagram)
	})

	t.Run("missing address prefix", func(t *testing.T) {
		_, err := codec.Decode([]byte("push,0.85"))
		assert.ErrorIs(t, err, errors.ErrDecodeFailed)
	})

	t.Run("unterminated address", func(t *testing.T) {
		_, err := codec.Decode([]byte("/com/push/more"))
		assert.ErrorIs(t, err, errors.ErrDecodeFailed)
	})

	t.Run("nothing after address", func(t *testing.T) {
		_, err := codec.Decode([]byte("/com/push\x00\x00\x00"))
		assert.ErrorIs(t, err, errors.ErrTruncatedDatagram)
	})

	t.Run("unterminated type tag", func(t *testing.T) {
		_, err := codec.Decode([]byte("/com/push\x00\x00\x00,f"))
		assert.ErrorIs(t, err, errors.ErrDecodeFailed)
	})

	t.Run("truncated argument", func(t *testing.T) {
		_, err := codec.Decode([]byte("/com/push\x00\x00\x00,f\x00\x00"))
		assert.ErrorIs(t, err, errors.ErrTruncatedDatagram)
	})

	t.Run("encode layout", func(t *testing.T) {
		want := []byte("/com/push\x00\x00\x00,f\x00\x00\x3f\x59\x99\x9a")
		assert.Equal(t, want, codec.Encode("push", 0.85))
	})

	t.Run("round trip", func(t *testing.T) {
		data := codec.Encode("drop", 0.5)

		sample, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "drop", sample.Action)
		assert.Equal(t, 0.5, sample.Confidence)
		assert.Equal(t, "osc", sample.Source)
	})
}
