package rangecoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteModelRoundTripUniform(t *testing.T) {
	data := []byte("hello")
	enc := NewEncoder()
	model := NewByteModel(256)
	for _, b := range data {
		model.EncodeSymbol(enc, b)
	}
	out := enc.Finish()

	require.Equal(t, byte(0), out[0], "first emitted byte is always the encoder's discarded initial cache")

	dec := NewDecoder(out)
	decModel := NewByteModel(256)
	got := make([]byte, len(data))
	for i := range got {
		got[i] = decModel.DecodeSymbol(dec)
	}
	require.Equal(t, data, got)
}

func TestByteModelAdapts(t *testing.T) {
	m := NewByteModel(4)
	enc := NewEncoder()
	for i := 0; i < 50; i++ {
		m.EncodeSymbol(enc, 2)
	}
	require.Equal(t, byte(2), m.symbol[0], "repeatedly encoded symbol should rise to the front slot")
}
