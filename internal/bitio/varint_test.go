package bitio_test

import (
	"testing"

	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/stretchr/testify/require"
)

func TestITF8RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 1<<14 - 1, 1 << 14, 1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, 0xffffffff}
	for _, v := range values {
		buf := bitio.PutITF8(nil, v)
		got, n, err := bitio.GetITF8(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got, "value %d", v)
	}
}

func TestITF8TruncatedIsEOF(t *testing.T) {
	buf := bitio.PutITF8(nil, 1<<20)
	_, _, err := bitio.GetITF8(buf[:1])
	require.ErrorIs(t, err, bitio.ErrUnexpectedEOF)
}

func TestLTF8RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1<<56 - 1, 1 << 56, 1<<63 - 1, 1<<64 - 1}
	for _, v := range values {
		buf := bitio.PutLTF8(nil, v)
		got, n, err := bitio.GetLTF8(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got, "value %d", v)
	}
}

func TestUint7RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1 << 20, 1<<35 + 7}
	for _, v := range values {
		buf := bitio.PutUint7(nil, v)
		got, n, err := bitio.GetUint7(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestBitStreamRoundTrip(t *testing.T) {
	w := bitio.NewWriter(nil)
	w.WriteBits(0x5, 3)  // 101
	w.WriteBits(0x0, 1)  // 0
	w.WriteBits(0x3f, 6) // 111111
	buf := w.Flush()

	r := bitio.NewReader(buf)
	v, err := r.ReadBits(3)
	require.NoError(t, err)
	require.EqualValues(t, 0x5, v)
	v, err = r.ReadBits(1)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
	v, err = r.ReadBits(6)
	require.NoError(t, err)
	require.EqualValues(t, 0x3f, v)
}

func TestBitStreamEOF(t *testing.T) {
	r := bitio.NewReader([]byte{0xff})
	_, err := r.ReadBits(9)
	require.ErrorIs(t, err, bitio.ErrUnexpectedEOF)
}
