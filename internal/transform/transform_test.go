package transform_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/seqcore/internal/transform"
	"github.com/stretchr/testify/require"
)

func TestPackScenarioS2(t *testing.T) {
	in := []byte{0, 1, 0, 1, 0, 1, 0, 1}
	require.True(t, transform.CanPack(in))
	out, err := transform.Pack(in)
	require.NoError(t, err)
	require.Equal(t, byte(2), out[0])     // numSymbols
	require.Equal(t, []byte{0, 1}, out[1:3]) // mapping {0->0, 1->1}
	require.Equal(t, byte(1), out[3])     // uint7 packed length == 1
	require.Equal(t, byte(0xAA), out[4])  // packed byte

	back, consumed, err := transform.Unpack(out, len(in))
	require.NoError(t, err)
	require.Equal(t, len(out), consumed)
	require.Equal(t, in, back)
}

func TestPackAlphabetSizes(t *testing.T) {
	for _, k := range []int{1, 2, 4, 16} {
		data := make([]byte, 200)
		r := rand.New(rand.NewSource(int64(k)))
		for i := range data {
			data[i] = byte(r.Intn(k))
		}
		require.True(t, transform.CanPack(data))
		out, err := transform.Pack(data)
		require.NoError(t, err)
		back, _, err := transform.Unpack(out, len(data))
		require.NoError(t, err)
		require.Equal(t, data, back)
	}
}

func TestPackAlphabetTooLargeDisablesPack(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	require.False(t, transform.CanPack(data))
}

func TestRLERoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{1},
		{1, 1, 1, 1, 1},
		[]byte("aaabbbbbbbbbccccccccccccccccccccd"),
	}
	for _, in := range cases {
		enc := transform.RLEEncode(in)
		out, err := transform.RLEDecode(enc, len(in))
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestPackSeparateRoundTrip(t *testing.T) {
	in := []byte{0, 1, 0, 1, 0, 1, 0, 1}
	header, body, err := transform.PackSeparate(in)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 0, 1, 1}, header) // k, mapping, uint7 packed length
	require.Equal(t, []byte{0xAA}, body)

	back, err := transform.UnpackSeparate(header, body, len(in))
	require.NoError(t, err)
	require.Equal(t, in, back)
}

func TestStripeRoundTrip(t *testing.T) {
	data := []byte("0123456789abcdef")
	subs := transform.Split(data, 4)
	require.Len(t, subs, 4)
	merged := transform.Merge(subs)
	require.Equal(t, data, merged)
}
