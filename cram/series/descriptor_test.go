package series_test

import (
	"testing"

	"github.com/grailbio/seqcore/cram/series"
	"github.com/stretchr/testify/require"
)

func roundTripDescriptor(t *testing.T, d *series.Descriptor) *series.Descriptor {
	t.Helper()
	buf, err := d.Serialize()
	require.NoError(t, err)
	got, n, err := series.Parse(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	return got
}

func TestDescriptorRoundTripEachKind(t *testing.T) {
	cases := []*series.Descriptor{
		{Kind: series.KindNull},
		{Kind: series.KindExternal, ContentID: 42},
		{Kind: series.KindHuffman, Values: []int32{3}, BitLengths: []int32{0}},
		{Kind: series.KindHuffman, Values: []int32{0, 1, 2, 3}, BitLengths: []int32{1, 2, 3, 3}},
		{Kind: series.KindBeta, Offset: -5, BitsPerValue: 7},
		{Kind: series.KindGamma, Offset: 1},
		{Kind: series.KindSubexponential, Offset: 0, K: 3},
		{Kind: series.KindGolomb, Offset: 0, M: 5},
		{Kind: series.KindGolombRice, Offset: 0, Log2M: 3},
		{Kind: series.KindByteArrayStop, StopByte: 0, ContentID: 7},
	}
	for _, d := range cases {
		got := roundTripDescriptor(t, d)
		require.Equal(t, d, got)
	}
}

// TestScenarioS4ByteArrayLenDescriptor covers spec.md's literal S4
// scenario: BYTE_ARRAY_LEN(lenEnc=HUFFMAN({3},{0}), bytesEnc=EXTERNAL(42))
// round-trips through serialize/parse, and its codec reads a single
// 3-byte array from external stream 42.
func TestScenarioS4ByteArrayLenDescriptor(t *testing.T) {
	d := &series.Descriptor{
		Kind: series.KindByteArrayLen,
		LenEnc: &series.Descriptor{
			Kind:       series.KindHuffman,
			Values:     []int32{3},
			BitLengths: []int32{0},
		},
		BytesEnc: &series.Descriptor{Kind: series.KindExternal, ContentID: 42},
	}
	got := roundTripDescriptor(t, d)
	require.Equal(t, d, got)

	codec, err := got.BuildByteArrayCodec()
	require.NoError(t, err)

	ds := series.NewDecodeStreams(nil, map[int32][]byte{42: {'A', 'C', 'G', 'T'}})
	data, err := codec.ReadBytes(ds, -1)
	require.NoError(t, err)
	require.Equal(t, []byte{'A', 'C', 'G'}, data)
}

func TestDescriptorParseUnknownKindFails(t *testing.T) {
	_, _, err := series.Parse([]byte{200, 0})
	require.Error(t, err)
}

func TestDescriptorParseTruncatedFails(t *testing.T) {
	_, _, err := series.Parse([]byte{byte(series.KindExternal), 5, 1})
	require.Error(t, err)
}
