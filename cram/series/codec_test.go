package series_test

import (
	"testing"

	"github.com/grailbio/seqcore/cram/series"
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/stretchr/testify/require"
)

// buildScalarRoundTrip writes values through d's codec onto a core
// bitstream (and any external streams the codec needs), then reads them
// back through a fresh codec instance and streams.
func buildScalarRoundTrip(t *testing.T, d *series.Descriptor, elemType series.ElementType, values []int64) {
	t.Helper()
	encCodec, err := d.BuildCodec(elemType)
	require.NoError(t, err)
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	for _, v := range values {
		require.NoError(t, encCodec.WriteValue(es, v))
	}
	core := es.Core.Flush()

	decCodec, err := d.BuildCodec(elemType)
	require.NoError(t, err)
	ds := series.NewDecodeStreams(bitio.NewReader(core), es.External)
	for _, want := range values {
		got, err := decCodec.ReadValue(ds)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestBetaRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindBeta, Offset: 10, BitsPerValue: 5}
	buildScalarRoundTrip(t, d, series.Int, []int64{-10, -5, 0, 5, 21})
}

func TestBetaOutOfRange(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindBeta, Offset: 0, BitsPerValue: 3}
	codec, err := d.BuildCodec(series.Int)
	require.NoError(t, err)
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.Error(t, codec.WriteValue(es, 8))
	require.Error(t, codec.WriteValue(es, -1))
}

func TestGammaRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindGamma, Offset: 1}
	buildScalarRoundTrip(t, d, series.Int, []int64{0, 1, 2, 7, 100, 1000})
}

func TestSubexponentialRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindSubexponential, Offset: 0, K: 3}
	buildScalarRoundTrip(t, d, series.Int, []int64{0, 1, 7, 8, 9, 100, 5000})
}

func TestGolombRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindGolomb, Offset: 0, M: 5}
	buildScalarRoundTrip(t, d, series.Int, []int64{0, 1, 4, 5, 6, 12, 99})
}

func TestGolombRiceRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindGolombRice, Offset: 0, Log2M: 3}
	buildScalarRoundTrip(t, d, series.Int, []int64{0, 1, 7, 8, 63, 64, 500})
}

func TestHuffmanMultiCodeRoundTrip(t *testing.T) {
	d := &series.Descriptor{
		Kind:       series.KindHuffman,
		Values:     []int32{0, 1, 2, 3},
		BitLengths: []int32{1, 2, 3, 3},
	}
	buildScalarRoundTrip(t, d, series.Int, []int64{0, 1, 2, 3, 0, 0, 3, 1})
}

func TestHuffmanSingleCodeRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindHuffman, Values: []int32{9}, BitLengths: []int32{0}}
	buildScalarRoundTrip(t, d, series.Byte, []int64{9, 9, 9})
}

func TestHuffmanRejectsUnknownValue(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindHuffman, Values: []int32{0, 1}, BitLengths: []int32{1, 1}}
	codec, err := d.BuildCodec(series.Int)
	require.NoError(t, err)
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.Error(t, codec.WriteValue(es, 5))
}

func TestExternalScalarRoundTrip(t *testing.T) {
	for _, elemType := range []series.ElementType{series.Byte, series.Int, series.Long} {
		d := &series.Descriptor{Kind: series.KindExternal, ContentID: 3}
		encCodec, err := d.BuildCodec(elemType)
		require.NoError(t, err)
		es := series.NewEncodeStreams(bitio.NewWriter(nil))
		values := []int64{0, 1, 127, 12345}
		if elemType == series.Byte {
			values = []int64{0, 1, 127, 255}
		}
		for _, v := range values {
			require.NoError(t, encCodec.WriteValue(es, v))
		}
		decCodec, err := d.BuildCodec(elemType)
		require.NoError(t, err)
		ds := series.NewDecodeStreams(nil, es.External)
		for _, want := range values {
			got, err := decCodec.ReadValue(ds)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestByteArrayStopRoundTrip(t *testing.T) {
	d := &series.Descriptor{Kind: series.KindByteArrayStop, StopByte: 0, ContentID: 9}
	codec, err := d.BuildByteArrayCodec()
	require.NoError(t, err)
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.NoError(t, codec.WriteBytes(es, []byte("ACGT")))
	require.NoError(t, codec.WriteBytes(es, []byte("TT")))

	decCodec, err := d.BuildByteArrayCodec()
	require.NoError(t, err)
	ds := series.NewDecodeStreams(nil, es.External)
	got1, err := decCodec.ReadBytes(ds, -1)
	require.NoError(t, err)
	require.Equal(t, []byte("ACGT"), got1)
	got2, err := decCodec.ReadBytes(ds, -1)
	require.NoError(t, err)
	require.Equal(t, []byte("TT"), got2)
}

func TestByteArrayLenRoundTrip(t *testing.T) {
	d := &series.Descriptor{
		Kind:     series.KindByteArrayLen,
		LenEnc:   &series.Descriptor{Kind: series.KindExternal, ContentID: 1},
		BytesEnc: &series.Descriptor{Kind: series.KindExternal, ContentID: 2},
	}
	codec, err := d.BuildByteArrayCodec()
	require.NoError(t, err)
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.NoError(t, codec.WriteBytes(es, []byte("hello")))
	require.NoError(t, codec.WriteBytes(es, []byte("hi")))

	decCodec, err := d.BuildByteArrayCodec()
	require.NoError(t, err)
	ds := series.NewDecodeStreams(nil, es.External)
	got1, err := decCodec.ReadBytes(ds, -1)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got1)
	got2, err := decCodec.ReadBytes(ds, -1)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), got2)
}
