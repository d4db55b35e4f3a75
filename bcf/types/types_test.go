package types_test

import (
	"testing"

	"github.com/grailbio/seqcore/bcf/types"
	"github.com/stretchr/testify/require"
)

func TestTypeDescriptorRoundTripSmallCounts(t *testing.T) {
	for count := 0; count < 15; count++ {
		for _, typ := range []types.TypeID{types.Missing, types.Int8, types.Int16, types.Int32, types.Float, types.Char} {
			buf, err := types.PutTypeDescriptor(nil, count, typ)
			require.NoError(t, err)
			require.Len(t, buf, 1)
			gotCount, gotType, n, err := types.GetTypeDescriptor(buf)
			require.NoError(t, err)
			require.Equal(t, count, gotCount)
			require.Equal(t, typ, gotType)
			require.Equal(t, 1, n)
		}
	}
}

func TestTypeDescriptorRoundTripOverflowCounts(t *testing.T) {
	for _, count := range []int{15, 16, 127, 128, 32767, 32768, 100000} {
		buf, err := types.PutTypeDescriptor(nil, count, types.Int8)
		require.NoError(t, err)
		gotCount, gotType, n, err := types.GetTypeDescriptor(buf)
		require.NoError(t, err)
		require.Equal(t, count, gotCount)
		require.Equal(t, types.Int8, gotType)
		require.Equal(t, len(buf), n)
	}
}

func TestValueRoundTripInts(t *testing.T) {
	for _, typ := range []types.TypeID{types.Int8, types.Int16, types.Int32} {
		v := types.Value{Type: typ, Ints: []int32{1, -1, 0, 42}}
		buf, err := types.WriteValue(nil, v)
		require.NoError(t, err)
		got, n, err := types.ReadValue(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v.Ints, got.Ints)
	}
}

func TestValueRoundTripFloat(t *testing.T) {
	v := types.Value{Type: types.Float, Floats: []float32{1.5, -2.25, 0, 100}}
	buf, err := types.WriteValue(nil, v)
	require.NoError(t, err)
	got, n, err := types.ReadValue(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, v.Floats, got.Floats)
}

func TestValueRoundTripChar(t *testing.T) {
	v := types.Value{Type: types.Char, Chars: []byte("hello")}
	buf, err := types.WriteValue(nil, v)
	require.NoError(t, err)
	got, n, err := types.ReadValue(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, v.Chars, got.Chars)
}

func TestValueRoundTripOverflowCount(t *testing.T) {
	ints := make([]int32, 20)
	for i := range ints {
		ints[i] = int32(i)
	}
	v := types.Value{Type: types.Int32, Ints: ints}
	buf, err := types.WriteValue(nil, v)
	require.NoError(t, err)
	got, n, err := types.ReadValue(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, v.Ints, got.Ints)
}

func TestMissingEOVSentinelsSignExtend(t *testing.T) {
	require.True(t, types.IsMissingInt(types.MissingInt8, types.Int8))
	require.True(t, types.IsEOVInt(types.EOVInt8, types.Int8))
	require.False(t, types.IsMissingInt(-128, types.Int16), "raw byte 0x80 must not alias INT16's missing sentinel")
	require.True(t, types.IsMissingFloat(types.MissingFloatBits))
	require.True(t, types.IsEOVFloat(types.EOVFloatBits))
}

func TestSmallestIntType(t *testing.T) {
	require.Equal(t, types.Int8, types.SmallestIntType(-100, 100))
	require.Equal(t, types.Int16, types.SmallestIntType(-100, 30000))
	require.Equal(t, types.Int32, types.SmallestIntType(-100, 100000))
	require.Equal(t, types.Int32, types.SmallestIntType(-100000, 100))
}

func TestPadCharsLeft(t *testing.T) {
	require.Equal(t, []byte{0, 0, 'a', 'b'}, types.PadCharsLeft([]byte("ab"), 4))
	require.Equal(t, []byte("abcd"), types.PadCharsLeft([]byte("abcd"), 2))
}
