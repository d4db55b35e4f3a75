package rans4x8_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/grailbio/seqcore/internal/rans4x8"
	"github.com/stretchr/testify/require"
)

func TestScenarioS1(t *testing.T) {
	data := []byte("AAAAAA")
	encoded, err := rans4x8.Encode(data, rans4x8.Order0)
	require.NoError(t, err)

	decoded, err := rans4x8.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestRoundTripOrder0And1(t *testing.T) {
	inputs := map[string][]byte{
		"empty":            {},
		"len1":              {42},
		"len-not-mult-of-4": []byte("hello world"), // 11 bytes
		"uniform":          bytes.Repeat([]byte{7}, 257),
		"random":           randomBytes(t, 10000, 1),
		"small-alphabet":   randomAlphabetBytes(t, 5000, 4, 2),
	}
	for _, order := range []rans4x8.Order{rans4x8.Order0, rans4x8.Order1} {
		for name, in := range inputs {
			t.Run(name, func(t *testing.T) {
				encoded, err := rans4x8.Encode(in, order)
				require.NoError(t, err)
				decoded, err := rans4x8.Decode(encoded)
				require.NoError(t, err)
				require.Equal(t, in, decoded)
			})
		}
	}
}

func randomBytes(t *testing.T, n int, seed int64) []byte {
	t.Helper()
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func randomAlphabetBytes(t *testing.T, n, alphabet int, seed int64) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.Intn(alphabet))
	}
	return b
}
