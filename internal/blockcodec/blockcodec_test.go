package blockcodec_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/seqcore/internal/blockcodec"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":  {},
		"small":  []byte("hello, world"),
		"binary": func() []byte { b := make([]byte, 4096); rand.New(rand.NewSource(1)).Read(b); return b }(),
	}
	for _, m := range []blockcodec.Method{blockcodec.Raw, blockcodec.Gzip, blockcodec.Bzip2, blockcodec.Lzma} {
		c := blockcodec.New(m)
		for name, in := range inputs {
			t.Run(m.String()+"/"+name, func(t *testing.T) {
				compressed, err := c.Compress(in)
				require.NoError(t, err)
				out, err := c.Uncompress(compressed)
				require.NoError(t, err)
				require.Equal(t, in, out)
			})
		}
	}
}

func TestGzipLevel(t *testing.T) {
	c := blockcodec.NewGzip(9)
	in := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	compressed, err := c.Compress(in)
	require.NoError(t, err)
	out, err := c.Uncompress(compressed)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
