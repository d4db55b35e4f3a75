package transform

import "github.com/grailbio/seqcore/internal/bitio"

// RLEEncode applies a simple byte-oriented run-length encoding: each
// distinct run is emitted as (symbol byte, run-length-1 as uint7). It is
// the byte-granular transform used when the entropy coder itself is not
// the adaptive RLE model described in spec.md §4.E (that variant is
// implemented directly by the Range coder over its run-context models;
// this one is the simpler standalone RLE used ahead of rANS Nx16).
func RLEEncode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		j := i + 1
		for j < len(data) && data[j] == data[i] {
			j++
		}
		out = append(out, data[i])
		out = bitio.PutUint7(out, uint64(j-i-1))
		i = j
	}
	return out
}

// RLEDecode reverses RLEEncode, reconstructing n original bytes.
func RLEDecode(buf []byte, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	pos := 0
	for len(out) < n {
		if pos >= len(buf) {
			return nil, ErrMalformed
		}
		sym := buf[pos]
		pos++
		runLenMinus1, consumed, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += consumed
		for k := uint64(0); k <= runLenMinus1; k++ {
			out = append(out, sym)
		}
	}
	return out, nil
}
