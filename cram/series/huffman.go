package series

import (
	"sort"

	"github.com/pkg/errors"
)

// huffmanCodec implements canonical Huffman coding over the core
// bitstream, built from a serialized (values[], bitLengths[]) pair
// (spec.md §4.G). With a single code, read/write is a no-op constant
// value; this is the common CRAM case of a series with only one observed
// value in the slice.
type huffmanCodec struct {
	values     []int32
	bitLengths []int32
	index      map[int32]int
	codes      []uint32
	decode     map[huffmanKey]int
	maxLen     int
}

type huffmanKey struct {
	length int
	code   uint32
}

func newHuffmanCodec(values, bitLengths []int32) (*huffmanCodec, error) {
	if len(values) != len(bitLengths) {
		return nil, errors.Wrap(ErrMalformedHeader, "huffman: values/bitLengths length mismatch")
	}
	h := &huffmanCodec{values: values, bitLengths: bitLengths}
	h.index = make(map[int32]int, len(values))
	for i, v := range values {
		h.index[v] = i
	}
	if len(values) <= 1 {
		return h, nil
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if bitLengths[ia] != bitLengths[ib] {
			return bitLengths[ia] < bitLengths[ib]
		}
		return values[ia] < values[ib]
	})

	h.codes = make([]uint32, len(values))
	decode := make(map[huffmanKey]int, len(values))
	var code uint32
	var prevLen int32
	for _, i := range order {
		l := bitLengths[i]
		if l <= 0 {
			return nil, errors.Wrap(ErrMalformedHeader, "huffman: bit length must be positive when more than one code is present")
		}
		code <<= uint(l - prevLen)
		h.codes[i] = code
		decode[huffmanKey{int(l), code}] = i
		code++
		prevLen = l
		if int(l) > h.maxLen {
			h.maxLen = int(l)
		}
	}
	h.decode = decode
	return h, nil
}

func (h *huffmanCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	if len(h.values) == 0 {
		return 0, errors.Wrap(ErrMalformedHeader, "huffman: empty code table")
	}
	if len(h.values) == 1 {
		return int64(h.values[0]), nil
	}
	var code uint32
	for l := 1; l <= h.maxLen; l++ {
		bit, err := ds.Core.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit
		if i, ok := h.decode[huffmanKey{l, code}]; ok {
			return int64(h.values[i]), nil
		}
	}
	return 0, errors.Wrap(ErrMalformedHeader, "huffman: no code matched within the table's max length")
}

func (h *huffmanCodec) WriteValue(es *EncodeStreams, v int64) error {
	if len(h.values) == 0 {
		return errors.Wrap(ErrMalformedHeader, "huffman: empty code table")
	}
	if len(h.values) == 1 {
		if int64(h.values[0]) != v {
			return errors.Wrapf(ErrValueOutOfRange, "huffman: value %d not in single-code alphabet", v)
		}
		return nil
	}
	i, ok := h.index[int32(v)]
	if !ok {
		return errors.Wrapf(ErrValueOutOfRange, "huffman: value %d not in alphabet", v)
	}
	es.Core.WriteBits(uint64(h.codes[i]), uint(h.bitLengths[i]))
	return nil
}

// numberOfBits returns the code length for v, per spec.md §4.G.
func (h *huffmanCodec) numberOfBits(v int32) (int32, error) {
	i, ok := h.index[v]
	if !ok {
		return 0, errors.Wrapf(ErrValueOutOfRange, "huffman: value %d not in alphabet", v)
	}
	if len(h.values) <= 1 {
		return 0, nil
	}
	return h.bitLengths[i], nil
}
