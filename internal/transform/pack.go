// Package transform implements the byte-transform library shared by the
// rANS Nx16 and Range codecs: pack (1/2/4 bits/symbol), RLE, stripe
// (multiway interleave) and CAT (identity). Each transform is applied on
// the compress path before entropy coding and inverted on decompress,
// per spec.md §4.D/§4.F.
package transform

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// ErrNotSupported marks a spec-allowed but unimplemented combination.
var ErrNotSupported = errors.New("transform: not supported")

// ErrMalformed marks a corrupt transform header.
var ErrMalformed = errors.New("transform: malformed input")

// bitsPerSymbol returns the pack width (1, 2 or 4) needed to represent an
// alphabet of the given size. Callers must have already checked the
// alphabet is <=16 (via CanPack); callers with a 1-symbol alphabet still
// reserve 1 bit per value.
func bitsPerSymbol(numSymbols int) uint {
	switch {
	case numSymbols <= 2:
		return 1
	case numSymbols <= 4:
		return 2
	default:
		return 4
	}
}

// CanPack reports whether data's alphabet is small enough (<=16 distinct
// byte values) for Pack to apply.
func CanPack(data []byte) bool {
	var seen [256]bool
	n := 0
	for _, b := range data {
		if !seen[b] {
			seen[b] = true
			n++
			if n > 16 {
				return false
			}
		}
	}
	return true
}

// Pack replaces each symbol in data by its dense alphabet index and packs
// multiple indices per byte, least-significant slot first (1/2/4
// bits/symbol depending on alphabet size). The returned buffer is the
// wire header: k:u8 | mapping[k]u8 | packedLen:uint7 | packed body.
// The caller (Nx16/Range encoders) must have already checked CanPack.
func Pack(data []byte) (out []byte, err error) {
	var seen [256]bool
	var mapping []byte // dense index -> symbol value
	var code [256]byte // symbol value -> dense index
	for _, b := range data {
		if !seen[b] {
			seen[b] = true
			code[b] = byte(len(mapping))
			mapping = append(mapping, b)
		}
	}
	k := len(mapping)
	if k == 0 {
		k = 1
		mapping = []byte{0}
	}
	if k > 16 {
		return nil, errors.Wrap(ErrMalformed, "pack: alphabet too large")
	}
	width := bitsPerSymbol(k)
	perByte := int(8 / width)

	packed := make([]byte, 0, (len(data)+perByte-1)/perByte)
	var cur byte
	var filled uint
	for _, b := range data {
		idx := code[b]
		cur |= idx << filled
		filled += width
		if filled == 8 {
			packed = append(packed, cur)
			cur = 0
			filled = 0
		}
	}
	if filled > 0 {
		packed = append(packed, cur)
	}

	out = append(out, byte(k))
	out = append(out, mapping...)
	out = bitio.PutUint7(out, uint64(len(packed)))
	out = append(out, packed...)
	return out, nil
}

// Unpack reverses Pack, reading the header from the front of buf and
// reconstructing n original bytes. n is carried by the enclosing stream
// (the Nx16/Range "uncompressed_size" field), not by the pack header
// itself, since a downstream RLE stage may further shrink the packed
// byte count below what n alone would imply.
func Unpack(buf []byte, n int) (data []byte, consumed int, err error) {
	if len(buf) < 1 {
		return nil, 0, errors.Wrap(ErrMalformed, "pack: truncated header")
	}
	k := int(buf[0])
	if k == 0 {
		k = 1
	}
	pos := 1
	if len(buf) < pos+k {
		return nil, 0, errors.Wrap(ErrMalformed, "pack: truncated mapping")
	}
	mapping := buf[pos : pos+k]
	pos += k

	packedLen, nb, err := bitio.GetUint7(buf[pos:])
	if err != nil {
		return nil, 0, errors.Wrap(ErrMalformed, "pack: truncated length")
	}
	pos += nb

	if len(buf) < pos+int(packedLen) {
		return nil, 0, errors.Wrap(ErrMalformed, "pack: truncated body")
	}
	packed := buf[pos : pos+int(packedLen)]
	pos += int(packedLen)

	width := bitsPerSymbol(k)
	perByte := int(8 / width)
	mask := byte(1<<width) - 1

	data = make([]byte, n)
	for i := 0; i < n; i++ {
		byteIdx := i / perByte
		slot := uint(i % perByte)
		if byteIdx >= len(packed) {
			return nil, 0, errors.Wrap(ErrMalformed, "pack: body too short for n")
		}
		idx := (packed[byteIdx] >> (slot * width)) & mask
		if int(idx) >= len(mapping) {
			return nil, 0, errors.Wrap(ErrMalformed, "pack: index out of mapping range")
		}
		data[i] = mapping[idx]
	}
	return data, pos, nil
}

// PackSeparate is Pack, but splits the result into the plaintext header
// (k, mapping, packed length) and the packed body, for callers (Nx16,
// Range) that place the header directly in their stream prefix and feed
// only the packed body into a further RLE/entropy stage.
func PackSeparate(data []byte) (header, body []byte, err error) {
	combined, err := Pack(data)
	if err != nil {
		return nil, nil, err
	}
	k := int(combined[0])
	if k == 0 {
		k = 1
	}
	pos := 1 + k
	_, nb, err := bitio.GetUint7(combined[pos:])
	if err != nil {
		return nil, nil, err
	}
	pos += nb
	return combined[:pos], combined[pos:], nil
}

// UnpackSeparate reverses PackSeparate given the header and packed body
// exactly as PackSeparate produced them, reconstructing n original bytes.
func UnpackSeparate(header, body []byte, n int) ([]byte, error) {
	combined := make([]byte, 0, len(header)+len(body))
	combined = append(combined, header...)
	combined = append(combined, body...)
	data, _, err := Unpack(combined, n)
	return data, err
}
