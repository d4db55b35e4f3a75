// Package bitio implements the MSB-first bit stream and the variable-length
// integer encodings (ITF8, LTF8, uint7) shared by the CRAM codecs.
package bitio

import "github.com/pkg/errors"

// ErrUnexpectedEOF is returned when a read runs past the end of the
// underlying buffer.
var ErrUnexpectedEOF = errors.New("bitio: unexpected EOF")

// ErrIntegerOverflow is returned when an encoder is asked to represent a
// value outside the range its wire format supports.
var ErrIntegerOverflow = errors.New("bitio: integer overflow")

// PutITF8 appends the ITF8 encoding of v to buf and returns the result.
//
// ITF8 packs a 32-bit unsigned integer into 1-5 bytes. The number of
// leading one-bits in the first byte gives the total byte count:
//
//	0xxxxxxx                               7 bits,  1 byte
//	10xxxxxx xxxxxxxx                      14 bits,  2 bytes
//	110xxxxx xxxxxxxx xxxxxxxx             21 bits,  3 bytes
//	1110xxxx xxxxxxxx xxxxxxxx xxxxxxxx    28 bits,  4 bytes
//	1111xxxx xxxxxxxx xxxxxxxx xxxxxxxx ....xxxx  32 bits, 5 bytes (low nibble of byte 0 + 3 full bytes + low nibble of byte 4)
func PutITF8(buf []byte, v uint32) []byte {
	switch {
	case v < 1<<7:
		return append(buf, byte(v))
	case v < 1<<14:
		return append(buf,
			byte(0x80|(v>>8)),
			byte(v))
	case v < 1<<21:
		return append(buf,
			byte(0xc0|(v>>16)),
			byte(v>>8),
			byte(v))
	case v < 1<<28:
		return append(buf,
			byte(0xe0|(v>>24)),
			byte(v>>16),
			byte(v>>8),
			byte(v))
	default:
		return append(buf,
			byte(0xf0|(v>>28)),
			byte(v>>20),
			byte(v>>12),
			byte(v>>4),
			byte(v))
	}
}

// GetITF8 decodes an ITF8 value from the front of buf, returning the value
// and the number of bytes consumed.
func GetITF8(buf []byte) (uint32, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrUnexpectedEOF
	}
	b0 := buf[0]
	var n int
	switch {
	case b0&0x80 == 0:
		n = 1
	case b0&0x40 == 0:
		n = 2
	case b0&0x20 == 0:
		n = 3
	case b0&0x10 == 0:
		n = 4
	default:
		n = 5
	}
	if len(buf) < n {
		return 0, 0, ErrUnexpectedEOF
	}
	var v uint32
	switch n {
	case 1:
		v = uint32(b0)
	case 2:
		v = uint32(b0&0x3f)<<8 | uint32(buf[1])
	case 3:
		v = uint32(b0&0x1f)<<16 | uint32(buf[1])<<8 | uint32(buf[2])
	case 4:
		v = uint32(b0&0x0f)<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	case 5:
		// The low nibble of b0 contributes the top 4 bits of a 32-bit value;
		// bytes 1-3 supply the next 24 bits and only the low nibble of byte 4
		// is used.
		v = uint32(b0&0x0f)<<28 | uint32(buf[1])<<20 | uint32(buf[2])<<12 | uint32(buf[3])<<4 | uint32(buf[4])&0x0f
	}
	return v, n, nil
}

// PutLTF8 appends the LTF8 (64-bit ITF8 analogue, 1-9 bytes) encoding of v.
func PutLTF8(buf []byte, v uint64) []byte {
	switch {
	case v < 1<<7:
		return append(buf, byte(v))
	case v < 1<<14:
		return append(buf, byte(0x80|(v>>8)), byte(v))
	case v < 1<<21:
		return append(buf, byte(0xc0|(v>>16)), byte(v>>8), byte(v))
	case v < 1<<28:
		return append(buf, byte(0xe0|(v>>24)), byte(v>>16), byte(v>>8), byte(v))
	case v < 1<<35:
		return append(buf, byte(0xf0|(v>>32)), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case v < 1<<42:
		return append(buf, byte(0xf8|(v>>40)), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case v < 1<<49:
		return append(buf, byte(0xfc|(v>>48)), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	case v < 1<<56:
		return append(buf, byte(0xfe), byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		return append(buf, byte(0xff), byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// GetLTF8 decodes an LTF8 value, mirroring PutLTF8's byte-count ladder.
func GetLTF8(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrUnexpectedEOF
	}
	b0 := buf[0]
	var n int
	switch {
	case b0&0x80 == 0:
		n = 1
	case b0&0x40 == 0:
		n = 2
	case b0&0x20 == 0:
		n = 3
	case b0&0x10 == 0:
		n = 4
	case b0&0x08 == 0:
		n = 5
	case b0&0x04 == 0:
		n = 6
	case b0&0x02 == 0:
		n = 7
	case b0&0x01 == 0:
		n = 8
	default:
		n = 9
	}
	if len(buf) < n {
		return 0, 0, ErrUnexpectedEOF
	}
	var v uint64
	switch n {
	case 1:
		v = uint64(b0)
	case 2:
		v = uint64(b0&0x3f)<<8 | uint64(buf[1])
	case 3:
		v = uint64(b0&0x1f)<<16 | uint64(buf[1])<<8 | uint64(buf[2])
	case 4:
		v = uint64(b0&0x0f)<<24 | uint64(buf[1])<<16 | uint64(buf[2])<<8 | uint64(buf[3])
	case 5:
		v = uint64(b0&0x07)<<32 | uint64(buf[1])<<24 | uint64(buf[2])<<16 | uint64(buf[3])<<8 | uint64(buf[4])
	case 6:
		v = uint64(b0&0x03)<<40 | uint64(buf[1])<<32 | uint64(buf[2])<<24 | uint64(buf[3])<<16 | uint64(buf[4])<<8 | uint64(buf[5])
	case 7:
		v = uint64(b0&0x01)<<48 | uint64(buf[1])<<40 | uint64(buf[2])<<32 | uint64(buf[3])<<24 | uint64(buf[4])<<16 | uint64(buf[5])<<8 | uint64(buf[6])
	case 8:
		v = uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 | uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	case 9:
		v = uint64(buf[1])<<56 | uint64(buf[2])<<48 | uint64(buf[3])<<40 | uint64(buf[4])<<32 | uint64(buf[5])<<24 | uint64(buf[6])<<16 | uint64(buf[7])<<8 | uint64(buf[8])
	}
	return v, n, nil
}

// PutUint7 appends the uint7 encoding of v: 7-bit groups, low-group first,
// high bit set on every byte but the last.
func PutUint7(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// GetUint7 decodes a uint7 value, returning the value and bytes consumed.
func GetUint7(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, ErrIntegerOverflow
		}
	}
	return 0, 0, ErrUnexpectedEOF
}
