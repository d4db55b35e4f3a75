// Package types implements the BCF typed-value system (spec.md §4.I): the
// packed type-descriptor byte, the four primitive element types and their
// missing/end-of-vector sentinel patterns, and the integer width-promotion
// rule used when encoding arrays.
package types

import (
	"math"

	"github.com/pkg/errors"
)

// TypeID is the BCF type tag carried in the low nibble of a type
// descriptor byte.
type TypeID byte

const (
	Missing TypeID = 0
	Int8    TypeID = 1
	Int16   TypeID = 2
	Int32   TypeID = 3
	Float   TypeID = 5
	Char    TypeID = 7
)

// overflowMarker is the size_nibble value 15 signalling that the true
// element count follows as a typed integer (spec.md §4.I).
const overflowMarker = 15

// ErrMalformedHeader marks a corrupt typed value: an unsupported type ID,
// a truncated payload, or an overflow-count field that is not itself a
// single typed integer.
var ErrMalformedHeader = errors.New("types: malformed typed value")

// Sign-extended missing/EOV sentinels (spec.md §3, §4.I). INT32's missing
// value is its own minimum; it needs no further sign extension.
const (
	MissingInt8  int32 = -128
	EOVInt8      int32 = -127
	MissingInt16 int32 = -32768
	EOVInt16     int32 = -32767
	MissingInt32 int32 = math.MinInt32
	EOVInt32     int32 = math.MinInt32 + 1
)

// Float missing/EOV are two distinguished quiet-NaN bit patterns
// (spec.md §3).
const (
	MissingFloatBits uint32 = 0x7F800001
	EOVFloatBits     uint32 = 0x7F800002
)

// IsMissingInt reports whether v (already sign-extended to 32 bits) is
// t's missing sentinel. Comparing the raw byte pattern instead of the
// sign-extended value misclassifies INT8 -128 (spec.md §9).
func IsMissingInt(v int32, t TypeID) bool {
	switch t {
	case Int8:
		return v == MissingInt8
	case Int16:
		return v == MissingInt16
	case Int32:
		return v == MissingInt32
	default:
		return false
	}
}

// IsEOVInt reports whether v is t's end-of-vector sentinel.
func IsEOVInt(v int32, t TypeID) bool {
	switch t {
	case Int8:
		return v == EOVInt8
	case Int16:
		return v == EOVInt16
	case Int32:
		return v == EOVInt32
	default:
		return false
	}
}

// IsMissingFloat and IsEOVFloat compare the raw IEEE-754 bit pattern;
// NaN payloads are not comparable via ==, so float32 equality would not
// work here.
func IsMissingFloat(bits uint32) bool { return bits == MissingFloatBits }
func IsEOVFloat(bits uint32) bool     { return bits == EOVFloatBits }

// SmallestIntType returns the narrowest of INT8/INT16/INT32 whose usable
// range (the full range minus its two lowest values, reserved for
// missing/EOV) contains both min and max (spec.md §4.I).
func SmallestIntType(min, max int64) TypeID {
	switch {
	case min >= int64(MissingInt8)+2 && max <= 127:
		return Int8
	case min >= int64(MissingInt16)+2 && max <= 32767:
		return Int16
	default:
		return Int32
	}
}

// PutTypeDescriptor appends the type-descriptor byte (and, if count >=
// 15, the overflow typed integer) for an element count/type pair.
func PutTypeDescriptor(buf []byte, count int, t TypeID) ([]byte, error) {
	if count < 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "negative element count")
	}
	if count < overflowMarker {
		return append(buf, byte(count)<<4|byte(t&0x0F)), nil
	}
	buf = append(buf, overflowMarker<<4|byte(t&0x0F))
	ct := smallestUnsignedIntType(count)
	buf = append(buf, byte(1)<<4|byte(ct&0x0F))
	return putInt(buf, ct, int32(count)), nil
}

func smallestUnsignedIntType(n int) TypeID {
	switch {
	case n <= 127:
		return Int8
	case n <= 32767:
		return Int16
	default:
		return Int32
	}
}

// GetTypeDescriptor reads a type-descriptor byte (and its overflow count,
// if present) from the front of buf.
func GetTypeDescriptor(buf []byte) (count int, t TypeID, n int, err error) {
	if len(buf) < 1 {
		return 0, 0, 0, errors.Wrap(ErrMalformedHeader, "unexpected EOF reading type descriptor")
	}
	b := buf[0]
	count = int(b >> 4)
	t = TypeID(b & 0x0F)
	n = 1
	if count != overflowMarker {
		return count, t, n, nil
	}
	innerCount, innerType, m, err := GetTypeDescriptor(buf[n:])
	if err != nil {
		return 0, 0, 0, err
	}
	if innerCount != 1 {
		return 0, 0, 0, errors.Wrap(ErrMalformedHeader, "overflow count is not a single typed integer")
	}
	n += m
	v, m, err := getInt(buf[n:], innerType)
	if err != nil {
		return 0, 0, 0, err
	}
	n += m
	return int(v), t, n, nil
}

func putInt(buf []byte, t TypeID, v int32) []byte {
	switch t {
	case Int8:
		return append(buf, byte(v))
	case Int16:
		return append(buf, byte(v), byte(v>>8))
	case Int32:
		return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	default:
		return buf
	}
}

func getInt(buf []byte, t TypeID) (int32, int, error) {
	switch t {
	case Int8:
		if len(buf) < 1 {
			return 0, 0, errors.Wrap(ErrMalformedHeader, "unexpected EOF reading INT8")
		}
		return int32(int8(buf[0])), 1, nil
	case Int16:
		if len(buf) < 2 {
			return 0, 0, errors.Wrap(ErrMalformedHeader, "unexpected EOF reading INT16")
		}
		return int32(int16(uint16(buf[0]) | uint16(buf[1])<<8)), 2, nil
	case Int32:
		if len(buf) < 4 {
			return 0, 0, errors.Wrap(ErrMalformedHeader, "unexpected EOF reading INT32")
		}
		return int32(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24), 4, nil
	default:
		return 0, 0, errors.Wrapf(ErrMalformedHeader, "type %d is not an integer type", t)
	}
}

// Value is a decoded typed value: a (count, type) pair plus the payload
// in whichever of Ints/Floats/Chars matches Type.
type Value struct {
	Type   TypeID
	Count  int
	Ints   []int32
	Floats []float32
	Chars  []byte
}

// ReadValue reads one typed value from the front of buf.
func ReadValue(buf []byte) (Value, int, error) {
	count, t, n, err := GetTypeDescriptor(buf)
	if err != nil {
		return Value{}, 0, err
	}
	v := Value{Type: t, Count: count}
	switch t {
	case Missing:
		return v, n, nil
	case Int8, Int16, Int32:
		v.Ints = make([]int32, count)
		for i := range v.Ints {
			x, m, err := getInt(buf[n:], t)
			if err != nil {
				return Value{}, 0, err
			}
			v.Ints[i] = x
			n += m
		}
		return v, n, nil
	case Float:
		v.Floats = make([]float32, count)
		for i := range v.Floats {
			x, m, err := getInt(buf[n:], Int32)
			if err != nil {
				return Value{}, 0, err
			}
			v.Floats[i] = math.Float32frombits(uint32(x))
			n += m
		}
		return v, n, nil
	case Char:
		if len(buf)-n < count {
			return Value{}, 0, errors.Wrap(ErrMalformedHeader, "unexpected EOF reading CHAR payload")
		}
		v.Chars = append([]byte(nil), buf[n:n+count]...)
		n += count
		return v, n, nil
	default:
		return Value{}, 0, errors.Wrapf(ErrMalformedHeader, "unsupported type id %d", t)
	}
}

// WriteValue appends v's wire encoding to buf.
func WriteValue(buf []byte, v Value) ([]byte, error) {
	switch v.Type {
	case Missing:
		return PutTypeDescriptor(buf, v.Count, Missing)
	case Int8, Int16, Int32:
		buf, err := PutTypeDescriptor(buf, len(v.Ints), v.Type)
		if err != nil {
			return nil, err
		}
		for _, x := range v.Ints {
			buf = putInt(buf, v.Type, x)
		}
		return buf, nil
	case Float:
		buf, err := PutTypeDescriptor(buf, len(v.Floats), Float)
		if err != nil {
			return nil, err
		}
		for _, f := range v.Floats {
			buf = putInt(buf, Int32, int32(math.Float32bits(f)))
		}
		return buf, nil
	case Char:
		buf, err := PutTypeDescriptor(buf, len(v.Chars), Char)
		if err != nil {
			return nil, err
		}
		return append(buf, v.Chars...), nil
	default:
		return nil, errors.Wrapf(ErrMalformedHeader, "unsupported type id %d", v.Type)
	}
}

// PadCharsLeft left-fills s with 0x00 bytes to width, the CHAR/string
// padding rule fixed-width fields use (spec.md §4.I). s longer than
// width is returned unchanged.
func PadCharsLeft(s []byte, width int) []byte {
	if len(s) >= width {
		return s
	}
	out := make([]byte, width)
	copy(out[width-len(s):], s)
	return out
}
