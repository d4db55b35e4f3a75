package series

import (
	"math/bits"

	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// betaCodec implements BETA(offset, bitsPerValue): a fixed-width field on
// the core bitstream (spec.md §4.G).
type betaCodec struct {
	offset int32
	bits   uint
}

func (c *betaCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	v, err := ds.Core.ReadBits(c.bits)
	if err != nil {
		return 0, err
	}
	return int64(v) - int64(c.offset), nil
}

func (c *betaCodec) WriteValue(es *EncodeStreams, v int64) error {
	x := v + int64(c.offset)
	if c.bits < 64 && (x < 0 || x >= int64(1)<<c.bits) {
		return errors.Wrapf(ErrValueOutOfRange, "beta: value %d does not fit in %d bits after offset", v, c.bits)
	}
	es.Core.WriteBits(uint64(x), c.bits)
	return nil
}

// gammaCodec implements GAMMA(offset): Elias-gamma of value+offset, which
// must be >= 1 (spec.md §4.G).
type gammaCodec struct {
	offset int32
}

func (c *gammaCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	var nzeros int
	for {
		bit, err := ds.Core.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 1 {
			break
		}
		nzeros++
	}
	v := uint64(1)
	for i := 0; i < nzeros; i++ {
		bit, err := ds.Core.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(bit)
	}
	return int64(v) - int64(c.offset), nil
}

func (c *gammaCodec) WriteValue(es *EncodeStreams, v int64) error {
	n := v + int64(c.offset)
	if n < 1 {
		return errors.Wrapf(ErrValueOutOfRange, "gamma: value+offset=%d must be >= 1", n)
	}
	nbits := bits.Len64(uint64(n))
	for i := 0; i < nbits-1; i++ {
		es.Core.WriteBit(0)
	}
	es.Core.WriteBits(uint64(n), uint(nbits))
	return nil
}

// subexpCodec implements SUBEXPONENTIAL(offset, k): an Elias-subexponential
// code with split parameter k, unary-prefixed (spec.md §4.G).
type subexpCodec struct {
	offset int32
	k      uint
}

func (c *subexpCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	var u uint
	for {
		bit, err := ds.Core.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		u++
	}
	b := c.k
	if u != 0 {
		b = u + c.k - 1
	}
	n, err := ds.Core.ReadBits(b)
	if err != nil {
		return 0, err
	}
	if u != 0 {
		n += uint64(1) << b
	}
	return int64(n) - int64(c.offset), nil
}

func (c *subexpCodec) WriteValue(es *EncodeStreams, v int64) error {
	n := v + int64(c.offset)
	if n < 0 {
		return errors.Wrapf(ErrValueOutOfRange, "subexponential: value+offset=%d must be >= 0", n)
	}
	un := uint64(n)
	var b, u uint
	if un < uint64(1)<<c.k {
		b = c.k
		u = 0
	} else {
		b = uint(bits.Len64(un)) - 1
		u = b - c.k + 1
	}
	for i := uint(0); i < u; i++ {
		es.Core.WriteBit(1)
	}
	es.Core.WriteBit(0)
	if u == 0 {
		es.Core.WriteBits(un, b)
	} else {
		es.Core.WriteBits(un-(uint64(1)<<b), b)
	}
	return nil
}

// ceilLog2 returns the number of bits needed for truncated-binary codes
// over [0, m).
func ceilLog2(m uint64) uint {
	if m <= 1 {
		return 0
	}
	return uint(bits.Len64(m - 1))
}

func writeTruncatedBinary(w *bitio.Writer, r, m uint64) {
	if m <= 1 {
		return
	}
	b := ceilLog2(m)
	threshold := (uint64(1) << b) - m
	if r < threshold {
		w.WriteBits(r, b-1)
		return
	}
	w.WriteBits(r+threshold, b)
}

func readTruncatedBinary(r *bitio.Reader, m uint64) (uint64, error) {
	if m <= 1 {
		return 0, nil
	}
	b := ceilLog2(m)
	threshold := (uint64(1) << b) - m
	v, err := r.ReadBits(b - 1)
	if err != nil {
		return 0, err
	}
	if v < threshold {
		return v, nil
	}
	bit, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	full := v<<1 | uint64(bit)
	return full - threshold, nil
}

// golombCodec implements both GOLOMB(offset, M) and GOLOMB_RICE(offset,
// log2M) — the latter is simply the former with M constrained to a power
// of two, at which point truncated binary degenerates to plain binary
// (spec.md §4.G).
type golombCodec struct {
	offset int32
	m      uint64
}

func (c *golombCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	var q uint64
	for {
		bit, err := ds.Core.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		q++
	}
	r, err := readTruncatedBinary(ds.Core, c.m)
	if err != nil {
		return 0, err
	}
	n := q*c.m + r
	return int64(n) - int64(c.offset), nil
}

func (c *golombCodec) WriteValue(es *EncodeStreams, v int64) error {
	n := v + int64(c.offset)
	if n < 0 {
		return errors.Wrapf(ErrValueOutOfRange, "golomb: value+offset=%d must be >= 0", n)
	}
	un := uint64(n)
	q := un / c.m
	r := un % c.m
	for i := uint64(0); i < q; i++ {
		es.Core.WriteBit(1)
	}
	es.Core.WriteBit(0)
	writeTruncatedBinary(es.Core, r, c.m)
	return nil
}
