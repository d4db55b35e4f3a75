package series

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// Kind is the one-byte tag of an encoding descriptor (spec.md §4.G, §6).
// The ordinals match the published CRAM encoding-ID table so a descriptor
// produced here reads the same on the wire as any other CRAM
// implementation's.
type Kind byte

const (
	KindNull           Kind = 0
	KindExternal       Kind = 1
	KindGolomb         Kind = 2
	KindHuffman        Kind = 3
	KindByteArrayLen   Kind = 4
	KindByteArrayStop  Kind = 5
	KindBeta           Kind = 6
	KindSubexponential Kind = 7
	KindGolombRice     Kind = 8
	KindGamma          Kind = 9
)

// Descriptor is a tagged union over the ten encoding variants (spec.md §9,
// design note on dynamic dispatch: "the target should use a tagged union
// of encoding variants"). Only the fields relevant to Kind are populated;
// the rest are zero.
type Descriptor struct {
	Kind Kind

	ContentID int32 // EXTERNAL, BYTE_ARRAY_STOP

	Values     []int32 // HUFFMAN
	BitLengths []int32 // HUFFMAN

	Offset       int32 // BETA, GAMMA, SUBEXPONENTIAL, GOLOMB, GOLOMB_RICE
	BitsPerValue int32 // BETA
	K            int32 // SUBEXPONENTIAL
	M            int32 // GOLOMB
	Log2M        int32 // GOLOMB_RICE

	StopByte byte // BYTE_ARRAY_STOP

	LenEnc   *Descriptor // BYTE_ARRAY_LEN
	BytesEnc *Descriptor // BYTE_ARRAY_LEN
}

func putSignedITF8(buf []byte, v int32) []byte { return bitio.PutITF8(buf, uint32(v)) }

func getSignedITF8(buf []byte) (int32, int, error) {
	v, n, err := bitio.GetITF8(buf)
	return int32(v), n, err
}

// Serialize writes d in the wire form `id:u8 | params_len:itf8 | params`
// (spec.md §6).
func (d *Descriptor) Serialize() ([]byte, error) {
	params, err := d.serializeParams()
	if err != nil {
		return nil, err
	}
	out := []byte{byte(d.Kind)}
	out = bitio.PutITF8(out, uint32(len(params)))
	out = append(out, params...)
	return out, nil
}

func (d *Descriptor) serializeParams() ([]byte, error) {
	var p []byte
	switch d.Kind {
	case KindNull:
		return nil, nil
	case KindExternal:
		return putSignedITF8(p, d.ContentID), nil
	case KindHuffman:
		if len(d.Values) != len(d.BitLengths) {
			return nil, errors.Wrap(ErrMalformedHeader, "huffman: values/bitLengths length mismatch")
		}
		p = bitio.PutITF8(p, uint32(len(d.Values)))
		for _, v := range d.Values {
			p = putSignedITF8(p, v)
		}
		p = bitio.PutITF8(p, uint32(len(d.BitLengths)))
		for _, l := range d.BitLengths {
			p = putSignedITF8(p, l)
		}
		return p, nil
	case KindBeta:
		p = putSignedITF8(p, d.Offset)
		p = putSignedITF8(p, d.BitsPerValue)
		return p, nil
	case KindGamma:
		return putSignedITF8(p, d.Offset), nil
	case KindSubexponential:
		p = putSignedITF8(p, d.Offset)
		p = putSignedITF8(p, d.K)
		return p, nil
	case KindGolomb:
		p = putSignedITF8(p, d.Offset)
		p = putSignedITF8(p, d.M)
		return p, nil
	case KindGolombRice:
		p = putSignedITF8(p, d.Offset)
		p = putSignedITF8(p, d.Log2M)
		return p, nil
	case KindByteArrayStop:
		p = append(p, d.StopByte)
		p = putSignedITF8(p, d.ContentID)
		return p, nil
	case KindByteArrayLen:
		if d.LenEnc == nil || d.BytesEnc == nil {
			return nil, errors.Wrap(ErrMalformedHeader, "byte-array-len: both children are required")
		}
		lenBytes, err := d.LenEnc.Serialize()
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: lenEnc")
		}
		bytesBytes, err := d.BytesEnc.Serialize()
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: bytesEnc")
		}
		p = append(p, lenBytes...)
		p = append(p, bytesBytes...)
		return p, nil
	default:
		return nil, errors.Wrapf(ErrMalformedHeader, "unknown encoding kind %d", d.Kind)
	}
}

// Parse reads one encoding descriptor from the front of buf, returning the
// descriptor and the number of bytes consumed.
func Parse(buf []byte) (*Descriptor, int, error) {
	if len(buf) < 1 {
		return nil, 0, bitio.ErrUnexpectedEOF
	}
	kind := Kind(buf[0])
	pos := 1
	plen, n, err := bitio.GetITF8(buf[pos:])
	if err != nil {
		return nil, 0, err
	}
	pos += n
	if len(buf) < pos+int(plen) {
		return nil, 0, bitio.ErrUnexpectedEOF
	}
	params := buf[pos : pos+int(plen)]
	pos += int(plen)

	d, err := parseParams(kind, params)
	if err != nil {
		return nil, 0, err
	}
	return d, pos, nil
}

func parseParams(kind Kind, params []byte) (*Descriptor, error) {
	d := &Descriptor{Kind: kind}
	pos := 0
	need := func(n int) error {
		if len(params)-pos < n {
			return bitio.ErrUnexpectedEOF
		}
		return nil
	}
	readSigned := func() (int32, error) {
		v, n, err := getSignedITF8(params[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
		return v, nil
	}
	switch kind {
	case KindNull:
	case KindExternal:
		v, err := readSigned()
		if err != nil {
			return nil, err
		}
		d.ContentID = v
	case KindHuffman:
		nv, n, err := bitio.GetITF8(params[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		d.Values = make([]int32, nv)
		for i := range d.Values {
			if d.Values[i], err = readSigned(); err != nil {
				return nil, err
			}
		}
		nl, n, err := bitio.GetITF8(params[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		if nl != nv {
			return nil, errors.Wrap(ErrMalformedHeader, "huffman: values/bitLengths count mismatch")
		}
		d.BitLengths = make([]int32, nl)
		for i := range d.BitLengths {
			if d.BitLengths[i], err = readSigned(); err != nil {
				return nil, err
			}
		}
	case KindBeta:
		var err error
		if d.Offset, err = readSigned(); err != nil {
			return nil, err
		}
		if d.BitsPerValue, err = readSigned(); err != nil {
			return nil, err
		}
	case KindGamma:
		var err error
		if d.Offset, err = readSigned(); err != nil {
			return nil, err
		}
	case KindSubexponential:
		var err error
		if d.Offset, err = readSigned(); err != nil {
			return nil, err
		}
		if d.K, err = readSigned(); err != nil {
			return nil, err
		}
	case KindGolomb:
		var err error
		if d.Offset, err = readSigned(); err != nil {
			return nil, err
		}
		if d.M, err = readSigned(); err != nil {
			return nil, err
		}
	case KindGolombRice:
		var err error
		if d.Offset, err = readSigned(); err != nil {
			return nil, err
		}
		if d.Log2M, err = readSigned(); err != nil {
			return nil, err
		}
	case KindByteArrayStop:
		if err := need(1); err != nil {
			return nil, err
		}
		d.StopByte = params[pos]
		pos++
		v, err := readSigned()
		if err != nil {
			return nil, err
		}
		d.ContentID = v
	case KindByteArrayLen:
		lenEnc, n, err := Parse(params[pos:])
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: lenEnc")
		}
		pos += n
		bytesEnc, n, err := Parse(params[pos:])
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: bytesEnc")
		}
		pos += n
		d.LenEnc = lenEnc
		d.BytesEnc = bytesEnc
	default:
		return nil, errors.Wrapf(ErrMalformedHeader, "unknown encoding id %d", kind)
	}
	if pos != len(params) {
		return nil, errors.Wrap(ErrMalformedHeader, "trailing bytes in encoding parameters")
	}
	return d, nil
}

// BuildCodec constructs the scalar Codec for d, reading/writing values of
// elemType (Byte, Int, or Long). BYTE_ARRAY_LEN and BYTE_ARRAY_STOP are
// array-only and are rejected here.
func (d *Descriptor) BuildCodec(elemType ElementType) (Codec, error) {
	switch d.Kind {
	case KindNull:
		return nullCodec{}, nil
	case KindExternal:
		return &externalCodec{contentID: d.ContentID, elemType: elemType}, nil
	case KindHuffman:
		return newHuffmanCodec(d.Values, d.BitLengths)
	case KindBeta:
		if d.BitsPerValue < 0 || d.BitsPerValue > 32 {
			return nil, errors.Wrapf(ErrValueOutOfRange, "beta: bitsPerValue %d out of range", d.BitsPerValue)
		}
		return &betaCodec{offset: d.Offset, bits: uint(d.BitsPerValue)}, nil
	case KindGamma:
		return &gammaCodec{offset: d.Offset}, nil
	case KindSubexponential:
		return &subexpCodec{offset: d.Offset, k: uint(d.K)}, nil
	case KindGolomb:
		if d.M <= 0 {
			return nil, errors.Wrap(ErrMalformedHeader, "golomb: M must be positive")
		}
		return &golombCodec{offset: d.Offset, m: uint64(d.M)}, nil
	case KindGolombRice:
		if d.Log2M < 0 || d.Log2M > 62 {
			return nil, errors.Wrap(ErrMalformedHeader, "golomb-rice: log2M out of range")
		}
		return &golombCodec{offset: d.Offset, m: uint64(1) << uint(d.Log2M)}, nil
	default:
		return nil, errors.Wrapf(ErrMalformedHeader, "encoding kind %d does not produce a scalar codec", d.Kind)
	}
}

// BuildByteArrayCodec constructs the ByteArrayCodec for d.
func (d *Descriptor) BuildByteArrayCodec() (ByteArrayCodec, error) {
	switch d.Kind {
	case KindNull:
		return nullByteArrayCodec{}, nil
	case KindExternal:
		return &externalByteArrayCodec{contentID: d.ContentID}, nil
	case KindByteArrayStop:
		return &byteArrayStopCodec{stopByte: d.StopByte, contentID: d.ContentID}, nil
	case KindByteArrayLen:
		if d.LenEnc == nil || d.BytesEnc == nil {
			return nil, errors.Wrap(ErrMalformedHeader, "byte-array-len: both children are required")
		}
		lenEnc, err := d.LenEnc.BuildCodec(Int)
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: lenEnc")
		}
		bytesEnc, err := d.BytesEnc.BuildByteArrayCodec()
		if err != nil {
			return nil, errors.Wrap(err, "byte-array-len: bytesEnc")
		}
		return &byteArrayLenCodec{lenEnc: lenEnc, bytesEnc: bytesEnc}, nil
	default:
		return nil, errors.Wrapf(ErrMalformedHeader, "encoding kind %d does not produce a byte-array codec", d.Kind)
	}
}
