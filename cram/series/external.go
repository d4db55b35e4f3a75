package series

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// externalCodec implements the scalar forms of EXTERNAL: a raw byte, an
// ITF8 integer, or an LTF8 long written to the named external stream
// (spec.md §4.G).
type externalCodec struct {
	contentID int32
	elemType  ElementType
}

func (c *externalCodec) ReadValue(ds *DecodeStreams) (int64, error) {
	cur, err := ds.externalFor(c.contentID)
	if err != nil {
		return 0, err
	}
	switch c.elemType {
	case Byte:
		b, err := cur.readByte()
		return int64(b), err
	case Int:
		v, n, err := bitio.GetITF8(cur.buf[cur.pos:])
		if err != nil {
			return 0, err
		}
		cur.pos += n
		return int64(int32(v)), nil
	case Long:
		v, n, err := bitio.GetLTF8(cur.buf[cur.pos:])
		if err != nil {
			return 0, err
		}
		cur.pos += n
		return int64(v), nil
	default:
		return 0, errors.Wrap(ErrMalformedHeader, "external: BYTE_ARRAY element type needs a byte-array codec")
	}
}

func (c *externalCodec) WriteValue(es *EncodeStreams, v int64) error {
	switch c.elemType {
	case Byte:
		es.appendExternal(c.contentID, byte(v))
	case Int:
		es.External[c.contentID] = bitio.PutITF8(es.External[c.contentID], uint32(int32(v)))
	case Long:
		es.External[c.contentID] = bitio.PutLTF8(es.External[c.contentID], uint64(v))
	default:
		return errors.Wrap(ErrMalformedHeader, "external: BYTE_ARRAY element type needs a byte-array codec")
	}
	return nil
}

// externalByteArrayCodec implements EXTERNAL for BYTE_ARRAY element type,
// typically as the bytesEnc child of a BYTE_ARRAY_LEN descriptor: a fixed
// number of raw bytes from the named external stream.
type externalByteArrayCodec struct {
	contentID int32
}

func (c *externalByteArrayCodec) ReadBytes(ds *DecodeStreams, length int) ([]byte, error) {
	if length < 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "external byte array: a declared length is required")
	}
	cur, err := ds.externalFor(c.contentID)
	if err != nil {
		return nil, err
	}
	return cur.readN(length)
}

func (c *externalByteArrayCodec) WriteBytes(es *EncodeStreams, data []byte) error {
	es.appendExternal(c.contentID, data...)
	return nil
}
