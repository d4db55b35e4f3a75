package series

import "github.com/pkg/errors"

// byteArrayLenCodec implements BYTE_ARRAY_LEN(lenEnc, bytesEnc): reads a
// length via lenEnc (a scalar codec), then that many bytes via bytesEnc.
// Either child may be core or external, so the composite may straddle
// both (spec.md §4.G, §9).
type byteArrayLenCodec struct {
	lenEnc   Codec
	bytesEnc ByteArrayCodec
}

func (c *byteArrayLenCodec) ReadBytes(ds *DecodeStreams, _ int) ([]byte, error) {
	n, err := c.lenEnc.ReadValue(ds)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.Wrapf(ErrMalformedRecord, "byte-array-len: negative length %d", n)
	}
	return c.bytesEnc.ReadBytes(ds, int(n))
}

func (c *byteArrayLenCodec) WriteBytes(es *EncodeStreams, data []byte) error {
	if err := c.lenEnc.WriteValue(es, int64(len(data))); err != nil {
		return err
	}
	return c.bytesEnc.WriteBytes(es, data)
}

// byteArrayStopCodec implements BYTE_ARRAY_STOP(stopByte, contentID):
// bytes are read from the external stream up to (and past) the sentinel;
// written bytes are followed by the sentinel (spec.md §4.G).
type byteArrayStopCodec struct {
	stopByte  byte
	contentID int32
}

func (c *byteArrayStopCodec) ReadBytes(ds *DecodeStreams, _ int) ([]byte, error) {
	cur, err := ds.externalFor(c.contentID)
	if err != nil {
		return nil, err
	}
	return cur.readUntil(c.stopByte)
}

func (c *byteArrayStopCodec) WriteBytes(es *EncodeStreams, data []byte) error {
	for _, b := range data {
		if b == c.stopByte {
			return errors.Wrap(ErrValueOutOfRange, "byte-array-stop: data contains the sentinel byte")
		}
	}
	es.appendExternal(c.contentID, data...)
	es.appendExternal(c.contentID, c.stopByte)
	return nil
}
