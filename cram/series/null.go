package series

// nullCodec implements NULL: read produces the zero value, write is a
// no-op (spec.md §4.G).
type nullCodec struct{}

func (nullCodec) ReadValue(*DecodeStreams) (int64, error) { return 0, nil }
func (nullCodec) WriteValue(*EncodeStreams, int64) error  { return nil }

// nullByteArrayCodec is NULL's byte-array counterpart, used when a
// BYTE_ARRAY_LEN's bytesEnc child is NULL.
type nullByteArrayCodec struct{}

func (nullByteArrayCodec) ReadBytes(*DecodeStreams, int) ([]byte, error) { return nil, nil }
func (nullByteArrayCodec) WriteBytes(*EncodeStreams, []byte) error       { return nil }
