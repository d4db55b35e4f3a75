// Package series implements the CRAM data-series codecs: the per-series
// encoding descriptors (NULL, EXTERNAL, HUFFMAN, BETA, GAMMA,
// SUBEXPONENTIAL, GOLOMB, GOLOMB_RICE, BYTE_ARRAY_LEN, BYTE_ARRAY_STOP) and
// the streams they read from and write to (spec.md §4.G).
//
// A codec never owns the streams it operates on; the record reader/writer
// in package record constructs one DecodeStreams or EncodeStreams value per
// slice and lends it to
// every codec built for that slice (spec.md §9, "many small mutable codec
// instances with shared stream handles").
package series

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// ElementType is the declared element type of a CRAM data series.
type ElementType int

const (
	Byte ElementType = iota
	Int
	Long
	ByteArray
)

// ErrMalformedHeader marks a corrupt encoding descriptor: an unknown
// encoding ID, a truncated parameter body, or a parameter count the
// encoding does not expect.
var ErrMalformedHeader = errors.New("series: malformed encoding descriptor")

// ErrValueOutOfRange marks an encoder argument that cannot be represented
// under the chosen encoding (e.g. BETA given a value that does not fit in
// bitsPerValue bits after adding offset).
var ErrValueOutOfRange = errors.New("series: value out of range")

// ErrMalformedRecord marks a read that could not be satisfied by the
// streams in play: an external stream with no data registered for its
// content ID, or a BYTE_ARRAY_STOP read that exhausts its stream without
// finding the sentinel.
var ErrMalformedRecord = errors.New("series: malformed record")

// externalCursor is a byte-addressable read cursor over one decompressed
// external block.
type externalCursor struct {
	buf []byte
	pos int
}

func (c *externalCursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, bitio.ErrUnexpectedEOF
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *externalCursor) readN(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, bitio.ErrUnexpectedEOF
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// readUntil scans for sentinel, returning the bytes strictly before it and
// advancing past it. It fails with ErrMalformedRecord if sentinel never
// appears.
func (c *externalCursor) readUntil(sentinel byte) ([]byte, error) {
	for i := c.pos; i < len(c.buf); i++ {
		if c.buf[i] == sentinel {
			out := c.buf[c.pos:i]
			c.pos = i + 1
			return out, nil
		}
	}
	return nil, errors.Wrap(ErrMalformedRecord, "byte-array-stop: sentinel not found")
}

// DecodeStreams bundles the borrowed read cursors for one slice: the core
// bit-addressable stream, plus one byte-addressable cursor per external
// content ID already decompressed by the caller.
type DecodeStreams struct {
	Core     *bitio.Reader
	external map[int32]*externalCursor
}

// NewDecodeStreams wraps a core bitstream reader and a set of decompressed
// external blocks keyed by content ID.
func NewDecodeStreams(core *bitio.Reader, externalBlocks map[int32][]byte) *DecodeStreams {
	ds := &DecodeStreams{Core: core, external: make(map[int32]*externalCursor, len(externalBlocks))}
	for id, buf := range externalBlocks {
		ds.external[id] = &externalCursor{buf: buf}
	}
	return ds
}

func (ds *DecodeStreams) externalFor(contentID int32) (*externalCursor, error) {
	c, ok := ds.external[contentID]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedRecord, "no external stream registered for content ID %d", contentID)
	}
	return c, nil
}

// EncodeStreams bundles the borrowed write cursors for one slice: the core
// bit-addressable stream, plus a growable byte buffer per external content
// ID, flushed and block-compressed by the caller once the slice is done.
type EncodeStreams struct {
	Core     *bitio.Writer
	External map[int32][]byte
}

// NewEncodeStreams returns an EncodeStreams with an empty external-block
// map, ready to accumulate bytes as series are written.
func NewEncodeStreams(core *bitio.Writer) *EncodeStreams {
	return &EncodeStreams{Core: core, External: make(map[int32][]byte)}
}

func (es *EncodeStreams) appendExternal(contentID int32, b ...byte) {
	es.External[contentID] = append(es.External[contentID], b...)
}

// Codec reads and writes scalar values (Byte, Int, or Long element types)
// of one data series.
type Codec interface {
	ReadValue(ds *DecodeStreams) (int64, error)
	WriteValue(es *EncodeStreams, v int64) error
}

// ByteArrayCodec reads and writes BYTE_ARRAY element-typed series.
type ByteArrayCodec interface {
	// ReadBytes reads one byte array. BYTE_ARRAY_LEN and BYTE_ARRAY_STOP
	// find its extent themselves (via the length codec or the sentinel)
	// and ignore length; EXTERNAL reads exactly length bytes and rejects
	// length < 0.
	ReadBytes(ds *DecodeStreams, length int) ([]byte, error)
	WriteBytes(es *EncodeStreams, data []byte) error
}
