// Package blockcodec implements the uniform external-compressor contract
// (compress/uncompress over a whole byte block) shared by CRAM and the
// rANS Nx16 / Range codecs' "external" transform. It wraps RAW, GZIP,
// BZIP2 and LZMA behind one interface, following the later of the two
// factory designs the CRAM source carries: a method tag plus a single
// per-method integer argument, -1 meaning "use default" (spec.md §9).
package blockcodec

import (
	"bytes"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
)

// Method is the closed tag of block-level compression methods this package
// supports. It is a subset of CRAM's BlockCompressionMethod
// (RANS/ADAPTIVE_ARITHMETIC/NAME_TOKENISER/FQZCOMP live in sibling
// packages and are not compressors in this sense).
type Method int

const (
	Raw Method = iota
	Gzip
	Bzip2
	Lzma
)

func (m Method) String() string {
	switch m {
	case Raw:
		return "RAW"
	case Gzip:
		return "GZIP"
	case Bzip2:
		return "BZIP2"
	case Lzma:
		return "LZMA"
	default:
		return "UNKNOWN"
	}
}

// ErrCompression wraps any error surfaced by an external compressor
// (spec.md §7, CompressionError).
var ErrCompression = errors.New("blockcodec: compression error")

// Compressor is a (method, arg) pair implementing the uniform
// compress/uncompress contract. Two Compressor values are equal (in the
// sense required by spec.md §4.B) iff their Method and Arg match.
type Compressor struct {
	Method Method
	// Arg is a method-specific integer argument: GZIP write level (0-9,
	// -1 = default), otherwise unused (-1).
	Arg int
}

// New returns the default Compressor for method (Arg = -1).
func New(method Method) Compressor { return Compressor{Method: method, Arg: -1} }

// NewGzip returns a GZIP compressor at the given write level (0-9), or
// the default level if level < 0.
func NewGzip(level int) Compressor { return Compressor{Method: Gzip, Arg: level} }

// Compress compresses data according to c.
func (c Compressor) Compress(data []byte) ([]byte, error) {
	switch c.Method {
	case Raw:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case Gzip:
		level := c.Arg
		if level < 0 {
			level = gzip.DefaultCompression
		}
		var buf bytes.Buffer
		gw, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "gzip: %v", err)
		}
		if _, err := gw.Write(data); err != nil {
			return nil, errors.Wrapf(ErrCompression, "gzip: %v", err)
		}
		if err := gw.Close(); err != nil {
			return nil, errors.Wrapf(ErrCompression, "gzip: %v", err)
		}
		return buf.Bytes(), nil
	case Bzip2:
		var buf bytes.Buffer
		bw, err := bzip2.NewWriter(&buf, nil)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "bzip2: %v", err)
		}
		if _, err := bw.Write(data); err != nil {
			return nil, errors.Wrapf(ErrCompression, "bzip2: %v", err)
		}
		if err := bw.Close(); err != nil {
			return nil, errors.Wrapf(ErrCompression, "bzip2: %v", err)
		}
		return buf.Bytes(), nil
	case Lzma:
		var buf bytes.Buffer
		lw, err := lzma.NewWriter(&buf)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "lzma: %v", err)
		}
		if _, err := lw.Write(data); err != nil {
			return nil, errors.Wrapf(ErrCompression, "lzma: %v", err)
		}
		if err := lw.Close(); err != nil {
			return nil, errors.Wrapf(ErrCompression, "lzma: %v", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("blockcodec: unknown method %v", c.Method)
	}
}

// Uncompress decompresses data according to c.
func (c Compressor) Uncompress(data []byte) ([]byte, error) {
	switch c.Method {
	case Raw:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "gzip: %v", err)
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "gzip: %v", err)
		}
		return out, nil
	case Bzip2:
		br, err := bzip2.NewReader(bytes.NewReader(data), nil)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "bzip2: %v", err)
		}
		defer br.Close()
		out, err := io.ReadAll(br)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "bzip2: %v", err)
		}
		return out, nil
	case Lzma:
		lr, err := lzma.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "lzma: %v", err)
		}
		out, err := io.ReadAll(lr)
		if err != nil {
			return nil, errors.Wrapf(ErrCompression, "lzma: %v", err)
		}
		return out, nil
	default:
		return nil, errors.Errorf("blockcodec: unknown method %v", c.Method)
	}
}
