package record

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Magic is the 3-byte BCF file magic, followed by a major.minor version
// byte pair (spec.md §6).
const Magic = "BCF"

// DefaultMajor and DefaultMinor are the version this package accepts by
// default: major must equal 2 always; minor = 2 is the default policy's
// requirement (spec.md §4.K — "a subclass may relax").
const (
	DefaultMajor byte = 2
	DefaultMinor byte = 2
)

// MaxHeaderSize is the largest VCF header text this package will read
// (spec.md §4.K).
const MaxHeaderSize = 128 << 20

// ErrMalformedHeader marks a bad or unreadable file prefix: wrong magic,
// a truncated read, or a header_len exceeding MaxHeaderSize. The writer
// also uses it for an oversized header and for write failures. An
// unsupported version is reported as ErrNotSupported instead.
var ErrMalformedHeader = errors.New("record: malformed BCF file header")

// ErrNotSupported marks a well-formed but unsupported version.
var ErrNotSupported = errors.New("record: unsupported BCF version")

// VersionPolicy decides whether a minor version is acceptable; major
// must always equal DefaultMajor. The default policy accepts only
// DefaultMinor; callers needing the spec's "subclass may relax" leeway
// supply their own AllowMinor.
type VersionPolicy struct {
	AllowMinor func(minor byte) bool
}

// DefaultVersionPolicy accepts exactly DefaultMajor.DefaultMinor.
func DefaultVersionPolicy() VersionPolicy {
	return VersionPolicy{AllowMinor: func(m byte) bool { return m == DefaultMinor }}
}

// ReadFileHeader reads and validates the BCF magic/version/header_len
// prefix, then returns the NUL-terminated VCF header text that follows.
func ReadFileHeader(r io.Reader, policy VersionPolicy) ([]byte, error) {
	var prefix [5]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading magic/version")
	}
	if string(prefix[0:3]) != Magic {
		return nil, errors.Wrap(ErrMalformedHeader, "bad magic")
	}
	major, minor := prefix[3], prefix[4]
	if major != DefaultMajor {
		return nil, errors.Wrapf(ErrNotSupported, "unsupported major version %d", major)
	}
	if !policy.AllowMinor(minor) {
		return nil, errors.Wrapf(ErrNotSupported, "unsupported minor version %d", minor)
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading header_len")
	}
	headerLen := binary.LittleEndian.Uint32(lenBuf[:])
	if headerLen > MaxHeaderSize {
		return nil, errors.Wrapf(ErrMalformedHeader, "header_len %d exceeds %d byte limit", headerLen, MaxHeaderSize)
	}
	text := make([]byte, headerLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "reading header text")
	}
	return text, nil
}

// WriteFileHeader writes the magic/version/header_len prefix followed by
// text (which must be NUL-terminated by the caller, per spec.md §6).
func WriteFileHeader(w io.Writer, text []byte) error {
	if len(text) > MaxHeaderSize {
		return errors.Wrapf(ErrMalformedHeader, "header length %d exceeds %d byte limit", len(text), MaxHeaderSize)
	}
	prefix := append([]byte(Magic), DefaultMajor, DefaultMinor)
	if _, err := w.Write(prefix); err != nil {
		return errors.Wrap(ErrMalformedHeader, "writing magic/version")
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(text)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(ErrMalformedHeader, "writing header_len")
	}
	if _, err := w.Write(text); err != nil {
		return errors.Wrap(ErrMalformedHeader, "writing header text")
	}
	return nil
}
