// Package ransnx16 implements the generalized N-way interleaved rANS
// codec (N in {4,32}) with 16-bit renormalization words and the four
// optional byte-transforms (pack, RLE, stripe, CAT), per spec.md §4.D.
package ransnx16

import "github.com/pkg/errors"

// FormatFlags is the one-byte header preceding every Nx16 stream
// (spec.md §3): bit0=order, bit2=external, bit3=stripe, bit4=no-size,
// bit5=cat, bit6=RLE, bit7=pack.
type FormatFlags byte

const (
	FlagOrder1   FormatFlags = 1 << 0
	FlagN32      FormatFlags = 1 << 1 // not in spec.md's bit table; encodes N=32 vs N=4 locally
	FlagExternal FormatFlags = 1 << 2
	FlagStripe   FormatFlags = 1 << 3
	FlagNoSize   FormatFlags = 1 << 4
	FlagCat      FormatFlags = 1 << 5
	FlagRLE      FormatFlags = 1 << 6
	FlagPack     FormatFlags = 1 << 7
)

func (f FormatFlags) Order1() bool   { return f&FlagOrder1 != 0 }
func (f FormatFlags) N32() bool      { return f&FlagN32 != 0 }
func (f FormatFlags) External() bool { return f&FlagExternal != 0 }
func (f FormatFlags) Stripe() bool   { return f&FlagStripe != 0 }
func (f FormatFlags) NoSize() bool   { return f&FlagNoSize != 0 }
func (f FormatFlags) Cat() bool      { return f&FlagCat != 0 }
func (f FormatFlags) RLE() bool      { return f&FlagRLE != 0 }
func (f FormatFlags) Pack() bool     { return f&FlagPack != 0 }

func (f FormatFlags) N() int {
	if f.N32() {
		return 32
	}
	return 4
}

// ErrNotSupported marks a spec-allowed flag combination this
// implementation does not (yet) implement, distinct from malformed
// input (spec.md §7).
var ErrNotSupported = errors.New("ransnx16: not supported")

// validate rejects combinations spec.md declares meaningless: cat and
// external both set. RLE and pack are transforms layered ahead of
// entropy coding and are compatible with either cat or external being
// unset; they are not alternate "body kinds" themselves.
func (f FormatFlags) validate() error {
	bodyKinds := 0
	if f.Cat() {
		bodyKinds++
	}
	if f.External() {
		bodyKinds++
	}
	if bodyKinds > 1 {
		return errors.Wrap(ErrNotSupported, "at most one of {cat, external} may be set")
	}
	return nil
}
