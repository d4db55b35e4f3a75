package rangecoder

import "github.com/pkg/errors"

// FormatFlags is the Range codec's stream-prefix byte, the same layout
// rANS Nx16 uses (spec.md §3): bit0=order, bit2=external, bit3=stripe,
// bit4=no-size, bit5=cat, bit6=RLE, bit7=pack. There is no N bit; the
// Range coder has no interleave-width parameter.
type FormatFlags byte

const (
	FlagOrder1   FormatFlags = 1 << 0
	FlagExternal FormatFlags = 1 << 2
	FlagStripe   FormatFlags = 1 << 3
	FlagNoSize   FormatFlags = 1 << 4
	FlagCat      FormatFlags = 1 << 5
	FlagRLE      FormatFlags = 1 << 6
	FlagPack     FormatFlags = 1 << 7
)

func (f FormatFlags) Order1() bool   { return f&FlagOrder1 != 0 }
func (f FormatFlags) External() bool { return f&FlagExternal != 0 }
func (f FormatFlags) Stripe() bool   { return f&FlagStripe != 0 }
func (f FormatFlags) NoSize() bool   { return f&FlagNoSize != 0 }
func (f FormatFlags) Cat() bool      { return f&FlagCat != 0 }
func (f FormatFlags) RLE() bool      { return f&FlagRLE != 0 }
func (f FormatFlags) Pack() bool     { return f&FlagPack != 0 }

// ErrNotSupported marks a flag combination this implementation rejects:
// cat and external set together. Stripe, RLE and pack, alone or
// combined, are supported.
var ErrNotSupported = errors.New("rangecoder: not supported")

func (f FormatFlags) validate() error {
	if f.Cat() && f.External() {
		return errors.Wrap(ErrNotSupported, "at most one of {cat, external} may be set")
	}
	return nil
}
