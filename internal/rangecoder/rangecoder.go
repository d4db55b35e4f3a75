package rangecoder

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/grailbio/seqcore/internal/blockcodec"
	"github.com/grailbio/seqcore/internal/transform"
	"github.com/pkg/errors"
)

// Params configures one Range codec compress call, mirroring
// ransnx16.Params minus the interleave width (the Range coder has no N
// parameter).
type Params struct {
	Order1   bool
	Pack     bool
	RLE      bool
	Stripe   int
	External bool
	Cat      bool
	NoSize   bool
}

func (p Params) flags() FormatFlags {
	var f FormatFlags
	if p.Order1 {
		f |= FlagOrder1
	}
	if p.NoSize {
		f |= FlagNoSize
	}
	if p.Stripe > 0 {
		f |= FlagStripe
	}
	return f
}

// Encode compresses data according to p.
func Encode(data []byte, p Params) ([]byte, error) {
	if p.Stripe > 0 {
		return encodeStripe(data, p)
	}
	return encodeFlat(data, p)
}

func encodeStripe(data []byte, p Params) ([]byte, error) {
	k := p.Stripe
	subs := transform.Split(data, k)
	subParams := p
	subParams.Stripe = 0
	clens := make([]int, k)
	var bodies []byte
	for j, sub := range subs {
		blob, err := Encode(sub, subParams)
		if err != nil {
			return nil, errors.Wrapf(err, "stripe substream %d", j)
		}
		clens[j] = len(blob)
		bodies = append(bodies, blob...)
	}
	flags := p.flags()
	out := []byte{byte(flags)}
	if !p.NoSize {
		out = bitio.PutUint7(out, uint64(len(data)))
	}
	out = transform.PutStripeHeader(out, clens)
	out = append(out, bodies...)
	return out, nil
}

func encodeFlat(data []byte, p Params) ([]byte, error) {
	flags := p.flags()

	if p.Cat && p.External {
		return nil, errors.Wrap(ErrNotSupported, "cat and external are mutually exclusive")
	}

	switch {
	case p.Cat:
		flags |= FlagCat
		out := []byte{byte(flags)}
		if !p.NoSize {
			out = bitio.PutUint7(out, uint64(len(data)))
		}
		return append(out, data...), nil
	case p.External:
		flags |= FlagExternal
		compressed, err := blockcodec.New(blockcodec.Bzip2).Compress(data)
		if err != nil {
			return nil, err
		}
		out := []byte{byte(flags)}
		if !p.NoSize {
			out = bitio.PutUint7(out, uint64(len(data)))
		}
		return append(out, compressed...), nil
	}

	working := data
	var packHeader []byte
	if p.Pack && transform.CanPack(data) {
		flags |= FlagPack
		h, body, err := transform.PackSeparate(data)
		if err != nil {
			return nil, err
		}
		packHeader = h
		working = body
	}

	var body []byte
	if p.RLE {
		flags |= FlagRLE
		body = encodeRLE(working, flags.Order1())
	} else {
		body = encodeLiteral(working, flags.Order1())
	}

	out := []byte{byte(flags)}
	if !p.NoSize {
		out = bitio.PutUint7(out, uint64(len(data)))
	}
	if packHeader != nil {
		out = append(out, packHeader...)
	}
	out = bitio.PutUint7(out, uint64(len(working)))
	out = append(out, body...)
	return out, nil
}

// Decode reverses Encode.
func Decode(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, bitio.ErrUnexpectedEOF
	}
	flags := FormatFlags(buf[0])
	if err := flags.validate(); err != nil {
		return nil, err
	}
	pos := 1

	var rawLen int
	haveSize := !flags.NoSize()
	if haveSize {
		v, n, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return nil, err
		}
		rawLen = int(v)
		pos += n
	}

	if flags.Stripe() {
		clens, n, err := transform.GetStripeHeader(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		subs := make([][]byte, len(clens))
		for j, clen := range clens {
			if len(buf) < pos+clen {
				return nil, bitio.ErrUnexpectedEOF
			}
			sub, err := Decode(buf[pos : pos+clen])
			if err != nil {
				return nil, errors.Wrapf(err, "stripe substream %d", j)
			}
			subs[j] = sub
			pos += clen
		}
		return transform.Merge(subs), nil
	}

	if flags.Cat() {
		if !haveSize {
			return append([]byte(nil), buf[pos:]...), nil
		}
		if len(buf) < pos+rawLen {
			return nil, bitio.ErrUnexpectedEOF
		}
		return append([]byte(nil), buf[pos:pos+rawLen]...), nil
	}
	if flags.External() {
		return blockcodec.New(blockcodec.Bzip2).Uncompress(buf[pos:])
	}

	var mapping []byte
	var packK int
	if flags.Pack() {
		if len(buf) < pos+1 {
			return nil, bitio.ErrUnexpectedEOF
		}
		packK = int(buf[pos])
		if packK == 0 {
			packK = 1
		}
		pos++
		if len(buf) < pos+packK {
			return nil, bitio.ErrUnexpectedEOF
		}
		mapping = buf[pos : pos+packK]
		pos += packK
		_, n, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
	}

	workingLen, n, err := bitio.GetUint7(buf[pos:])
	if err != nil {
		return nil, err
	}
	pos += n

	var working []byte
	if flags.RLE() {
		working = decodeRLE(buf[pos:], flags.Order1(), int(workingLen))
	} else {
		working = decodeLiteral(buf[pos:], flags.Order1(), int(workingLen))
	}

	if flags.Pack() {
		hdr := append([]byte{byte(packK)}, mapping...)
		hdr = bitio.PutUint7(hdr, uint64(len(working)))
		return transform.UnpackSeparate(hdr, working, rawLen)
	}
	return working, nil
}
