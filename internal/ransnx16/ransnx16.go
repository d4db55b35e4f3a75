package ransnx16

import (
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/grailbio/seqcore/internal/blockcodec"
	"github.com/grailbio/seqcore/internal/transform"
	"github.com/pkg/errors"
)

// Params configures one Nx16 compress call. Not every combination is
// meaningful together; Encode validates and returns ErrNotSupported for
// ones it does not implement.
type Params struct {
	N        int  // 4 or 32
	Order1   bool
	Pack     bool // attempt Pack if the alphabet allows it
	RLE      bool
	Stripe   int  // >0 enables stripe with this many sub-streams
	External bool // body is BZIP2 of the raw input
	Cat      bool // body is the raw input, uncompressed
	NoSize   bool
}

func (p Params) flags() FormatFlags {
	var f FormatFlags
	if p.Order1 {
		f |= FlagOrder1
	}
	if p.N == 32 {
		f |= FlagN32
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
	if p.N == 0 {
		p.N = 4
	}
	if p.N != 4 && p.N != 32 {
		return nil, errors.Wrapf(ErrNotSupported, "N=%d", p.N)
	}
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
		out = append(out, data...)
		return out, nil
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
		out = append(out, compressed...)
		return out, nil
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

	if p.RLE {
		flags |= FlagRLE
		working = transform.RLEEncode(working)
	}

	entropy, err := encodeEntropy(working, p.N, flags.Order1())
	if err != nil {
		return nil, err
	}

	out := []byte{byte(flags)}
	if !p.NoSize {
		out = bitio.PutUint7(out, uint64(len(data)))
	}
	if packHeader != nil {
		out = append(out, packHeader...)
	}
	out = append(out, entropy...)
	return out, nil
}

// Decode reverses Encode, reading all parameters (N, order, transforms)
// from the stream's own header.
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
		k := len(clens)
		subs := make([][]byte, k)
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

	working, err := decodeEntropy(buf[pos:], flags.Order1())
	if err != nil {
		return nil, err
	}

	if flags.RLE() {
		rleOutLen := rawLen
		if flags.Pack() {
			// RLE expands back to the packed-byte length, not rawLen; we
			// don't have it directly, so RLEDecode must be driven by a
			// known target length. We recover it from the pack mapping's
			// implied bit width and rawLen (number of post-unpack symbols).
			rleOutLen = packedByteLen(rawLen, packK)
		}
		working, err = transform.RLEDecode(working, rleOutLen)
		if err != nil {
			return nil, err
		}
	}

	if flags.Pack() {
		hdr := append([]byte{byte(packK)}, mapping...)
		hdr = bitio.PutUint7(hdr, uint64(len(working)))
		return transform.UnpackSeparate(hdr, working, rawLen)
	}

	return working, nil
}

// packedByteLen returns how many packed bytes n symbols occupy given a
// k-symbol alphabet, mirroring transform's internal bit-width table.
func packedByteLen(n, k int) int {
	var width uint
	switch {
	case k <= 2:
		width = 1
	case k <= 4:
		width = 2
	default:
		width = 4
	}
	perByte := int(8 / width)
	return (n + perByte - 1) / perByte
}

func encodeEntropy(data []byte, n int, order1 bool) ([]byte, error) {
	lanes := splitLanes(data, n)
	if !order1 {
		var counts [256]uint32
		for _, b := range data {
			counts[b]++
		}
		freq := normalizeFrequencies(counts)
		table, err := newFreqTable(freq)
		if err != nil {
			return nil, err
		}
		header := encodeFreq0(freq)
		body, states := encodeLanesOrder0(lanes, table)
		return assembleEntropy(header, body, states, len(data)), nil
	}
	var counts [256][256]uint32
	for lane, ld := range lanes {
		for i, b := range ld {
			counts[contextAt(lanes, lane, i)][b]++
		}
	}
	freq := normalizeOrder1(counts)
	tables, err := newOrder1Tables(freq)
	if err != nil {
		return nil, err
	}
	header := encodeFreq1(freq)
	body, states := encodeLanesOrder1(lanes, tables)
	return assembleEntropy(header, body, states, len(data)), nil
}

// assembleEntropy prefixes the frequency table, lane state vector and
// the total symbol count (needed by the decoder since RLE, applied
// without Pack, shrinks the symbol count in a way not recoverable from
// the outer stream's raw length alone) onto the entropy-coded body.
func assembleEntropy(header, body []byte, states []uint32, totalLen int) []byte {
	out := bitio.PutUint7(nil, uint64(len(header)))
	out = append(out, header...)
	out = bitio.PutUint7(out, uint64(len(states)))
	for i := len(states) - 1; i >= 0; i-- {
		out = append(out,
			byte(states[i]), byte(states[i]>>8), byte(states[i]>>16), byte(states[i]>>24))
	}
	out = bitio.PutUint7(out, uint64(totalLen))
	out = append(out, body...)
	return out
}

func decodeEntropy(buf []byte, order1 bool) ([]byte, error) {
	headerLen, p1, err := bitio.GetUint7(buf)
	if err != nil {
		return nil, err
	}
	pos := p1
	header := buf[pos : pos+int(headerLen)]
	pos += int(headerLen)

	numStates, p2, err := bitio.GetUint7(buf[pos:])
	if err != nil {
		return nil, err
	}
	pos += p2
	states := make([]uint32, numStates)
	for i := int(numStates) - 1; i >= 0; i-- {
		states[i] = uint32(buf[pos]) | uint32(buf[pos+1])<<8 | uint32(buf[pos+2])<<16 | uint32(buf[pos+3])<<24
		pos += 4
	}
	totalLen, p3, err := bitio.GetUint7(buf[pos:])
	if err != nil {
		return nil, err
	}
	pos += p3
	body := buf[pos:]

	laneLens := laneLengths(int(totalLen), int(numStates))
	if !order1 {
		freq, _, err := decodeFreq0(header)
		if err != nil {
			return nil, err
		}
		table, err := newFreqTable(freq)
		if err != nil {
			return nil, err
		}
		return decodeLanesOrder0(body, states, laneLens, table), nil
	}
	freq, _, err := decodeFreq1(header)
	if err != nil {
		return nil, err
	}
	tables, err := newOrder1Tables(freq)
	if err != nil {
		return nil, err
	}
	return decodeLanesOrder1(body, states, laneLens, tables), nil
}
