package ransnx16

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

const (
	TotFreqBits = 12
	TotFreq     = 1 << TotFreqBits
	RansL       = 1 << 23
)

var ErrMalformedFrequencies = errors.New("ransnx16: malformed frequency table")

type freqTable struct {
	freq     [256]uint32
	cumFreq  [256]uint32
	cumToSym [TotFreq]byte
}

func newFreqTable(freq [256]uint32) (*freqTable, error) {
	t := &freqTable{freq: freq}
	var sum uint32
	for s := 0; s < 256; s++ {
		t.cumFreq[s] = sum
		sum += freq[s]
	}
	if sum != TotFreq {
		log.Error.Printf("ransnx16: frequency table sums to %d, want %d", sum, TotFreq)
		return nil, ErrMalformedFrequencies
	}
	for s := 0; s < 256; s++ {
		for i := uint32(0); i < freq[s]; i++ {
			t.cumToSym[t.cumFreq[s]+i] = byte(s)
		}
	}
	return t, nil
}

func normalizeFrequencies(counts [256]uint32) [256]uint32 {
	var total uint64
	for _, c := range counts {
		total += uint64(c)
	}
	var out [256]uint32
	if total == 0 {
		out[0] = TotFreq
		return out
	}
	var normTotal uint32
	for s, c := range counts {
		if c == 0 {
			continue
		}
		n := uint32((uint64(c) * TotFreq) / total)
		if n == 0 {
			n = 1
		}
		out[s] = n
		normTotal += n
	}
	if normTotal != TotFreq {
		maxIdx := 0
		for s, n := range out {
			if n > out[maxIdx] {
				maxIdx = s
			}
		}
		if normTotal > TotFreq {
			out[maxIdx] -= normTotal - TotFreq
		} else {
			out[maxIdx] += TotFreq - normTotal
		}
	}
	return out
}

func encodeFreq0(freq [256]uint32) []byte {
	var nonzero int
	for _, f := range freq {
		if f != 0 {
			nonzero++
		}
	}
	out := bitio.PutUint7(nil, uint64(nonzero))
	last := -1
	for s := 0; s < 256; s++ {
		if freq[s] == 0 {
			continue
		}
		out = bitio.PutUint7(out, uint64(s-last-1))
		out = bitio.PutUint7(out, uint64(freq[s]))
		last = s
	}
	return out
}

func decodeFreq0(buf []byte) (freq [256]uint32, consumed int, err error) {
	nonzero, n, err := bitio.GetUint7(buf)
	if err != nil {
		return freq, 0, err
	}
	pos := n
	last := -1
	for i := uint64(0); i < nonzero; i++ {
		gap, n, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return freq, 0, err
		}
		pos += n
		f, n, err := bitio.GetUint7(buf[pos:])
		if err != nil {
			return freq, 0, err
		}
		pos += n
		sym := last + 1 + int(gap)
		if sym < 0 || sym > 255 {
			return freq, 0, errors.Wrap(ErrMalformedFrequencies, "symbol out of range")
		}
		freq[sym] = uint32(f)
		last = sym
	}
	return freq, pos, nil
}

func encodeFreq1(freq [256][256]uint32) []byte {
	var rows []int
	for ctx := 0; ctx < 256; ctx++ {
		nonEmpty := false
		for _, f := range freq[ctx] {
			if f != 0 {
				nonEmpty = true
				break
			}
		}
		if nonEmpty {
			rows = append(rows, ctx)
		}
	}
	out := bitio.PutUint7(nil, uint64(len(rows)))
	for _, ctx := range rows {
		out = append(out, byte(ctx))
		out = append(out, encodeFreq0(freq[ctx])...)
	}
	return out
}

func decodeFreq1(buf []byte) (freq [256][256]uint32, consumed int, err error) {
	numRows, n, err := bitio.GetUint7(buf)
	if err != nil {
		return freq, 0, err
	}
	pos := n
	for i := uint64(0); i < numRows; i++ {
		if pos >= len(buf) {
			return freq, 0, bitio.ErrUnexpectedEOF
		}
		ctx := int(buf[pos])
		pos++
		row, n, err := decodeFreq0(buf[pos:])
		if err != nil {
			return freq, 0, err
		}
		pos += n
		freq[ctx] = row
	}
	return freq, pos, nil
}

func normalizeOrder1(counts [256][256]uint32) [256][256]uint32 {
	var out [256][256]uint32
	for ctx, row := range counts {
		var sum uint32
		for _, c := range row {
			sum += c
		}
		if sum == 0 {
			continue
		}
		out[ctx] = normalizeFrequencies(row)
	}
	return out
}

func newOrder1Tables(freq [256][256]uint32) (tables [256]*freqTable, err error) {
	for ctx, row := range freq {
		var sum uint32
		for _, f := range row {
			sum += f
		}
		if sum == 0 {
			continue
		}
		t, err := newFreqTable(row)
		if err != nil {
			return tables, errors.Wrapf(err, "context %d", ctx)
		}
		tables[ctx] = t
	}
	return tables, nil
}
