package rans4x8

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/pkg/errors"
)

// TotFreq is the fixed total-frequency shift used by both 4x8 and Nx16:
// all per-context frequency tables sum to exactly 1<<TotFreqBits.
const (
	TotFreqBits = 12
	TotFreq     = 1 << TotFreqBits
	RansL       = 1 << 23 // renormalization lower bound
)

// ErrMalformedFrequencies is returned when a decoded frequency table does
// not sum to exactly TotFreq for some context (spec.md §4.C).
var ErrMalformedFrequencies = errors.New("rans4x8: malformed frequency table")

// freqTable holds a single context's 256-entry frequency table plus the
// derived cumulative-frequency table used by decode to locate a symbol
// from its scaled cumulative frequency.
type freqTable struct {
	freq    [256]uint32
	cumFreq [256]uint32 // cumFreq[s] = sum(freq[0:s])
	// cumToSym maps a scaled cumulative frequency value in [0,TotFreq) to
	// the symbol whose [cumFreq,cumFreq+freq) interval contains it.
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
		log.Error.Printf("rans4x8: frequency table sums to %d, want %d", sum, TotFreq)
		return nil, ErrMalformedFrequencies
	}
	for s := 0; s < 256; s++ {
		for i := uint32(0); i < freq[s]; i++ {
			t.cumToSym[t.cumFreq[s]+i] = byte(s)
		}
	}
	return t, nil
}

// NormalizeFrequencies scales raw symbol counts to sum exactly to TotFreq,
// giving every symbol that appears at least once a frequency of at least
// 1. This is a convenience supplement (SPEC_FULL.md) for building a valid
// order-0 table from raw counts; it is grounded on the normalize-and-fix
// up-the-largest-bucket approach in pkg/ans's BuildTable.
func NormalizeFrequencies(counts [256]uint32) [256]uint32 {
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

// encodeFreq0 serializes a 256-entry order-0 frequency table as a run of
// (gap, freq) pairs for nonzero symbols: a uint7 count of nonzero
// symbols, then for each (in ascending symbol order) a uint7 gap since
// the previous nonzero symbol and a uint7 frequency.
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

// encodeFreq1 serializes the 256x256 order-1 table as a uint7 row count
// followed by, for each nonzero row, the context byte and that row's
// encodeFreq0 encoding.
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
