// Package rans4x8 implements the fixed 4-way interleaved byte-rANS codec
// (spec.md §4.C): order-0 and order-1 adaptive-free (static, per-block)
// models, TOTFREQ=4096, 4 parallel lanes sharing one renormalization
// byte stream.
//
// Wire format: order:u8 | compressed_len:u32le | raw_len:u32le |
// frequencies | coded_body. Grounded on the single-state design of
// pkg/ans (ha1tch-unz, other_examples) generalized to 4 interleaved
// lanes per spec.md, and on the ANSRangeCodec order-1 context table
// shape (flanglet-kanzi-go, other_examples).
package rans4x8

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Order selects the context width for the frequency model.
type Order byte

const (
	Order0 Order = 0
	Order1 Order = 1
)

const numLanes = 4

// Encode compresses data using 4x8 rANS at the given order.
func Encode(data []byte, order Order) ([]byte, error) {
	lanes := splitLanes(data)

	var body []byte
	var freqHeader []byte
	var states [numLanes]uint32

	switch order {
	case Order0:
		var counts [256]uint32
		for _, b := range data {
			counts[b]++
		}
		freq := NormalizeFrequencies(counts)
		table, err := newFreqTable(freq)
		if err != nil {
			return nil, err
		}
		freqHeader = encodeFreq0(freq)
		body, states = encodeLanesOrder0(lanes, table)
	case Order1:
		var counts [256][256]uint32
		ctxFn := laneContextFunc(lanes)
		for lane, ld := range lanes {
			for i, b := range ld {
				counts[ctxFn(lane, i)][b]++
			}
		}
		freq := normalizeOrder1(counts)
		tables, err := newOrder1Tables(freq)
		if err != nil {
			return nil, err
		}
		freqHeader = encodeFreq1(freq)
		body, states = encodeLanesOrder1(lanes, tables, ctxFn)
	default:
		return nil, errors.Errorf("rans4x8: unknown order %d", order)
	}

	out := make([]byte, 0, 9+len(freqHeader)+len(body)+16)
	out = append(out, byte(order))
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(freqHeader)+len(body)+16))
	out = append(out, lenBuf[:]...)
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out = append(out, lenBuf[:]...)
	out = append(out, freqHeader...)
	out = append(out, body...)
	for lane := numLanes - 1; lane >= 0; lane-- {
		binary.LittleEndian.PutUint32(lenBuf[:], states[lane])
		out = append(out, lenBuf[:]...)
	}
	return out, nil
}

// Decode reverses Encode.
func Decode(buf []byte) ([]byte, error) {
	if len(buf) < 9 {
		return nil, errors.New("rans4x8: truncated header")
	}
	order := Order(buf[0])
	compressedLen := binary.LittleEndian.Uint32(buf[1:5])
	rawLen := binary.LittleEndian.Uint32(buf[5:9])
	if len(buf) < 9+int(compressedLen) {
		return nil, errors.New("rans4x8: truncated body")
	}
	rest := buf[9 : 9+compressedLen]
	if len(rest) < 16 {
		return nil, errors.New("rans4x8: truncated footer")
	}
	body := rest[:len(rest)-16]
	footer := rest[len(rest)-16:]
	var states [numLanes]uint32
	for lane := numLanes - 1; lane >= 0; lane-- {
		off := (numLanes - 1 - lane) * 4
		states[lane] = binary.LittleEndian.Uint32(footer[off : off+4])
	}

	laneLens := laneLengths(int(rawLen))

	switch order {
	case Order0:
		freq, n, err := decodeFreq0(body)
		if err != nil {
			return nil, err
		}
		table, err := newFreqTable(freq)
		if err != nil {
			return nil, err
		}
		return decodeLanesOrder0(body[n:], states, laneLens, table), nil
	case Order1:
		freq, n, err := decodeFreq1(body)
		if err != nil {
			return nil, err
		}
		tables, err := newOrder1Tables(freq)
		if err != nil {
			return nil, err
		}
		return decodeLanesOrder1(body[n:], states, laneLens, tables), nil
	default:
		return nil, errors.Errorf("rans4x8: unknown order %d", order)
	}
}

func laneLengths(total int) [numLanes]int {
	chunk := total / numLanes
	var lens [numLanes]int
	for i := 0; i < numLanes-1; i++ {
		lens[i] = chunk
	}
	lens[numLanes-1] = total - chunk*(numLanes-1)
	return lens
}

func splitLanes(data []byte) [numLanes][]byte {
	lens := laneLengths(len(data))
	var lanes [numLanes][]byte
	off := 0
	for i := 0; i < numLanes; i++ {
		lanes[i] = data[off : off+lens[i]]
		off += lens[i]
	}
	return lanes
}

// laneContextFunc returns the order-1 context (previous symbol) for
// position i within lane. Each lane's context resets to 0 at its own
// first element rather than carrying over from the preceding lane; this
// is a deliberate simplification of the interleaved model (see
// DESIGN.md) that keeps encode and decode context derivation
// trivially symmetric.
func laneContextFunc(lanes [numLanes][]byte) func(lane, i int) byte {
	return func(lane, i int) byte {
		if i == 0 {
			return 0
		}
		return lanes[lane][i-1]
	}
}
