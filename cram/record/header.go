// Package record implements the CRAM record reader/writer (spec.md §4.H):
// it drives the data-series codecs in package series, over one slice's
// core bitstream and external-block map, to (de)serialize individual
// alignment records in the spec-mandated field order.
package record

import (
	"github.com/grailbio/seqcore/cram/series"
	"github.com/pkg/errors"
)

// SeriesKey names one CRAM data series (spec.md §3, §4.H).
type SeriesKey string

const (
	BF SeriesKey = "BF" // bit flags
	CF SeriesKey = "CF" // compression flags
	RI SeriesKey = "RI" // reference ID (multi-ref slices only)
	RL SeriesKey = "RL" // read length
	AP SeriesKey = "AP" // alignment position (absolute or delta)
	RG SeriesKey = "RG" // read group
	RN SeriesKey = "RN" // read name (byte array)
	MF SeriesKey = "MF" // mate bit flags
	NS SeriesKey = "NS" // next fragment reference ID
	NP SeriesKey = "NP" // next fragment alignment start
	TS SeriesKey = "TS" // template size
	TL SeriesKey = "TL" // tag line (selects a TagSpec set)
	FN SeriesKey = "FN" // number of read features
	FC SeriesKey = "FC" // feature operator code
	FP SeriesKey = "FP" // feature position delta
	BA SeriesKey = "BA" // single base
	QS SeriesKey = "QS" // single quality score
	BS SeriesKey = "BS" // base substitution code
	IN SeriesKey = "IN" // inserted bases (byte array)
	SC SeriesKey = "SC" // soft-clipped bases (byte array)
	HC SeriesKey = "HC" // hard clip length
	PD SeriesKey = "PD" // padding length
	DL SeriesKey = "DL" // deletion length
	RS SeriesKey = "RS" // reference skip length
	BB SeriesKey = "BB" // base run (byte array)
	QQ SeriesKey = "QQ" // quality run (byte array)
	MQ SeriesKey = "MQ" // mapping quality
)

// elementTypes records each series' declared element type (spec.md §3), so
// CompressionHeader knows whether to build a scalar Codec or a
// ByteArrayCodec for it.
var elementTypes = map[SeriesKey]series.ElementType{
	BF: series.Int, CF: series.Int, RI: series.Int, RL: series.Int,
	AP: series.Int, RG: series.Int, RN: series.ByteArray,
	MF: series.Int, NS: series.Int, NP: series.Int, TS: series.Int,
	TL: series.Int, FN: series.Int, FC: series.Byte, FP: series.Int,
	BA: series.Byte, QS: series.Byte, BS: series.Byte,
	IN: series.ByteArray, SC: series.ByteArray, HC: series.Int,
	PD: series.Int, DL: series.Int, RS: series.Int,
	BB: series.ByteArray, QQ: series.ByteArray, MQ: series.Int,
}

// TagSpec describes one optional-tag field within a TL-selected tag set: a
// two-byte tag name, a one-byte BAM/SAM type code, and the encoding
// descriptor used to (de)serialize its value.
type TagSpec struct {
	Tag  [2]byte
	Type byte
	Enc  *series.Descriptor
}

// CompressionHeader holds the per-slice configuration the record reader
// and writer consult: which encoding descriptor (if any) is declared for
// each data series, the TL-indexed tag sets, and the three structural
// flags that change which fields a record carries (spec.md §4.H).
type CompressionHeader struct {
	MultiRef          bool // records carry an RI (reference ID) field
	APDelta           bool // AP stores a delta from the previous record's AP
	PreserveReadNames bool // records carry an RN (read name) field

	Descriptors map[SeriesKey]*series.Descriptor
	TagSets     map[int32][]TagSpec

	codecs    map[SeriesKey]series.Codec
	baCodecs  map[SeriesKey]series.ByteArrayCodec
	tagCodecs map[int32][]series.ByteArrayCodec
}

// NewCompressionHeader returns an empty header; callers populate
// Descriptors, TagSets, and the three flags before use.
func NewCompressionHeader() *CompressionHeader {
	return &CompressionHeader{
		Descriptors: make(map[SeriesKey]*series.Descriptor),
		TagSets:     make(map[int32][]TagSpec),
		codecs:      make(map[SeriesKey]series.Codec),
		baCodecs:    make(map[SeriesKey]series.ByteArrayCodec),
		tagCodecs:   make(map[int32][]series.ByteArrayCodec),
	}
}

// codec returns (building and caching on first use) the scalar Codec for
// key. Absent descriptors are not an error by themselves (spec.md §4.H,
// "Absent encoding descriptors for unused series is not an error"); only
// attempting to actually read/write through one is.
func (h *CompressionHeader) codec(key SeriesKey) (series.Codec, error) {
	if c, ok := h.codecs[key]; ok {
		return c, nil
	}
	d, ok := h.Descriptors[key]
	if !ok {
		return nil, errors.Wrapf(series.ErrMalformedRecord, "series %s has no encoding descriptor", key)
	}
	c, err := d.BuildCodec(elementTypes[key])
	if err != nil {
		return nil, errors.Wrapf(err, "series %s", key)
	}
	h.codecs[key] = c
	return c, nil
}

func (h *CompressionHeader) byteArrayCodec(key SeriesKey) (series.ByteArrayCodec, error) {
	if c, ok := h.baCodecs[key]; ok {
		return c, nil
	}
	d, ok := h.Descriptors[key]
	if !ok {
		return nil, errors.Wrapf(series.ErrMalformedRecord, "series %s has no encoding descriptor", key)
	}
	c, err := d.BuildByteArrayCodec()
	if err != nil {
		return nil, errors.Wrapf(err, "series %s", key)
	}
	h.baCodecs[key] = c
	return c, nil
}

func (h *CompressionHeader) tagSetCodecs(tl int32) ([]TagSpec, []series.ByteArrayCodec, error) {
	specs, ok := h.TagSets[tl]
	if !ok {
		return nil, nil, errors.Wrapf(series.ErrMalformedRecord, "no tag set registered for TL %d", tl)
	}
	if codecs, ok := h.tagCodecs[tl]; ok {
		return specs, codecs, nil
	}
	codecs := make([]series.ByteArrayCodec, len(specs))
	for i, spec := range specs {
		c, err := spec.Enc.BuildByteArrayCodec()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "tag %s", string(spec.Tag[:]))
		}
		codecs[i] = c
	}
	h.tagCodecs[tl] = codecs
	return specs, codecs, nil
}
