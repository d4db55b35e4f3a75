package record

import (
	"github.com/grailbio/seqcore/cram/series"
	"github.com/pkg/errors"
)

// BF bit flags this package inspects directly (the remaining bits are
// opaque payload carried through unchanged, as CRAM reuses SAM's flag
// bit layout for BF).
const (
	BFUnmapped = 1 << 2 // SAM 0x4: read is unmapped
)

// CF (compression flag) bits (spec.md §4.H names the mate block as
// conditional on "CF's detached flag or has-mate-downstream flag").
const (
	CFDetached          = 1 << 0 // mate fields are stored in this record
	CFHasMateDownstream = 1 << 1 // mate record follows later in this slice
)

// FeatureOp is a read-feature operator code. Values follow CRAM's
// published feature-code table (ASCII letters chosen by the format).
type FeatureOp byte

const (
	OpReadBase     FeatureOp = 'B' // base + quality pair
	OpSubstitution FeatureOp = 'X' // substitution code (BS)
	OpInsertion    FeatureOp = 'I' // inserted bases (IN)
	OpDeletion     FeatureOp = 'D' // deletion length (DL)
	OpInsertBase   FeatureOp = 'i' // single inserted base (BA)
	OpRefSkip      FeatureOp = 'N' // reference skip length (RS)
	OpSoftClip     FeatureOp = 'S' // soft-clipped bases (SC)
	OpPadding      FeatureOp = 'P' // padding length (PD)
	OpHardClip     FeatureOp = 'H' // hard clip length (HC)
	OpQualityScore FeatureOp = 'Q' // quality override (QS)
	OpBases        FeatureOp = 'b' // base run (BB)
	OpScores       FeatureOp = 'q' // quality run (QQ)
)

// Feature is one entry in a mapped record's read-features stream. Only
// the fields relevant to Op are populated.
type Feature struct {
	Op      FeatureOp
	Pos     int32 // read position, reconstructed from the FP delta
	Base    byte
	Quality byte
	SubCode byte
	Bytes   []byte // IN, SC, BB
	Length  int32  // DL, RS, PD, HC
}

// TagValue is one optional-tag field attached to a record, identified by
// the TL-selected TagSpec it was read with.
type TagValue struct {
	Tag  [2]byte
	Type byte
	Raw  []byte
}

// Record is one CRAM alignment record's decoded field set.
type Record struct {
	BitFlags         int32
	CompressionFlags int32
	RefID            int32 // valid only if the header is MultiRef
	ReadLength       int32
	AlignmentStart   int32
	ReadGroup        int32
	ReadName         []byte // valid only if the header is PreserveReadNames

	MateFlags          int32
	MateRefID          int32
	MateAlignmentStart int32
	TemplateSize       int32

	TagLine int32
	Tags    []TagValue

	Features []Feature

	MappingQuality int32
	Bases          []byte // unmapped path only
	Qualities      []byte

	hasMate bool
}

func (r *Record) mapped() bool { return r.BitFlags&BFUnmapped == 0 }

// ReadRecord consumes one record from ds, following the field order
// spec.md §4.H mandates. prevAP is the previous record's AlignmentStart,
// consulted only when h.APDelta is set; pass 0 for the first record in a
// slice.
func ReadRecord(h *CompressionHeader, ds *series.DecodeStreams, prevAP int32) (*Record, error) {
	r := &Record{}

	v, err := readInt(h, BF, ds)
	if err != nil {
		return nil, errors.Wrap(err, "BF")
	}
	r.BitFlags = v

	v, err = readInt(h, CF, ds)
	if err != nil {
		return nil, errors.Wrap(err, "CF")
	}
	r.CompressionFlags = v

	if h.MultiRef {
		if r.RefID, err = readInt(h, RI, ds); err != nil {
			return nil, errors.Wrap(err, "RI")
		}
	}

	if r.ReadLength, err = readInt(h, RL, ds); err != nil {
		return nil, errors.Wrap(err, "RL")
	}

	apVal, err := readInt(h, AP, ds)
	if err != nil {
		return nil, errors.Wrap(err, "AP")
	}
	if h.APDelta {
		r.AlignmentStart = prevAP + apVal
	} else {
		r.AlignmentStart = apVal
	}

	if r.ReadGroup, err = readInt(h, RG, ds); err != nil {
		return nil, errors.Wrap(err, "RG")
	}

	if h.PreserveReadNames {
		c, err := h.byteArrayCodec(RN)
		if err != nil {
			return nil, errors.Wrap(err, "RN")
		}
		if r.ReadName, err = c.ReadBytes(ds, -1); err != nil {
			return nil, errors.Wrap(err, "RN")
		}
	}

	r.hasMate = r.CompressionFlags&CFDetached != 0 || r.CompressionFlags&CFHasMateDownstream != 0
	if r.hasMate {
		if r.MateFlags, err = readInt(h, MF, ds); err != nil {
			return nil, errors.Wrap(err, "MF")
		}
		if r.MateRefID, err = readInt(h, NS, ds); err != nil {
			return nil, errors.Wrap(err, "NS")
		}
		if r.MateAlignmentStart, err = readInt(h, NP, ds); err != nil {
			return nil, errors.Wrap(err, "NP")
		}
		if r.TemplateSize, err = readInt(h, TS, ds); err != nil {
			return nil, errors.Wrap(err, "TS")
		}
	}

	if r.TagLine, err = readInt(h, TL, ds); err != nil {
		return nil, errors.Wrap(err, "TL")
	}
	specs, codecs, err := h.tagSetCodecs(r.TagLine)
	if err != nil {
		return nil, err
	}
	r.Tags = make([]TagValue, len(specs))
	for i, spec := range specs {
		raw, err := codecs[i].ReadBytes(ds, -1)
		if err != nil {
			return nil, errors.Wrapf(err, "tag %s", string(spec.Tag[:]))
		}
		r.Tags[i] = TagValue{Tag: spec.Tag, Type: spec.Type, Raw: raw}
	}

	if r.mapped() {
		if err := readFeatures(h, ds, r); err != nil {
			return nil, err
		}
		if r.MappingQuality, err = readInt(h, MQ, ds); err != nil {
			return nil, errors.Wrap(err, "MQ")
		}
		if r.Qualities, err = readQualities(h, ds, int(r.ReadLength)); err != nil {
			return nil, err
		}
		return r, nil
	}

	if r.CompressionFlags&cfUnknownBases == 0 {
		baCodec, err := h.codec(BA)
		if err != nil {
			return nil, errors.Wrap(err, "BA")
		}
		r.Bases = make([]byte, r.ReadLength)
		for i := range r.Bases {
			b, err := baCodec.ReadValue(ds)
			if err != nil {
				return nil, errors.Wrap(err, "BA")
			}
			r.Bases[i] = byte(b)
		}
	}
	if r.Qualities, err = readQualities(h, ds, int(r.ReadLength)); err != nil {
		return nil, err
	}
	return r, nil
}

// cfUnknownBases marks a record whose bases were not stored (all-N or
// otherwise elided); spec.md §4.H: "reads RL bases one-by-one unless CF
// marks unknown bases".
const cfUnknownBases = 1 << 2

func readQualities(h *CompressionHeader, ds *series.DecodeStreams, n int) ([]byte, error) {
	if _, ok := h.Descriptors[QS]; !ok {
		return nil, nil
	}
	// QS may be declared as a scalar (core-bitstream Huffman, one call
	// per base) or as a byte-array (a single external-stream read); try
	// the byte-array form first since it is the common case for whole
	// quality strings (spec.md §4.H: "QS is optionally a second
	// BYTE_ARRAY reader over the same external stream").
	if c, err := h.byteArrayCodec(QS); err == nil {
		return c.ReadBytes(ds, n)
	}
	c, err := h.codec(QS)
	if err != nil {
		return nil, errors.Wrap(err, "QS")
	}
	out := make([]byte, n)
	for i := range out {
		v, err := c.ReadValue(ds)
		if err != nil {
			return nil, errors.Wrap(err, "QS")
		}
		out[i] = byte(v)
	}
	return out, nil
}

func readFeatures(h *CompressionHeader, ds *series.DecodeStreams, r *Record) error {
	fn, err := readInt(h, FN, ds)
	if err != nil {
		return errors.Wrap(err, "FN")
	}
	r.Features = make([]Feature, fn)
	var pos int32
	for i := range r.Features {
		fc, err := readInt(h, FC, ds)
		if err != nil {
			return errors.Wrap(err, "FC")
		}
		fp, err := readInt(h, FP, ds)
		if err != nil {
			return errors.Wrap(err, "FP")
		}
		pos += fp
		f := Feature{Op: FeatureOp(fc), Pos: pos}
		if err := readFeatureBody(h, ds, &f); err != nil {
			return errors.Wrapf(err, "feature %d (op %q)", i, rune(fc))
		}
		r.Features[i] = f
	}
	return nil
}

func readFeatureBody(h *CompressionHeader, ds *series.DecodeStreams, f *Feature) error {
	switch f.Op {
	case OpReadBase:
		base, err := readInt(h, BA, ds)
		if err != nil {
			return err
		}
		qual, err := readInt(h, QS, ds)
		if err != nil {
			return err
		}
		f.Base, f.Quality = byte(base), byte(qual)
	case OpSubstitution:
		v, err := readInt(h, BS, ds)
		if err != nil {
			return err
		}
		f.SubCode = byte(v)
	case OpInsertion:
		return readByteArrayFeature(h, IN, ds, f)
	case OpDeletion:
		return readLengthFeature(h, DL, ds, f)
	case OpInsertBase:
		v, err := readInt(h, BA, ds)
		if err != nil {
			return err
		}
		f.Base = byte(v)
	case OpRefSkip:
		return readLengthFeature(h, RS, ds, f)
	case OpSoftClip:
		return readByteArrayFeature(h, SC, ds, f)
	case OpPadding:
		return readLengthFeature(h, PD, ds, f)
	case OpHardClip:
		return readLengthFeature(h, HC, ds, f)
	case OpQualityScore:
		v, err := readInt(h, QS, ds)
		if err != nil {
			return err
		}
		f.Quality = byte(v)
	case OpBases:
		return readByteArrayFeature(h, BB, ds, f)
	case OpScores:
		return readByteArrayFeature(h, QQ, ds, f)
	default:
		return errors.Wrapf(series.ErrMalformedRecord, "unknown feature operator %q", rune(f.Op))
	}
	return nil
}

func readLengthFeature(h *CompressionHeader, key SeriesKey, ds *series.DecodeStreams, f *Feature) error {
	v, err := readInt(h, key, ds)
	if err != nil {
		return err
	}
	f.Length = v
	return nil
}

func readByteArrayFeature(h *CompressionHeader, key SeriesKey, ds *series.DecodeStreams, f *Feature) error {
	c, err := h.byteArrayCodec(key)
	if err != nil {
		return err
	}
	b, err := c.ReadBytes(ds, -1)
	if err != nil {
		return err
	}
	f.Bytes = b
	return nil
}

func readInt(h *CompressionHeader, key SeriesKey, ds *series.DecodeStreams) (int32, error) {
	c, err := h.codec(key)
	if err != nil {
		return 0, err
	}
	v, err := c.ReadValue(ds)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
