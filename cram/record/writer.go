package record

import (
	"github.com/grailbio/seqcore/cram/series"
	"github.com/pkg/errors"
)

// WriteRecord serializes r onto es, mirroring ReadRecord's field order.
// prevAP is the previous record's AlignmentStart; pass 0 for the first
// record in a slice.
func WriteRecord(h *CompressionHeader, es *series.EncodeStreams, r *Record, prevAP int32) error {
	if err := writeInt(h, BF, es, r.BitFlags); err != nil {
		return errors.Wrap(err, "BF")
	}
	if err := writeInt(h, CF, es, r.CompressionFlags); err != nil {
		return errors.Wrap(err, "CF")
	}
	if h.MultiRef {
		if err := writeInt(h, RI, es, r.RefID); err != nil {
			return errors.Wrap(err, "RI")
		}
	}
	if err := writeInt(h, RL, es, r.ReadLength); err != nil {
		return errors.Wrap(err, "RL")
	}

	apVal := r.AlignmentStart
	if h.APDelta {
		apVal = r.AlignmentStart - prevAP
	}
	if err := writeInt(h, AP, es, apVal); err != nil {
		return errors.Wrap(err, "AP")
	}

	if err := writeInt(h, RG, es, r.ReadGroup); err != nil {
		return errors.Wrap(err, "RG")
	}

	if h.PreserveReadNames {
		c, err := h.byteArrayCodec(RN)
		if err != nil {
			return errors.Wrap(err, "RN")
		}
		if err := c.WriteBytes(es, r.ReadName); err != nil {
			return errors.Wrap(err, "RN")
		}
	}

	hasMate := r.CompressionFlags&CFDetached != 0 || r.CompressionFlags&CFHasMateDownstream != 0
	if hasMate {
		if err := writeInt(h, MF, es, r.MateFlags); err != nil {
			return errors.Wrap(err, "MF")
		}
		if err := writeInt(h, NS, es, r.MateRefID); err != nil {
			return errors.Wrap(err, "NS")
		}
		if err := writeInt(h, NP, es, r.MateAlignmentStart); err != nil {
			return errors.Wrap(err, "NP")
		}
		if err := writeInt(h, TS, es, r.TemplateSize); err != nil {
			return errors.Wrap(err, "TS")
		}
	}

	if err := writeInt(h, TL, es, r.TagLine); err != nil {
		return errors.Wrap(err, "TL")
	}
	_, codecs, err := h.tagSetCodecs(r.TagLine)
	if err != nil {
		return err
	}
	if len(codecs) != len(r.Tags) {
		return errors.Wrapf(series.ErrMalformedRecord, "TL %d expects %d tags, record carries %d", r.TagLine, len(codecs), len(r.Tags))
	}
	for i, tag := range r.Tags {
		if err := codecs[i].WriteBytes(es, tag.Raw); err != nil {
			return errors.Wrapf(err, "tag %s", string(tag.Tag[:]))
		}
	}

	if r.mapped() {
		if err := writeFeatures(h, es, r); err != nil {
			return err
		}
		if err := writeInt(h, MQ, es, r.MappingQuality); err != nil {
			return errors.Wrap(err, "MQ")
		}
		return writeQualities(h, es, r.Qualities)
	}

	if r.CompressionFlags&cfUnknownBases == 0 {
		c, err := h.codec(BA)
		if err != nil {
			return errors.Wrap(err, "BA")
		}
		for _, b := range r.Bases {
			if err := c.WriteValue(es, int64(b)); err != nil {
				return errors.Wrap(err, "BA")
			}
		}
	}
	return writeQualities(h, es, r.Qualities)
}

func writeQualities(h *CompressionHeader, es *series.EncodeStreams, q []byte) error {
	if _, ok := h.Descriptors[QS]; !ok {
		return nil
	}
	if c, err := h.byteArrayCodec(QS); err == nil {
		return c.WriteBytes(es, q)
	}
	c, err := h.codec(QS)
	if err != nil {
		return errors.Wrap(err, "QS")
	}
	for _, b := range q {
		if err := c.WriteValue(es, int64(b)); err != nil {
			return errors.Wrap(err, "QS")
		}
	}
	return nil
}

func writeFeatures(h *CompressionHeader, es *series.EncodeStreams, r *Record) error {
	if err := writeInt(h, FN, es, int32(len(r.Features))); err != nil {
		return errors.Wrap(err, "FN")
	}
	var prevPos int32
	for i, f := range r.Features {
		if err := writeInt(h, FC, es, int32(f.Op)); err != nil {
			return errors.Wrap(err, "FC")
		}
		if err := writeInt(h, FP, es, f.Pos-prevPos); err != nil {
			return errors.Wrap(err, "FP")
		}
		prevPos = f.Pos
		if err := writeFeatureBody(h, es, f); err != nil {
			return errors.Wrapf(err, "feature %d (op %q)", i, rune(f.Op))
		}
	}
	return nil
}

func writeFeatureBody(h *CompressionHeader, es *series.EncodeStreams, f Feature) error {
	switch f.Op {
	case OpReadBase:
		if err := writeInt(h, BA, es, int32(f.Base)); err != nil {
			return err
		}
		return writeInt(h, QS, es, int32(f.Quality))
	case OpSubstitution:
		return writeInt(h, BS, es, int32(f.SubCode))
	case OpInsertion:
		return writeByteArrayFeature(h, IN, es, f)
	case OpDeletion:
		return writeInt(h, DL, es, f.Length)
	case OpInsertBase:
		return writeInt(h, BA, es, int32(f.Base))
	case OpRefSkip:
		return writeInt(h, RS, es, f.Length)
	case OpSoftClip:
		return writeByteArrayFeature(h, SC, es, f)
	case OpPadding:
		return writeInt(h, PD, es, f.Length)
	case OpHardClip:
		return writeInt(h, HC, es, f.Length)
	case OpQualityScore:
		return writeInt(h, QS, es, int32(f.Quality))
	case OpBases:
		return writeByteArrayFeature(h, BB, es, f)
	case OpScores:
		return writeByteArrayFeature(h, QQ, es, f)
	default:
		return errors.Wrapf(series.ErrMalformedRecord, "unknown feature operator %q", rune(f.Op))
	}
}

func writeByteArrayFeature(h *CompressionHeader, key SeriesKey, es *series.EncodeStreams, f Feature) error {
	c, err := h.byteArrayCodec(key)
	if err != nil {
		return err
	}
	return c.WriteBytes(es, f.Bytes)
}

func writeInt(h *CompressionHeader, key SeriesKey, es *series.EncodeStreams, v int32) error {
	c, err := h.codec(key)
	if err != nil {
		return err
	}
	return c.WriteValue(es, int64(v))
}
