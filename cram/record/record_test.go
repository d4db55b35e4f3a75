package record_test

import (
	"testing"

	"github.com/grailbio/seqcore/cram/record"
	"github.com/grailbio/seqcore/cram/series"
	"github.com/grailbio/seqcore/internal/bitio"
	"github.com/stretchr/testify/require"
)

func ext(id int32) *series.Descriptor {
	return &series.Descriptor{Kind: series.KindExternal, ContentID: id}
}

func stop(id int32) *series.Descriptor {
	return &series.Descriptor{Kind: series.KindByteArrayStop, StopByte: 0, ContentID: id}
}

func byteArrayLen(lenContentID, bytesContentID int32) *series.Descriptor {
	return &series.Descriptor{
		Kind:     series.KindByteArrayLen,
		LenEnc:   ext(lenContentID),
		BytesEnc: ext(bytesContentID),
	}
}

func testHeader(preserveReadNames bool) *record.CompressionHeader {
	h := record.NewCompressionHeader()
	h.PreserveReadNames = preserveReadNames
	ints := []record.SeriesKey{
		record.BF, record.CF, record.RL, record.AP, record.RG,
		record.MF, record.NS, record.NP, record.TS, record.TL,
		record.FN, record.FP, record.HC, record.PD, record.DL, record.RS, record.MQ,
	}
	for _, k := range ints {
		h.Descriptors[k] = ext(1)
	}
	h.Descriptors[record.FC] = ext(1)
	h.Descriptors[record.BA] = ext(3)
	h.Descriptors[record.QS] = ext(5)
	h.Descriptors[record.BS] = ext(3)
	h.Descriptors[record.IN] = byteArrayLen(1, 4)
	h.Descriptors[record.SC] = byteArrayLen(1, 4)
	h.Descriptors[record.BB] = byteArrayLen(1, 4)
	h.Descriptors[record.QQ] = byteArrayLen(1, 4)
	if preserveReadNames {
		h.Descriptors[record.RN] = stop(2)
	}
	h.TagSets[0] = nil
	return h
}

func TestRecordRoundTripMapped(t *testing.T) {
	h := testHeader(true)
	rec := &record.Record{
		BitFlags:         0,
		CompressionFlags: record.CFDetached,
		ReadLength:       10,
		AlignmentStart:   1000,
		ReadGroup:        0,
		ReadName:         []byte("read-1"),

		MateFlags:          0,
		MateRefID:          0,
		MateAlignmentStart: 1050,
		TemplateSize:       200,

		TagLine: 0,
		Tags:    nil,

		Features: []record.Feature{
			{Op: record.OpSubstitution, Pos: 3, SubCode: 2},
			{Op: record.OpDeletion, Pos: 7, Length: 4},
		},
		MappingQuality: 60,
		Qualities:      []byte{30, 31, 32, 33, 34, 35, 36, 37, 38, 39},
	}

	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.NoError(t, record.WriteRecord(h, es, rec, 0))

	h2 := testHeader(true)
	ds := series.NewDecodeStreams(bitio.NewReader(es.Core.Flush()), es.External)
	got, err := record.ReadRecord(h2, ds, 0)
	require.NoError(t, err)

	require.Equal(t, rec.BitFlags, got.BitFlags)
	require.Equal(t, rec.CompressionFlags, got.CompressionFlags)
	require.Equal(t, rec.ReadLength, got.ReadLength)
	require.Equal(t, rec.AlignmentStart, got.AlignmentStart)
	require.Equal(t, rec.ReadName, got.ReadName)
	require.Equal(t, rec.MateAlignmentStart, got.MateAlignmentStart)
	require.Equal(t, rec.TemplateSize, got.TemplateSize)
	require.Equal(t, rec.Features, got.Features)
	require.Equal(t, rec.MappingQuality, got.MappingQuality)
	require.Equal(t, rec.Qualities, got.Qualities)
}

func TestRecordRoundTripUnmappedWithAPDelta(t *testing.T) {
	h := testHeader(false)
	h.APDelta = true
	rec := &record.Record{
		BitFlags:         record.BFUnmapped,
		CompressionFlags: 0,
		ReadLength:       4,
		AlignmentStart:   500,
		Bases:            []byte("ACGT"),
		Qualities:        []byte{10, 11, 12, 13},
	}

	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	require.NoError(t, record.WriteRecord(h, es, rec, 490))

	h2 := testHeader(false)
	h2.APDelta = true
	ds := series.NewDecodeStreams(bitio.NewReader(es.Core.Flush()), es.External)
	got, err := record.ReadRecord(h2, ds, 490)
	require.NoError(t, err)

	require.Equal(t, rec.AlignmentStart, got.AlignmentStart)
	require.Equal(t, rec.Bases, got.Bases)
	require.Equal(t, rec.Qualities, got.Qualities)
}

func TestRecordUnknownFeatureOperatorFails(t *testing.T) {
	h := testHeader(false)
	rec := &record.Record{
		BitFlags:   0,
		ReadLength: 1,
		Features:   []record.Feature{{Op: 'Z'}},
	}
	es := series.NewEncodeStreams(bitio.NewWriter(nil))
	err := record.WriteRecord(h, es, rec, 0)
	require.Error(t, err)
}
