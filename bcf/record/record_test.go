package record_test

import (
	"bytes"
	"testing"

	"github.com/grailbio/seqcore/bcf/dict"
	"github.com/grailbio/seqcore/bcf/record"
	"github.com/grailbio/seqcore/bcf/types"
	"github.com/stretchr/testify/require"
)

func testDicts(t *testing.T) (*dict.Dictionary, *dict.Dictionary) {
	sdict, err := dict.BuildStringDictionary([]dict.HeaderLine{
		{Kind: dict.KindInfo, ID: "AC"},
		{Kind: dict.KindInfo, ID: "DB"},
		{Kind: dict.KindFormat, ID: "GT"},
	})
	require.NoError(t, err)
	cdict, err := dict.BuildContigDictionary([]dict.ContigLine{{ID: "chr1"}})
	require.NoError(t, err)
	return sdict, cdict
}

// TestScenarioS6 covers the literal record scenario: pos 999, REF="A",
// ALT="C,G", FILTER=PASS, INFO {AC=[1,2], DB=FLAG}, one sample GT=0/1.
func TestScenarioS6(t *testing.T) {
	sdict, cdict := testDicts(t)

	rec := &record.Record{
		ChromOffset: 0,
		Pos:         999,
		RefLen:      1,
		Alleles:     [][]byte{[]byte("A"), []byte("C"), []byte("G")},
		FilterIDX:   []int32{0},
		Info: []record.InfoField{
			{Key: "AC", Value: types.Value{Type: types.Int8, Ints: []int32{1, 2}}},
			{Key: "DB", Flag: true},
		},
		NumSamples: 1,
		Format: []record.GenotypeField{
			{Key: "GT", Value: types.Value{Type: types.Int8, Ints: []int32{0, 1}}},
		},
	}

	buf, err := record.Encode(nil, rec, sdict, cdict)
	require.NoError(t, err)

	got, n, err := record.Decode(buf, sdict, cdict)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	require.Equal(t, int32(1000), got.Start())
	require.Len(t, got.Alleles, 3)
	require.Equal(t, "A", string(got.Alleles[0]))
	require.Equal(t, "C", string(got.Alleles[1]))
	require.Equal(t, "G", string(got.Alleles[2]))

	names, unfiltered, err := got.Filters(sdict)
	require.NoError(t, err)
	require.False(t, unfiltered)
	require.Equal(t, []string{"PASS"}, names)

	var dbFlag, acFound bool
	for _, info := range got.Info {
		switch info.Key {
		case "DB":
			require.True(t, info.Flag)
			dbFlag = true
		case "AC":
			require.Equal(t, []int32{1, 2}, info.Value.Ints)
			acFound = true
		}
	}
	require.True(t, dbFlag)
	require.True(t, acFound)

	gts, err := got.Genotypes(sdict)
	require.NoError(t, err)
	require.Len(t, gts, 1)
	require.Equal(t, "GT", gts[0].Key)
	require.Equal(t, types.Int8, gts[0].Value.Type)
	require.Len(t, gts[0].Value.Ints, 2)
}

// TestProperty10FilterDecoding covers Testable Property 10's FILTER
// cases: [0] decodes to PASS, [] decodes to unfiltered.
func TestProperty10FilterDecoding(t *testing.T) {
	sdict, cdict := testDicts(t)

	pass := &record.Record{Alleles: [][]byte{[]byte("A")}, FilterIDX: []int32{0}}
	buf, err := record.Encode(nil, pass, sdict, cdict)
	require.NoError(t, err)
	got, _, err := record.Decode(buf, sdict, cdict)
	require.NoError(t, err)
	names, unfiltered, err := got.Filters(sdict)
	require.NoError(t, err)
	require.False(t, unfiltered)
	require.Equal(t, []string{"PASS"}, names)

	unf := &record.Record{Alleles: [][]byte{[]byte("A")}, FilterIDX: nil}
	buf, err = record.Encode(nil, unf, sdict, cdict)
	require.NoError(t, err)
	got, _, err = record.Decode(buf, sdict, cdict)
	require.NoError(t, err)
	_, unfiltered, err = got.Filters(sdict)
	require.NoError(t, err)
	require.True(t, unfiltered)
}

func TestQualMissingAndPresent(t *testing.T) {
	sdict, cdict := testDicts(t)

	rec := &record.Record{Alleles: [][]byte{[]byte("A")}}
	buf, err := record.Encode(nil, rec, sdict, cdict)
	require.NoError(t, err)
	got, _, err := record.Decode(buf, sdict, cdict)
	require.NoError(t, err)
	require.Nil(t, got.Qual)

	q := float32(30.5)
	rec2 := &record.Record{Alleles: [][]byte{[]byte("A")}, Qual: &q}
	buf2, err := record.Encode(nil, rec2, sdict, cdict)
	require.NoError(t, err)
	got2, _, err := record.Decode(buf2, sdict, cdict)
	require.NoError(t, err)
	require.NotNil(t, got2.Qual)
	require.Equal(t, q, *got2.Qual)
}

func TestEmptyIDWrittenAsDotDecodesToEmpty(t *testing.T) {
	sdict, cdict := testDicts(t)
	rec := &record.Record{Alleles: [][]byte{[]byte("A")}, ID: ""}
	buf, err := record.Encode(nil, rec, sdict, cdict)
	require.NoError(t, err)
	got, _, err := record.Decode(buf, sdict, cdict)
	require.NoError(t, err)
	require.Equal(t, "", got.ID)
}

func TestReorderSamples(t *testing.T) {
	sdict, cdict := testDicts(t)
	rec := &record.Record{
		Alleles:    [][]byte{[]byte("A")},
		NumSamples: 3,
		Format: []record.GenotypeField{
			{Key: "GT", Value: types.Value{Type: types.Int8, Ints: []int32{0, 0, 0, 1, 1, 1}}},
		},
	}
	buf, err := record.Encode(nil, rec, sdict, cdict)
	require.NoError(t, err)
	got, _, err := record.Decode(buf, sdict, cdict)
	require.NoError(t, err)

	require.NoError(t, got.ReorderSamples(sdict, []int{2, 0, 1}))
	require.Equal(t, []int32{1, 1, 0, 0, 0, 1}, got.Format[0].Value.Ints)
}

func TestFileHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	text := []byte("##fileformat=VCFv4.2\n#CHROM\tPOS\n\x00")
	require.NoError(t, record.WriteFileHeader(&buf, text))

	got, err := record.ReadFileHeader(&buf, record.DefaultVersionPolicy())
	require.NoError(t, err)
	require.Equal(t, text, got)
}

func TestFileHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("XXX\x02\x02\x00\x00\x00\x00")
	_, err := record.ReadFileHeader(buf, record.DefaultVersionPolicy())
	require.Error(t, err)
}

func TestFileHeaderRejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(record.Magic)
	buf.Write([]byte{record.DefaultMajor, record.DefaultMinor})
	buf.Write([]byte{1, 0, 0, 0x08}) // header_len = 0x08000001 > 128 MiB
	_, err := record.ReadFileHeader(&buf, record.DefaultVersionPolicy())
	require.Error(t, err)
}
