// Package record implements the BCF record codec (spec.md §4.K): the
// site/genotype block framing, the raw int32 site prelude, and the typed
// fields (ID, alleles, FILTER, INFO, FORMAT) built on bcf/types and
// resolved against bcf/dict dictionaries.
package record

import (
	"encoding/binary"
	"math"

	"github.com/grailbio/seqcore/bcf/dict"
	"github.com/grailbio/seqcore/bcf/types"
	"github.com/pkg/errors"
)

// ErrMalformedRecord marks a corrupt site/genotype block: a truncated
// field, a FILTER/INFO/FORMAT dictionary offset with no entry, or an
// nAlleles/nInfo/nFormat/nSamples field that overflows its packed width.
var ErrMalformedRecord = errors.New("record: malformed BCF record")

// InfoField is one decoded INFO key/value pair. Flag is true for a
// FLAG-typed key, whose wire payload is MISSING and whose presence alone
// means the value is boolean true (spec.md §4.K, Testable Property 10).
type InfoField struct {
	Key   string
	Value types.Value
	Flag  bool
}

// GenotypeField is one decoded FORMAT field: a key plus a typed vector of
// length NumSamples (a per-sample scalar) or NumSamples*ploidy (e.g. GT).
type GenotypeField struct {
	Key   string
	Value types.Value
}

// Record is one decoded BCF record. Pos is the 0-based wire value;
// Start returns the 1-based position callers expect.
type Record struct {
	ChromOffset int32
	Pos         int32
	RefLen      int32
	Qual        *float32 // nil means MISSING
	ID          string
	Alleles     [][]byte // Alleles[0] is REF
	FilterIDX   []int32  // dictionary offsets; empty means unfiltered
	Info        []InfoField
	NumSamples  int
	Format      []GenotypeField // nil when genotypes are still lazy

	numFormat int
	gtRaw     []byte
}

// Start returns the record's 1-based start position.
func (r *Record) Start() int32 { return r.Pos + 1 }

// Stop returns the record's 0-based end position (pos + ref_len - 1).
func (r *Record) Stop() int32 { return r.Pos + r.RefLen - 1 }

// Filters resolves FilterIDX against sdict. unfiltered is true when
// FilterIDX is empty; a single 0 entry resolves to {"PASS"}.
func (r *Record) Filters(sdict *dict.Dictionary) (names []string, unfiltered bool, err error) {
	if len(r.FilterIDX) == 0 {
		return nil, true, nil
	}
	names = make([]string, len(r.FilterIDX))
	for i, idx := range r.FilterIDX {
		name, ok := sdict.Lookup(idx)
		if !ok {
			return nil, false, errors.Wrapf(ErrMalformedRecord, "filter offset %d not in dictionary", idx)
		}
		names[i] = name
	}
	return names, false, nil
}

// Genotypes returns the record's FORMAT fields, decoding the lazily-held
// genotype block on first use.
func (r *Record) Genotypes(sdict *dict.Dictionary) ([]GenotypeField, error) {
	if r.Format != nil {
		return r.Format, nil
	}
	fields, err := decodeGenotypeBlock(r.gtRaw, r.numFormat, sdict)
	if err != nil {
		return nil, err
	}
	r.Format = fields
	return fields, nil
}

// ReorderSamples decodes the genotype block (if still lazy) and permutes
// every field's per-sample slices so sample i of the result is sample
// newOrder[i] of the record as stored. Reordering forces eager decoding
// (spec.md §4.K: "decoded eagerly to permit reordering").
func (r *Record) ReorderSamples(sdict *dict.Dictionary, newOrder []int) error {
	if len(newOrder) != r.NumSamples {
		return errors.Wrap(ErrMalformedRecord, "reorder length does not match sample count")
	}
	fields, err := r.Genotypes(sdict)
	if err != nil {
		return err
	}
	out := make([]GenotypeField, len(fields))
	for i, f := range fields {
		out[i] = GenotypeField{Key: f.Key, Value: permuteValue(f.Value, newOrder, r.NumSamples)}
	}
	r.Format = out
	return nil
}

func permuteValue(v types.Value, order []int, numSamples int) types.Value {
	out := v
	ploidy := 1
	if numSamples > 0 {
		switch v.Type {
		case types.Int8, types.Int16, types.Int32:
			ploidy = len(v.Ints) / numSamples
		case types.Float:
			ploidy = len(v.Floats) / numSamples
		case types.Char:
			ploidy = len(v.Chars) / numSamples
		}
	}
	switch v.Type {
	case types.Int8, types.Int16, types.Int32:
		ints := make([]int32, len(v.Ints))
		for dst, src := range order {
			copy(ints[dst*ploidy:(dst+1)*ploidy], v.Ints[src*ploidy:(src+1)*ploidy])
		}
		out.Ints = ints
	case types.Float:
		floats := make([]float32, len(v.Floats))
		for dst, src := range order {
			copy(floats[dst*ploidy:(dst+1)*ploidy], v.Floats[src*ploidy:(src+1)*ploidy])
		}
		out.Floats = floats
	case types.Char:
		chars := make([]byte, len(v.Chars))
		for dst, src := range order {
			copy(chars[dst*ploidy:(dst+1)*ploidy], v.Chars[src*ploidy:(src+1)*ploidy])
		}
		out.Chars = chars
	}
	return out
}

// Encode appends rec's wire encoding (site_len | gt_len | site | gt) to
// buf.
func Encode(buf []byte, rec *Record, sdict, cdict *dict.Dictionary) ([]byte, error) {
	site, err := encodeSite(rec, sdict)
	if err != nil {
		return nil, err
	}
	gt, err := encodeGenotypeBlock(rec, sdict)
	if err != nil {
		return nil, err
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint32(lenBuf[0:4], uint32(len(site)))
	binary.LittleEndian.PutUint32(lenBuf[4:8], uint32(len(gt)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, site...)
	buf = append(buf, gt...)
	return buf, nil
}

// Decode reads one record from the front of buf, returning the record
// and the number of bytes consumed. The genotype block is kept lazy;
// call Genotypes or ReorderSamples to decode it.
func Decode(buf []byte, sdict, cdict *dict.Dictionary) (*Record, int, error) {
	if len(buf) < 8 {
		return nil, 0, errors.Wrap(ErrMalformedRecord, "unexpected EOF reading block lengths")
	}
	siteLen := int(binary.LittleEndian.Uint32(buf[0:4]))
	gtLen := int(binary.LittleEndian.Uint32(buf[4:8]))
	total := 8 + siteLen + gtLen
	if len(buf) < total {
		return nil, 0, errors.Wrap(ErrMalformedRecord, "unexpected EOF reading site/genotype block")
	}
	site := buf[8 : 8+siteLen]
	gt := buf[8+siteLen : total]

	rec, err := decodeSite(site, sdict)
	if err != nil {
		return nil, 0, err
	}
	rec.gtRaw = gt
	return rec, total, nil
}

func encodeSite(rec *Record, sdict *dict.Dictionary) ([]byte, error) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(rec.ChromOffset))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(rec.Pos))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(rec.RefLen))
	qualBits := types.MissingFloatBits
	if rec.Qual != nil {
		qualBits = math.Float32bits(*rec.Qual)
	}
	binary.LittleEndian.PutUint32(buf[12:16], qualBits)

	nAlleles, nInfo := len(rec.Alleles), len(rec.Info)
	if nAlleles > 0xFFFF || nInfo > 0xFFFF {
		return nil, errors.Wrap(ErrMalformedRecord, "nAlleles/nInfo overflows packed 16-bit field")
	}
	var err error
	buf, err = appendTypedUint32(buf, uint32(nAlleles)<<16|uint32(nInfo))
	if err != nil {
		return nil, err
	}

	nFormat := len(rec.Format)
	if nFormat > 0xFF || rec.NumSamples > 0xFFFFFF {
		return nil, errors.Wrap(ErrMalformedRecord, "nFormat/nSamples overflows packed field")
	}
	buf, err = appendTypedUint32(buf, uint32(nFormat)<<24|uint32(rec.NumSamples))
	if err != nil {
		return nil, err
	}

	idBytes := []byte(rec.ID)
	if len(idBytes) == 0 {
		idBytes = []byte(".")
	}
	buf, err = types.WriteValue(buf, types.Value{Type: types.Char, Chars: idBytes})
	if err != nil {
		return nil, err
	}

	for _, a := range rec.Alleles {
		if buf, err = types.WriteValue(buf, types.Value{Type: types.Char, Chars: a}); err != nil {
			return nil, err
		}
	}

	filterType := types.Int8
	if len(rec.FilterIDX) > 0 {
		mn, mx := int64(rec.FilterIDX[0]), int64(rec.FilterIDX[0])
		for _, f := range rec.FilterIDX {
			if int64(f) < mn {
				mn = int64(f)
			}
			if int64(f) > mx {
				mx = int64(f)
			}
		}
		filterType = types.SmallestIntType(mn, mx)
	}
	if buf, err = types.WriteValue(buf, types.Value{Type: filterType, Ints: rec.FilterIDX}); err != nil {
		return nil, err
	}

	for _, info := range rec.Info {
		idx, ok := sdict.LookupID(info.Key)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "info key %q not in dictionary", info.Key)
		}
		if buf, err = appendTypedOffset(buf, idx); err != nil {
			return nil, err
		}
		v := info.Value
		if info.Flag {
			v = types.Value{Type: types.Missing, Count: 1}
		}
		if buf, err = types.WriteValue(buf, v); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func decodeSite(buf []byte, sdict *dict.Dictionary) (*Record, error) {
	if len(buf) < 16 {
		return nil, errors.Wrap(ErrMalformedRecord, "unexpected EOF reading site prelude")
	}
	rec := &Record{}
	rec.ChromOffset = int32(binary.LittleEndian.Uint32(buf[0:4]))
	rec.Pos = int32(binary.LittleEndian.Uint32(buf[4:8]))
	rec.RefLen = int32(binary.LittleEndian.Uint32(buf[8:12]))
	qualBits := binary.LittleEndian.Uint32(buf[12:16])
	if !types.IsMissingFloat(qualBits) {
		q := math.Float32frombits(qualBits)
		rec.Qual = &q
	}
	n := 16

	packed1, m, err := readTypedUint32(buf[n:])
	if err != nil {
		return nil, err
	}
	n += m
	nAlleles, nInfo := int(packed1>>16), int(packed1&0xFFFF)

	packed2, m, err := readTypedUint32(buf[n:])
	if err != nil {
		return nil, err
	}
	n += m
	nFormat, numSamples := int(packed2>>24), int(packed2&0xFFFFFF)
	rec.numFormat = nFormat
	rec.NumSamples = numSamples

	idVal, m, err := types.ReadValue(buf[n:])
	if err != nil {
		return nil, err
	}
	n += m
	if string(idVal.Chars) != "." {
		rec.ID = string(idVal.Chars)
	}

	rec.Alleles = make([][]byte, nAlleles)
	for i := 0; i < nAlleles; i++ {
		av, m, err := types.ReadValue(buf[n:])
		if err != nil {
			return nil, err
		}
		n += m
		rec.Alleles[i] = av.Chars
	}

	fv, m, err := types.ReadValue(buf[n:])
	if err != nil {
		return nil, err
	}
	n += m
	rec.FilterIDX = fv.Ints

	rec.Info = make([]InfoField, 0, nInfo)
	for i := 0; i < nInfo; i++ {
		kv, m, err := types.ReadValue(buf[n:])
		if err != nil {
			return nil, err
		}
		n += m
		if len(kv.Ints) != 1 {
			return nil, errors.Wrap(ErrMalformedRecord, "info key offset is not a single int")
		}
		key, ok := sdict.Lookup(kv.Ints[0])
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "info key offset %d not in dictionary", kv.Ints[0])
		}
		val, m, err := types.ReadValue(buf[n:])
		if err != nil {
			return nil, err
		}
		n += m
		rec.Info = append(rec.Info, InfoField{Key: key, Value: val, Flag: val.Type == types.Missing})
	}
	return rec, nil
}

func encodeGenotypeBlock(rec *Record, sdict *dict.Dictionary) ([]byte, error) {
	var buf []byte
	for _, f := range rec.Format {
		idx, ok := sdict.LookupID(f.Key)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "format key %q not in dictionary", f.Key)
		}
		var err error
		if buf, err = appendTypedOffset(buf, idx); err != nil {
			return nil, err
		}
		if buf, err = types.WriteValue(buf, f.Value); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func decodeGenotypeBlock(buf []byte, nFormat int, sdict *dict.Dictionary) ([]GenotypeField, error) {
	fields := make([]GenotypeField, 0, nFormat)
	n := 0
	for i := 0; i < nFormat; i++ {
		kv, m, err := types.ReadValue(buf[n:])
		if err != nil {
			return nil, err
		}
		n += m
		if len(kv.Ints) != 1 {
			return nil, errors.Wrap(ErrMalformedRecord, "format key offset is not a single int")
		}
		key, ok := sdict.Lookup(kv.Ints[0])
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "format key offset %d not in dictionary", kv.Ints[0])
		}
		val, m, err := types.ReadValue(buf[n:])
		if err != nil {
			return nil, err
		}
		n += m
		fields = append(fields, GenotypeField{Key: key, Value: val})
	}
	return fields, nil
}

func appendTypedUint32(buf []byte, v uint32) ([]byte, error) {
	return types.WriteValue(buf, types.Value{Type: types.Int32, Ints: []int32{int32(v)}})
}

func readTypedUint32(buf []byte) (uint32, int, error) {
	v, n, err := types.ReadValue(buf)
	if err != nil {
		return 0, 0, err
	}
	if len(v.Ints) != 1 {
		return 0, 0, errors.Wrap(ErrMalformedRecord, "packed field is not a single int")
	}
	return uint32(v.Ints[0]), n, nil
}

func appendTypedOffset(buf []byte, idx int32) ([]byte, error) {
	t := types.SmallestIntType(int64(idx), int64(idx))
	return types.WriteValue(buf, types.Value{Type: t, Ints: []int32{idx}})
}
