// Package dict builds the BCF int-to-string dictionaries (spec.md §4.J)
// used to resolve FILTER/INFO/FORMAT key offsets and contig offsets. Each
// dictionary is dense (a flat array) when its IDX values form a gap-free
// {0,...,N-1}, and sparse (a left-leaning red-black tree keyed by IDX)
// otherwise.
package dict

import (
	"github.com/biogo/store/llrb"
	"github.com/pkg/errors"
)

// ErrMalformedHeader marks an inconsistent set of header lines: mixed
// IDX/no-IDX usage within one kind, or two distinct IDs claiming the same
// IDX (spec.md §4.J, §7).
var ErrMalformedHeader = errors.New("dict: malformed header lines")

// Kind distinguishes the three header-line categories that share one
// string dictionary namespace (spec.md §4.J).
type Kind int

const (
	KindInfo Kind = iota
	KindFormat
	KindFilter
)

// HeaderLine is one INFO/FORMAT/FILTER declaration from a VCF header.
type HeaderLine struct {
	Kind Kind
	ID   string
	IDX  *int32 // nil if the line carries no IDX attribute
}

// idxEntry is the llrb.Comparable element stored in a sparse dictionary's
// tree, ordered by IDX.
type idxEntry struct {
	idx int32
	id  string
}

func (e *idxEntry) Compare(other llrb.Comparable) int {
	o := other.(*idxEntry)
	switch {
	case e.idx < o.idx:
		return -1
	case e.idx > o.idx:
		return 1
	default:
		return 0
	}
}

// Dictionary is an int32 -> string map built by BuildStringDictionary or
// BuildContigDictionary.
type Dictionary struct {
	dense   []string
	sparse  *llrb.Tree
	isDense bool
	byID    map[string]int32
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.byID) }

// Dense reports whether the dictionary uses the dense array
// representation (Testable Property 9).
func (d *Dictionary) Dense() bool { return d.isDense }

// Lookup resolves idx to its string ID.
func (d *Dictionary) Lookup(idx int32) (string, bool) {
	if d.isDense {
		if idx < 0 || int(idx) >= len(d.dense) {
			return "", false
		}
		return d.dense[idx], true
	}
	got := d.sparse.Get(&idxEntry{idx: idx})
	if got == nil {
		return "", false
	}
	return got.(*idxEntry).id, true
}

// LookupID resolves a string ID to its dictionary offset.
func (d *Dictionary) LookupID(id string) (int32, bool) {
	idx, ok := d.byID[id]
	return idx, ok
}

// assignment is one (idx, id) pair destined for the built dictionary,
// after ID-collapse has resolved which header lines actually contribute
// an entry.
type assignment struct {
	idx int32
	id  string
}

// buildFromAssignments applies the shared dense-vs-sparse rule (spec.md
// §4.J rule 3) to a resolved set of (idx, id) pairs, which must already
// be free of ID collisions.
func buildFromAssignments(assignments []assignment) *Dictionary {
	byIdx := make(map[int32]string, len(assignments))
	byID := make(map[string]int32, len(assignments))
	for _, a := range assignments {
		byIdx[a.idx] = a.id
		byID[a.id] = a.idx
	}
	dense := true
	for i := 0; i < len(assignments); i++ {
		if _, ok := byIdx[int32(i)]; !ok {
			dense = false
			break
		}
	}
	if dense {
		arr := make([]string, len(assignments))
		for idx, id := range byIdx {
			arr[idx] = id
		}
		return &Dictionary{dense: arr, isDense: true, byID: byID}
	}
	tree := &llrb.Tree{}
	for idx, id := range byIdx {
		tree.Insert(&idxEntry{idx: idx, id: id})
	}
	return &Dictionary{sparse: tree, isDense: false, byID: byID}
}

// resolveIDX walks lines in order, collapsing repeat IDs (rule 1),
// checking per-kind IDX-all-or-none (rule 2), assigning sequential IDX
// values where none are declared, and rejecting IDX collisions between
// distinct IDs (rule 4). base pre-seeds the assignment set (used for the
// FILTER dictionary's implicit PASS=0 entry, rule 5) and must not itself
// collide.
func resolveIDX(lines []HeaderLine, base []assignment) ([]assignment, error) {
	kindTotal := map[Kind]int{}
	kindWithIDX := map[Kind]int{}
	for _, l := range lines {
		kindTotal[l.Kind]++
		if l.IDX != nil {
			kindWithIDX[l.Kind]++
		}
	}
	for k, total := range kindTotal {
		if has := kindWithIDX[k]; has != 0 && has != total {
			return nil, errors.Wrapf(ErrMalformedHeader, "kind %v: IDX present on some lines but not all", k)
		}
	}

	seenID := make(map[string]bool, len(lines)+len(base))
	idxOwner := make(map[int32]string, len(lines)+len(base))
	assignments := append([]assignment(nil), base...)
	var nextAuto int32
	for _, a := range assignments {
		seenID[a.id] = true
		idxOwner[a.idx] = a.id
		if a.idx >= nextAuto {
			nextAuto = a.idx + 1
		}
	}

	for _, l := range lines {
		if seenID[l.ID] {
			continue
		}
		var idx int32
		if l.IDX != nil {
			idx = *l.IDX
		} else {
			idx = nextAuto
		}
		if owner, ok := idxOwner[idx]; ok && owner != l.ID {
			return nil, errors.Wrapf(ErrMalformedHeader, "IDX %d maps to both %q and %q", idx, owner, l.ID)
		}
		idxOwner[idx] = l.ID
		seenID[l.ID] = true
		assignments = append(assignments, assignment{idx: idx, id: l.ID})
		if idx >= nextAuto {
			nextAuto = idx + 1
		}
	}
	return assignments, nil
}

// BuildStringDictionary builds the combined INFO/FORMAT/FILTER
// dictionary, with an implicit FILTER entry 0 -> "PASS" inserted before
// any user line is considered (spec.md §4.J rule 5).
func BuildStringDictionary(lines []HeaderLine) (*Dictionary, error) {
	assignments, err := resolveIDX(lines, []assignment{{idx: 0, id: "PASS"}})
	if err != nil {
		return nil, err
	}
	return buildFromAssignments(assignments), nil
}

// ContigLine is one contig (##contig=<ID=...,IDX=...>) declaration.
type ContigLine struct {
	ID  string
	IDX *int32
}

// BuildContigDictionary builds the contig dictionary. Contigs form their
// own namespace: no implicit entries, no collapsing against
// INFO/FORMAT/FILTER IDs.
func BuildContigDictionary(lines []ContigLine) (*Dictionary, error) {
	hlines := make([]HeaderLine, len(lines))
	for i, l := range lines {
		hlines[i] = HeaderLine{Kind: KindInfo, ID: l.ID, IDX: l.IDX}
	}
	assignments, err := resolveIDX(hlines, nil)
	if err != nil {
		return nil, err
	}
	return buildFromAssignments(assignments), nil
}
