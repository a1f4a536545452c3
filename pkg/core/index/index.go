// Package index implements the in-memory ordered index described in
// spec §4.10: a sorted vector of key tuples, a parallel vector of record
// numbers, and a recno->key map for O(log n) removal. The API shape
// (named tag, key length, uniqueness, descending flag) echoes the
// teacher's Tag4 accessors (T4Name/T4KeyLen/T4Unique/T4Descending in
// pkg/gocore/index4.go), but the storage itself is this fresh in-memory
// structure, not a persisted CDX B+-tree — the spec's index is rebuilt
// on open, never written to a .cdx/.idx file.
package index

import (
	"fmt"
	"sort"

	"github.com/mkfoss/xbase/pkg/core/temporal"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Key is a tuple of comparable components; indexes compare tuples
// lexicographically via Less.
type Key []any

// Less reports whether a sorts before b, comparing components pairwise.
// Components must be one of: string, int64, float64, temporal.Date,
// temporal.DateTime, or temporal.Time.
func (a Key) Less(b Key) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if cmp := compareComponent(a[i], b[i]); cmp != 0 {
			return cmp < 0
		}
	}
	return len(a) < len(b)
}

// Equal reports whether a and b have identical components.
func (a Key) Equal(b Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if compareComponent(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// HasPrefix reports whether a matches b component-wise for all of b's
// components, with the last component allowed to be a string prefix
// match rather than exact (spec §4.10's partial search semantics).
func (a Key) HasPrefix(b Key) bool {
	if len(b) > len(a) {
		return false
	}
	for i := 0; i < len(b)-1; i++ {
		if compareComponent(a[i], b[i]) != 0 {
			return false
		}
	}
	if len(b) == 0 {
		return true
	}
	last := len(b) - 1
	as, aok := a[last].(string)
	bs, bok := b[last].(string)
	if aok && bok {
		return len(as) >= len(bs) && as[:len(bs)] == bs
	}
	return compareComponent(a[last], b[last]) == 0
}

func compareComponent(a, b any) int {
	switch av := a.(type) {
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case temporal.Date:
		bv := b.(temporal.Date)
		switch {
		case av.Less(bv):
			return -1
		case bv.Less(av):
			return 1
		default:
			return 0
		}
	case temporal.DateTime:
		bv := b.(temporal.DateTime)
		switch {
		case av.Less(bv):
			return -1
		case bv.Less(av):
			return 1
		default:
			return 0
		}
	case temporal.Time:
		bv := b.(temporal.Time)
		switch {
		case av.Less(bv):
			return -1
		case bv.Less(av):
			return 1
		default:
			return 0
		}
	default:
		panic(fmt.Sprintf("index: unsupported key component type %T", a))
	}
}

// KeyFunc derives a Key from a record, given its record number. It may
// return ErrDoNotIndex (via xerr.DoNotIndex) to exclude the record.
type KeyFunc func(recno int) (Key, error)

// Index is the sorted-vector ordered index.
type Index struct {
	name       string
	keyLen     int
	unique     bool
	descending bool
	useDeleted bool
	keyFn      KeyFunc

	values   []Key
	recnos   []int
	byRecno  map[int]Key
}

// New constructs an empty, unbuilt Index.
func New(name string, keyLen int, unique, descending, useDeleted bool, keyFn KeyFunc) *Index {
	return &Index{
		name: name, keyLen: keyLen, unique: unique, descending: descending,
		useDeleted: useDeleted, keyFn: keyFn, byRecno: make(map[int]Key),
	}
}

func (ix *Index) Name() string       { return ix.name }
func (ix *Index) KeyLen() int        { return ix.keyLen }
func (ix *Index) Unique() bool       { return ix.unique }
func (ix *Index) Descending() bool   { return ix.descending }
func (ix *Index) Len() int           { return len(ix.values) }

// Build walks record numbers 1..count, applying the key function to
// each, skipping DoNotIndex, and inserting in sorted order.
func (ix *Index) Build(count int, deleted func(recno int) bool) error {
	ix.values = nil
	ix.recnos = nil
	ix.byRecno = make(map[int]Key)
	for recno := 1; recno <= count; recno++ {
		if !ix.useDeleted && deleted(recno) {
			continue
		}
		if err := ix.insertRecord(recno); err != nil {
			return err
		}
	}
	return nil
}

// Reindex clears and rebuilds the index (invoked by the table engine's
// pack operation per spec §4.10).
func (ix *Index) Reindex(count int, deleted func(recno int) bool) error {
	return ix.Build(count, deleted)
}

func (ix *Index) insertRecord(recno int) error {
	key, err := ix.keyFn(recno)
	if err != nil {
		if err == xerr.DoNotIndex {
			return nil
		}
		return err
	}
	ix.insert(key, recno)
	return nil
}

func (ix *Index) insert(key Key, recno int) {
	i := ix.bisectRight(key)
	ix.values = append(ix.values, nil)
	copy(ix.values[i+1:], ix.values[i:])
	ix.values[i] = key
	ix.recnos = append(ix.recnos, 0)
	copy(ix.recnos[i+1:], ix.recnos[i:])
	ix.recnos[i] = recno
	ix.byRecno[recno] = key
}

func (ix *Index) bisectLeft(key Key) int {
	return sort.Search(len(ix.values), func(i int) bool {
		return !ix.values[i].Less(key)
	})
}

func (ix *Index) bisectRight(key Key) int {
	return sort.Search(len(ix.values), func(i int) bool {
		return key.Less(ix.values[i])
	})
}

func (ix *Index) removeAt(i int) {
	recno := ix.recnos[i]
	ix.values = append(ix.values[:i], ix.values[i+1:]...)
	ix.recnos = append(ix.recnos[:i], ix.recnos[i+1:]...)
	delete(ix.byRecno, recno)
}

// Update is invoked on every record write: removes any existing entry
// for recno, recomputes the key, and reinserts unless the new key is
// DoNotIndex.
func (ix *Index) Update(recno int) error {
	if oldKey, ok := ix.byRecno[recno]; ok {
		i := ix.bisectLeft(oldKey)
		for i < len(ix.values) && ix.recnos[i] != recno {
			i++
		}
		if i < len(ix.values) {
			ix.removeAt(i)
		}
	}
	return ix.insertRecord(recno)
}

// Find returns the lowest index i such that values[i] == match, or -1.
// If partial, the last component of match may be a string prefix.
func (ix *Index) Find(match Key, partial bool) int {
	i := ix.bisectLeft(match)
	if i < len(ix.values) {
		if partial {
			if ix.values[i].HasPrefix(match) {
				return i
			}
		} else if ix.values[i].Equal(match) {
			return i
		}
	}
	return -1
}

// Search returns every matching recno starting at Find's result, until
// the first non-match.
func (ix *Index) Search(match Key, partial bool) []int {
	start := ix.Find(match, partial)
	if start < 0 {
		return nil
	}
	var out []int
	for i := start; i < len(ix.values); i++ {
		if partial {
			if !ix.values[i].HasPrefix(match) {
				break
			}
		} else if !ix.values[i].Equal(match) {
			break
		}
		out = append(out, ix.recnos[i])
	}
	return out
}

// At returns the (key, recno) pair at position i.
func (ix *Index) At(i int) (Key, int) { return ix.values[i], ix.recnos[i] }

// IndexOf is Find but returns an error if absent (spec §4.10's index()).
func (ix *Index) IndexOf(match Key, partial bool) (int, error) {
	i := ix.Find(match, partial)
	if i < 0 {
		return 0, xerr.NewDbfError("index.IndexOf", "key not found")
	}
	return i, nil
}

// CheckInvariant verifies the index invariant from spec §8.5: values is
// non-decreasing, and for every (recno,key) the map agrees with the
// position found by bisect_left.
func (ix *Index) CheckInvariant() bool {
	for i := 1; i < len(ix.values); i++ {
		if ix.values[i].Less(ix.values[i-1]) {
			return false
		}
	}
	for recno, key := range ix.byRecno {
		i := ix.bisectLeft(key)
		found := false
		for j := i; j < len(ix.values) && ix.values[j].Equal(key); j++ {
			if ix.recnos[j] == recno {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
