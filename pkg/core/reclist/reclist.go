// Package reclist implements the ordered, value-deduplicated collection
// of (table, recno, key) triples described in spec §4.9. It has no
// direct teacher analogue — CodeBase's native list concept is the
// CDX-backed tag, not an ephemeral dedup list — so this is built fresh
// in the surrounding packages' naming and error-handling conventions.
package reclist

// TableRef is the minimal interface List needs from a table: fetching a
// live record by its current record number.
type TableRef interface {
	RecordAt(recno int) (any, error)
}

// Entry is one (table, recno, key) triple held by a List.
type Entry struct {
	Table TableRef
	Recno int
	Key   any
}

// List is an ordered collection of Entry, deduplicated by Key.
type List struct {
	entries []Entry
	seen    map[any]bool
	cursor  int
}

// New returns an empty List.
func New() *List {
	return &List{seen: make(map[any]bool)}
}

// Len returns the number of entries.
func (l *List) Len() int { return len(l.entries) }

// Append adds e unless its key has already been seen, returning whether
// it was added.
func (l *List) Append(e Entry) bool {
	if l.seen[e.Key] {
		return false
	}
	l.entries = append(l.entries, e)
	l.seen[e.Key] = true
	return true
}

// Insert inserts e at position i unless its key has already been seen.
func (l *List) Insert(i int, e Entry) bool {
	if l.seen[e.Key] {
		return false
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = e
	l.seen[e.Key] = true
	return true
}

// At returns the entry at position i.
func (l *List) At(i int) Entry { return l.entries[i] }

// Slice returns a new List holding entries [from:to), sharing no
// backing state with the receiver.
func (l *List) Slice(from, to int) *List {
	out := New()
	for _, e := range l.entries[from:to] {
		out.Append(e)
	}
	return out
}

// Remove deletes the entry at position i.
func (l *List) Remove(i int) {
	e := l.entries[i]
	delete(l.seen, e.Key)
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

// Clear empties the list.
func (l *List) Clear() {
	l.entries = nil
	l.seen = make(map[any]bool)
	l.cursor = 0
}

// Union returns a new List containing the receiver's entries followed by
// any of other's entries whose key was not already present.
func (l *List) Union(other *List) *List {
	out := New()
	for _, e := range l.entries {
		out.Append(e)
	}
	for _, e := range other.entries {
		out.Append(e)
	}
	return out
}

// Difference returns a new List containing the receiver's entries whose
// key is not present in other.
func (l *List) Difference(other *List) *List {
	out := New()
	for _, e := range l.entries {
		if !other.seen[e.Key] {
			out.Append(e)
		}
	}
	return out
}

// Entries returns the backing slice (read-only use expected).
func (l *List) Entries() []Entry { return l.entries }

// Cursor motions, mirroring the table engine's own cursor semantics
// (spec §4.9): top/bottom/next/prev/current/goto over [-1, len].

// Top resets the cursor to -1 (BOF).
func (l *List) Top() { l.cursor = -1 }

// Bottom sets the cursor to len(entries) (EOF).
func (l *List) Bottom() { l.cursor = len(l.entries) }

// Next advances the cursor by one, returning false at EOF.
func (l *List) Next() bool {
	if l.cursor >= len(l.entries) {
		return false
	}
	l.cursor++
	return l.cursor < len(l.entries)
}

// Prev moves the cursor back by one, returning false at BOF.
func (l *List) Prev() bool {
	if l.cursor <= -1 {
		return false
	}
	l.cursor--
	return l.cursor >= 0
}

// Current returns the entry at the cursor, or ok=false at BOF/EOF.
func (l *List) Current() (Entry, bool) {
	if l.cursor < 0 || l.cursor >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[l.cursor], true
}

// Goto positions the cursor at i.
func (l *List) Goto(i int) { l.cursor = i }

// Purge is the callback invoked by the table engine's pack operation:
// it removes the specific (table,recno) entry (if present) and shifts
// every later entry's recno down by offset.
func (l *List) Purge(table TableRef, oldRecno, offset int) {
	for i := 0; i < len(l.entries); i++ {
		e := l.entries[i]
		if e.Table == table && e.Recno == oldRecno {
			l.Remove(i)
			i--
			continue
		}
		if e.Table == table && e.Recno > oldRecno {
			l.entries[i].Recno -= offset
		}
	}
}
