// Package record implements the fixed-width row codec: field read/write
// by name or index, dirty tracking, gather/scatter, and transactional
// reset-on-error. Grounded on the teacher's Field4/Data4.Record buffer
// handling across field4.go, write4.go, and data4.go's D4Blank/
// initBlankRecord.
package record

import (
	"strings"

	"github.com/mkfoss/xbase/pkg/core/charset"
	"github.com/mkfoss/xbase/pkg/core/fieldtype"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// FieldLayout is one field's position within the fixed-width row plus
// its resolved type-registry entry.
type FieldLayout struct {
	Name     string
	Offset   int // 0-based offset within data[1:], i.e. data[1+Offset:]
	Entry    *fieldtype.Entry
	Spec     fieldtype.Spec
}

// Layout is shared read-only state for every record of one table:
// field positions, the codepage, and host-class overrides.
type Layout struct {
	Fields      []FieldLayout
	byName      map[string]int
	RecordLen   int // including the leading delete-flag byte
	Codepage    charset.Codepage
	HostClasses fieldtype.HostClasses
	Memo        fieldtype.Memo
}

// NewLayout builds a Layout from resolved field entries/specs.
func NewLayout(fields []FieldLayout, codepage charset.Codepage, hc fieldtype.HostClasses, memo fieldtype.Memo) *Layout {
	l := &Layout{Fields: fields, Codepage: codepage, HostClasses: hc, Memo: memo}
	l.byName = make(map[string]int, len(fields))
	total := 1
	for i, f := range fields {
		l.byName[strings.ToLower(f.Name)] = i
		total += f.Spec.Length
	}
	l.RecordLen = total
	return l
}

// IndexOf resolves a field name (case-insensitive) to its index, or -1.
func (l *Layout) IndexOf(name string) int {
	if i, ok := l.byName[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// Record is one fixed-width row: a delete flag plus the concatenation of
// encoded fields.
type Record struct {
	layout   *Layout
	Number   int // -1 for a new, unattached record
	Data     []byte
	Dirty    bool
}

// New builds a blank, unattached record (Number == -1).
func New(layout *Layout) *Record {
	r := &Record{layout: layout, Number: -1}
	r.Data = blankTemplate(layout)
	return r
}

// Attach binds r to a live record number (e.g. after a successful
// append or on load from disk).
func (r *Record) Attach(number int, data []byte) {
	r.Number = number
	r.Data = data
	r.Dirty = false
}

func blankTemplate(layout *Layout) []byte {
	buf := make([]byte, layout.RecordLen)
	buf[0] = ' '
	for _, f := range layout.Fields {
		blank := f.Entry.Blank(f.Spec)
		copy(buf[1+f.Offset:], blank)
	}
	return buf
}

// IsDeleted reports whether the delete flag is set.
func (r *Record) IsDeleted() bool { return r.Data[0] == '*' }

// Delete sets the delete flag and marks the record dirty.
func (r *Record) Delete() { r.Data[0] = '*'; r.Dirty = true }

// Undelete clears the delete flag and marks the record dirty.
func (r *Record) Undelete() { r.Data[0] = ' '; r.Dirty = true }

func (r *Record) fieldBytes(idx int) []byte {
	f := r.layout.Fields[idx]
	return r.Data[1+f.Offset : 1+f.Offset+f.Spec.Length]
}

// resolveIndex supports negative indices counting from the end.
func (r *Record) resolveIndex(i int) (int, error) {
	n := len(r.layout.Fields)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, xerr.NewDbfError("record.resolveIndex", "field index out of range")
	}
	return i, nil
}

// FieldAt reads the field at zero-based index i (negative counts from
// the end).
func (r *Record) FieldAt(i int) (any, error) {
	idx, err := r.resolveIndex(i)
	if err != nil {
		return nil, err
	}
	f := r.layout.Fields[idx]
	return f.Entry.Decode(r.fieldBytes(idx), f.Spec, r.layout.Memo, r.layout.Codepage, r.layout.HostClasses)
}

// Field reads a field by name.
func (r *Record) Field(name string) (any, error) {
	idx := r.layout.IndexOf(name)
	if idx < 0 {
		return nil, &xerr.FieldMissingError{Field: name}
	}
	return r.FieldAt(idx)
}

// SetFieldAt writes the field at zero-based index i. Any per-field
// error (overflow, bad type) leaves r.Data unchanged, preserving
// single-record atomicity at the per-call level; callers performing
// a multi-field Gather get full-record atomicity via GatherFields.
func (r *Record) SetFieldAt(i int, value any) error {
	idx, err := r.resolveIndex(i)
	if err != nil {
		return err
	}
	f := r.layout.Fields[idx]
	encoded, err := f.Entry.Encode(value, f.Spec, r.layout.Memo, r.layout.Codepage)
	if err != nil {
		return err
	}
	if len(encoded) != f.Spec.Length {
		return &xerr.DataOverflowError{Field: f.Name, Kind: "encoded length", Max: f.Spec.Length, Got: len(encoded)}
	}
	copy(r.Data[1+f.Offset:1+f.Offset+f.Spec.Length], encoded)
	r.Dirty = true
	return nil
}

// SetField writes a field by name.
func (r *Record) SetField(name string, value any) error {
	idx := r.layout.IndexOf(name)
	if idx < 0 {
		return &xerr.FieldMissingError{Field: name}
	}
	return r.SetFieldAt(idx, value)
}

// Reset blanks the record back to the all-blank template, restoring the
// fields named in keep from their current values.
func (r *Record) Reset(keep []string) error {
	saved := make(map[string]any, len(keep))
	for _, name := range keep {
		v, err := r.Field(name)
		if err != nil {
			return err
		}
		saved[name] = v
	}
	r.Data = blankTemplate(r.layout)
	for name, v := range saved {
		if err := r.SetField(name, v); err != nil {
			return err
		}
	}
	r.Dirty = true
	return nil
}

// GatherFields bulk-writes from a mapping. Missing keys are an error
// unless drop is true. On any error, the record's pre-edit bytes are
// restored (single-record atomicity), per spec §4.7.
func (r *Record) GatherFields(values map[string]any, drop bool) error {
	before := append([]byte{}, r.Data...)
	for name, v := range values {
		if r.layout.IndexOf(name) < 0 {
			if drop {
				continue
			}
			r.Data = before
			return &xerr.FieldMissingError{Field: name}
		}
		if err := r.SetField(name, v); err != nil {
			r.Data = before
			return err
		}
	}
	return nil
}

// ScatterFields returns a name->value mapping of every field. If blank
// is true, the template's blank values are returned instead of the
// record's current values.
func (r *Record) ScatterFields(blank bool) (map[string]any, error) {
	out := make(map[string]any, len(r.layout.Fields))
	if blank {
		tmpl := blankTemplate(r.layout)
		for _, f := range r.layout.Fields {
			v, err := f.Entry.Decode(tmpl[1+f.Offset:1+f.Offset+f.Spec.Length], f.Spec, r.layout.Memo, r.layout.Codepage, r.layout.HostClasses)
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	}
	for i, f := range r.layout.Fields {
		v, err := r.FieldAt(i)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

// Slice returns the values of every field in declaration order.
func (r *Record) Slice() ([]any, error) {
	out := make([]any, len(r.layout.Fields))
	for i := range r.layout.Fields {
		v, err := r.FieldAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// BuildLayout resolves header field descriptors into a record.Layout,
// looking up each type code in the fieldtype registry.
func BuildLayout(names []string, codes []byte, lengths, decimals []int, dialect fieldtype.Dialect, cp charset.Codepage, hc fieldtype.HostClasses, m fieldtype.Memo) (*Layout, error) {
	fields := make([]FieldLayout, len(names))
	offset := 0
	for i := range names {
		entry, err := fieldtype.Lookup(codes[i], dialect)
		if err != nil {
			return nil, err
		}
		spec := fieldtype.Spec{Type: codes[i], Length: lengths[i], Decimals: decimals[i], Dialect: dialect}
		fields[i] = FieldLayout{Name: names[i], Offset: offset, Entry: entry, Spec: spec}
		offset += lengths[i]
	}
	return NewLayout(fields, cp, hc, m), nil
}
