// Package xbase is a pure-Go dBase III, FoxPro 2, and Visual FoxPro 6
// table engine: on-disk header/record/memo codecs, a record cursor with
// soft delete and pack/zap, field add/drop/resize/rename, in-memory
// ordered indexes, and a result-list set algebra. No CGO, no external
// C library.
//
// Basic usage:
//
//	tbl, err := xbase.Open("data.dbf", xbase.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tbl.Close(false)
//
//	for tbl.Top(); !tbl.EOF(); tbl.Next() {
//		rec, _ := tbl.Record()
//		name, _ := rec.Field("NAME")
//		fmt.Println(name)
//	}
package xbase

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/mkfoss/xbase/pkg/core/fieldtype"
	"github.com/mkfoss/xbase/pkg/core/header"
	"github.com/mkfoss/xbase/pkg/core/index"
	"github.com/mkfoss/xbase/pkg/core/lock"
	"github.com/mkfoss/xbase/pkg/core/logic"
	"github.com/mkfoss/xbase/pkg/core/reclist"
	"github.com/mkfoss/xbase/pkg/core/record"
	"github.com/mkfoss/xbase/pkg/core/table"
	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Dialect is the on-disk table family.
type Dialect int

const (
	DialectDBaseIII Dialect = iota
	DialectFoxPro
	DialectVisualFoxPro
)

func (d Dialect) toHeader() header.Dialect { return header.Dialect(d) }

// Sentinel errors re-exported so callers can use errors.Is without
// importing pkg/core/xerr directly.
var (
	ErrBof        = xerr.Bof
	ErrEof        = xerr.Eof
	ErrDoNotIndex = xerr.DoNotIndex
)

// Options configures a table at Open/Create time.
type Options struct {
	Codepage               byte
	HostClasses            fieldtype.HostClasses
	ImplicationMode        logic.ImplicationMode
	IgnoreMemos            bool
	VFPMemoBlockMultiplier int
	TempDir                string
	Logger                 zerolog.Logger
	UseDeleted             bool
}

func (o Options) toTable() table.Options {
	return table.Options{
		Codepage:               o.Codepage,
		HostClasses:            o.HostClasses,
		ImplicationMode:        o.ImplicationMode,
		IgnoreMemos:            o.IgnoreMemos,
		VFPMemoBlockMultiplier: o.VFPMemoBlockMultiplier,
		TempDir:                o.TempDir,
		Logger:                 o.Logger,
		UseDeleted:             o.UseDeleted,
	}
}

// Table is an open table file.
type Table struct {
	t *table.Table
}

// Open opens an existing table file.
func Open(path string, opts Options) (*Table, error) {
	t, err := table.Open(path, opts.toTable())
	if err != nil {
		return nil, err
	}
	return &Table{t: t}, nil
}

// FieldSpec is one "name TYPE[(length[,decimals])]" create-time clause.
type FieldSpec = string

// Create creates a new table with the given field-spec clauses
// (e.g. "NAME C(20)", "AGE N(3,0)", "NOTES M") under dialect.
func Create(path string, fieldSpecs []FieldSpec, dialect Dialect, opts Options) (*Table, error) {
	ftDialect := dialect.toHeader().FieldTypeDialect()
	specs := make([]table.FieldSpec, len(fieldSpecs))
	for i, clause := range fieldSpecs {
		name, spec, err := fieldtype.ParseFieldSpec(clause, ftDialect)
		if err != nil {
			return nil, err
		}
		specs[i] = table.FieldSpec{Name: name, Type: spec.Type, Length: spec.Length, Decimals: spec.Decimals}
	}
	t, err := table.Create(path, specs, dialect.toHeader(), opts.toTable())
	if err != nil {
		return nil, err
	}
	return &Table{t: t}, nil
}

// Sniff inspects just the version byte of path to determine its dialect,
// without validating the rest of the header or opening the file for
// reading/writing.
func Sniff(path string) (Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, xerr.WrapDbfError("xbase.Sniff", "opening file", err)
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.Read(b[:]); err != nil {
		return 0, xerr.WrapDbfError("xbase.Sniff", "reading version byte", err)
	}
	h := &header.Header{Version: b[0]}
	return Dialect(h.Dialect()), nil
}

// Close flushes and closes the table. keepMeta leaves the in-memory
// field layout usable (meta-only mode) after the file descriptor is
// released; pass false to fully close.
func (t *Table) Close(keepMeta bool) error { return t.t.Close(keepMeta, false) }

// RecordCount returns the number of records.
func (t *Table) RecordCount() int { return t.t.RecordCount() }

// Position returns the cursor's current record number.
func (t *Table) Position() int { return t.t.Position() }

// BOF reports whether the cursor precedes the first record.
func (t *Table) BOF() bool { return t.t.BOF() }

// EOF reports whether the cursor follows the last record.
func (t *Table) EOF() bool { return t.t.EOF() }

// Top positions the cursor at the first live record.
func (t *Table) Top() error { return t.t.Top() }

// Bottom positions the cursor at the last live record.
func (t *Table) Bottom() error { return t.t.Bottom() }

// Next advances the cursor by one live record.
func (t *Table) Next() error { return t.t.Next() }

// Prev retreats the cursor by one live record.
func (t *Table) Prev() error { return t.t.Prev() }

// Goto positions the cursor at the given 1-based record number.
func (t *Table) Goto(n int) error { return t.t.Goto(n) }

// Record loads the record at the cursor's current position.
func (t *Table) Record() (*Record, error) { return t.RecordAt(t.Position()) }

// RecordAt loads the record at the given 1-based record number.
func (t *Table) RecordAt(recno int) (*Record, error) {
	raw, err := t.t.RecordAt(recno)
	if err != nil {
		return nil, err
	}
	return &Record{r: raw.(*record.Record), t: t.t}, nil
}

// Append adds a new record, gathering field values from data. If drop is
// true, keys in data naming unknown fields are silently ignored rather
// than erroring. multiple, when greater than 1, additionally appends
// multiple-1 identical copies sharing the same memo payloads.
func (t *Table) Append(data map[string]any, drop bool, multiple int) error {
	return t.t.Append(data, drop, multiple)
}

// Delete marks the record at recno deleted.
func (t *Table) Delete(recno int) error { return t.t.Delete(recno) }

// Undelete clears the delete flag on the record at recno.
func (t *Table) Undelete(recno int) error { return t.t.Undelete(recno) }

// Pack physically removes every deleted record and renumbers the rest
// contiguously.
func (t *Table) Pack() error { return t.t.Pack() }

// Zap truncates the table to zero records.
func (t *Table) Zap() error { return t.t.Zap() }

// AddFields appends new field-spec clauses to the table's structure.
func (t *Table) AddFields(fieldSpecs []FieldSpec) error {
	ftDialect := t.t.Header().Dialect().FieldTypeDialect()
	specs := make([]table.FieldSpec, len(fieldSpecs))
	for i, clause := range fieldSpecs {
		name, spec, err := fieldtype.ParseFieldSpec(clause, ftDialect)
		if err != nil {
			return err
		}
		specs[i] = table.FieldSpec{Name: name, Type: spec.Type, Length: spec.Length, Decimals: spec.Decimals}
	}
	return t.t.AddFields(specs)
}

// DeleteFields removes the named fields from the table's structure.
func (t *Table) DeleteFields(names []string) error { return t.t.DeleteFields(names) }

// ResizeField changes one field's declared length.
func (t *Table) ResizeField(name string, newSize int) error { return t.t.ResizeField(name, newSize) }

// RenameField renames a field. newName must follow the same name rules
// as a create-time field-spec clause.
func (t *Table) RenameField(oldName, newName string) error {
	ftDialect := t.t.Header().Dialect().FieldTypeDialect()
	if _, _, err := fieldtype.ParseFieldSpec(newName+" C(1)", ftDialect); err != nil {
		return err
	}
	return t.t.RenameField(oldName, newName)
}

// SetCodepage changes the table's codepage.
func (t *Table) SetCodepage(id byte) error { return t.t.SetCodepage(id) }

// Structure reports every field's (name, type code, length, decimals),
// in declaration order.
func (t *Table) Structure() []table.FieldSpec {
	fields := t.t.Header().Fields
	out := make([]table.FieldSpec, len(fields))
	for i, f := range fields {
		out[i] = table.FieldSpec{Name: f.Name, Type: f.Type, Length: int(f.Length), Decimals: int(f.Decimals)}
	}
	return out
}

// Lock acquires an advisory, non-blocking exclusive lock on the table's
// file descriptor, guarding against a second process writing the file
// concurrently. It is explicitly orthogonal to the engine's own
// single-threaded-caller contract, which Lock does not enforce itself.
func (t *Table) Lock() error { return lock.Lock(t.t.File()) }

// Unlock releases a lock acquired with Lock.
func (t *Table) Unlock() error { return lock.Unlock(t.t.File()) }

// RegisterIndex attaches an index as a live observer of this table's
// writes and packs.
func (t *Table) RegisterIndex(ix *index.Index) { t.t.RegisterIndex(ix) }

// RegisterList attaches a result list as a live observer of this
// table's packs.
func (t *Table) RegisterList(l *reclist.List) { t.t.RegisterList(l) }

// Core exposes the underlying engine table for callers (e.g. the query
// package) that need to build index key functions or result lists
// against it directly.
func (t *Table) Core() *table.Table { return t.t }

// Record is one row: a thin wrapper adding the owning table's write-back
// path to a *record.Record.
type Record struct {
	r *record.Record
	t *table.Table
}

// Number returns the record's 1-based record number.
func (r *Record) Number() int { return r.r.Number }

// IsDeleted reports whether the record's delete flag is set.
func (r *Record) IsDeleted() bool { return r.r.IsDeleted() }

// Field reads a field by name.
func (r *Record) Field(name string) (any, error) { return r.r.Field(name) }

// SetField writes a field by name. The write is buffered in memory
// until Save is called.
func (r *Record) SetField(name string, value any) error { return r.r.SetField(name, value) }

// Save persists any pending field writes to disk.
func (r *Record) Save() error {
	_, err := r.t.WriteRecord(r.r)
	return err
}

// ==========================================================================
// MUST VARIANTS - panic instead of returning errors
// ==========================================================================

// MustOpen opens path, panicking on error.
func MustOpen(path string, opts Options) *Table {
	t, err := Open(path, opts)
	if err != nil {
		panic(err)
	}
	return t
}

// MustCreate creates path, panicking on error.
func MustCreate(path string, fieldSpecs []FieldSpec, dialect Dialect, opts Options) *Table {
	t, err := Create(path, fieldSpecs, dialect, opts)
	if err != nil {
		panic(err)
	}
	return t
}

// MustTop positions at the first live record, panicking on any error
// other than ErrEof (an empty table is not a programmer error).
func (t *Table) MustTop() {
	if err := t.Top(); err != nil && err != ErrEof {
		panic(err)
	}
}

// MustNext advances the cursor, panicking on any error other than ErrEof.
func (t *Table) MustNext() {
	if err := t.Next(); err != nil && err != ErrEof {
		panic(err)
	}
}

// MustAppend appends a record, panicking on error.
func (t *Table) MustAppend(data map[string]any) {
	if err := t.Append(data, false, 1); err != nil {
		panic(err)
	}
}

// MustPack packs the table, panicking on error.
func (t *Table) MustPack() {
	if err := t.Pack(); err != nil {
		panic(err)
	}
}
