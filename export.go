package xbase

import (
	"fmt"
	"io"
	"strings"
)

// ExportFormat selects Table.Export's output dialect.
type ExportFormat int

const (
	// ExportCSV is comma-delimited, double-quoted on every non-numeric
	// field, LF line terminator (spec §6's CSV export dialect).
	ExportCSV ExportFormat = iota
)

func isNumericGo(v any) bool {
	switch v.(type) {
	case int64, float64, int, uint32:
		return true
	default:
		return false
	}
}

func csvField(v any) string {
	s := fmt.Sprintf("%v", v)
	if isNumericGo(v) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Export writes every live record (skipping deleted ones unless the
// table's Options.UseDeleted was set) to w as CSV: a header row of
// field names, followed by one row per record. Numeric fields are
// written bare; every other field is double-quoted.
func (t *Table) Export(w io.Writer, format ExportFormat) error {
	if format != ExportCSV {
		return fmt.Errorf("xbase: unsupported export format %d", format)
	}

	fields := t.Structure()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = `"` + f.Name + `"`
	}
	if _, err := io.WriteString(w, strings.Join(names, ",")+"\n"); err != nil {
		return err
	}

	savedPos := t.Position()
	defer t.Goto(savedPos)

	for t.Top(); !t.EOF(); t.Next() {
		rec, err := t.Record()
		if err != nil {
			return err
		}
		row := make([]string, len(fields))
		for i, f := range fields {
			v, err := rec.Field(f.Name)
			if err != nil {
				return err
			}
			row[i] = csvField(v)
		}
		if _, err := io.WriteString(w, strings.Join(row, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
