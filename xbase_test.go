package xbase

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.dbf")

	tbl, err := Create(path, []FieldSpec{"NAME C(20)", "AGE N(3,0)"}, DialectDBaseIII, Options{})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(map[string]any{"NAME": "alice", "AGE": 30}, false, 1))
	require.NoError(t, tbl.Close(false))

	dialect, err := Sniff(path)
	require.NoError(t, err)
	require.Equal(t, DialectDBaseIII, dialect)

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close(false)

	require.Equal(t, 1, reopened.RecordCount())
	require.NoError(t, reopened.Top())
	rec, err := reopened.Record()
	require.NoError(t, err)
	name, err := rec.Field("NAME")
	require.NoError(t, err)
	require.Equal(t, "alice", name)
}

func TestRecordSaveWritesBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.dbf")
	tbl, err := Create(path, []FieldSpec{"NAME C(20)"}, DialectDBaseIII, Options{})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(map[string]any{"NAME": "alice"}, false, 1))

	rec, err := tbl.RecordAt(1)
	require.NoError(t, err)
	require.NoError(t, rec.SetField("NAME", "alicia"))
	require.NoError(t, rec.Save())

	rec2, err := tbl.RecordAt(1)
	require.NoError(t, err)
	name, err := rec2.Field("NAME")
	require.NoError(t, err)
	require.Equal(t, "alicia", name)
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.dbf")
	tbl, err := Create(path, []FieldSpec{"NAME C(10)", "AGE N(3,0)"}, DialectDBaseIII, Options{})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(map[string]any{"NAME": "alice", "AGE": 30}, false, 1))

	var buf bytes.Buffer
	require.NoError(t, tbl.Export(&buf, ExportCSV))
	out := buf.String()
	require.Contains(t, out, `"name","age"`)
	require.Contains(t, out, `"alice",30`)
}
