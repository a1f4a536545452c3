package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkfoss/xbase/pkg/core/header"
	"github.com/mkfoss/xbase/pkg/core/index"
	"github.com/mkfoss/xbase/pkg/core/reclist"
)

func newTestTable(t *testing.T) (*Table, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dbf")
	fields := []FieldSpec{
		{Name: "NAME", Type: 'C', Length: 20},
		{Name: "AGE", Type: 'N', Length: 3, Decimals: 0},
	}
	tb, err := Create(path, fields, header.DialectDBaseIII, Options{})
	require.NoError(t, err)
	return tb, path
}

func appendRow(t *testing.T, tb *Table, name string, age float64) {
	t.Helper()
	err := tb.Append(map[string]any{"NAME": name, "AGE": age}, false, 1)
	require.NoError(t, err)
}

// TestScenarioS1FullRoundTrip exercises create, append, close, reopen
// and re-checks the record count and the first row.
func TestScenarioS1FullRoundTrip(t *testing.T) {
	tb, path := newTestTable(t)
	appendRow(t, tb, "alice", 30)
	appendRow(t, tb, "bob", 40)
	require.Equal(t, 2, tb.RecordCount())
	require.NoError(t, tb.Close(false, false))

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close(false, false)

	require.Equal(t, 2, reopened.RecordCount())
	require.NoError(t, reopened.Top())
	raw, err := reopened.RecordAt(reopened.Position())
	require.NoError(t, err)
	r := raw.(interface {
		Field(string) (any, error)
	})
	name, err := r.Field("NAME")
	require.NoError(t, err)
	require.Equal(t, "alice", name)
}

// TestScenarioS2DeletePack appends three rows, deletes the middle one,
// packs, and checks the file shrinks to two contiguous live records.
func TestScenarioS2DeletePack(t *testing.T) {
	tb, _ := newTestTable(t)
	appendRow(t, tb, "alice", 30)
	appendRow(t, tb, "bob", 40)
	appendRow(t, tb, "carol", 50)

	require.NoError(t, tb.Delete(2))

	lst := reclist.New()
	lst.Append(reclist.Entry{Table: tb, Recno: 3, Key: "carol"})
	tb.RegisterList(lst)

	require.NoError(t, tb.Pack())
	require.Equal(t, 2, tb.RecordCount())

	raw, err := tb.RecordAt(1)
	require.NoError(t, err)
	r1 := raw.(interface{ Field(string) (any, error) })
	n1, _ := r1.Field("NAME")
	require.Equal(t, "alice", n1)

	raw2, err := tb.RecordAt(2)
	require.NoError(t, err)
	r2 := raw2.(interface{ Field(string) (any, error) })
	n2, _ := r2.Field("NAME")
	require.Equal(t, "carol", n2)

	e, ok := lst.Current()
	_ = ok
	_ = e
	require.Equal(t, 1, lst.Len())
	require.Equal(t, 2, lst.At(0).Recno)
}

func TestAppendRollbackOnGatherError(t *testing.T) {
	tb, _ := newTestTable(t)
	err := tb.Append(map[string]any{"NOPE": "x"}, false, 1)
	require.Error(t, err)
	require.Equal(t, 0, tb.RecordCount())
}

func TestCursorMotions(t *testing.T) {
	tb, _ := newTestTable(t)
	appendRow(t, tb, "alice", 30)
	appendRow(t, tb, "bob", 40)

	require.True(t, tb.BOF())
	require.NoError(t, tb.Top())
	require.Equal(t, 1, tb.Position())
	require.NoError(t, tb.Next())
	require.Equal(t, 2, tb.Position())
	require.Error(t, tb.Next())
	require.True(t, tb.EOF())

	require.NoError(t, tb.Bottom())
	require.Equal(t, 2, tb.Position())
	require.NoError(t, tb.Prev())
	require.Equal(t, 1, tb.Position())
}

func TestIndexMaintenanceOnAppend(t *testing.T) {
	tb, _ := newTestTable(t)
	ix := index.New("age", 3, false, false, false, func(recno int) (index.Key, error) {
		raw, err := tb.RecordAt(recno)
		if err != nil {
			return nil, err
		}
		r := raw.(interface{ Field(string) (any, error) })
		v, err := r.Field("AGE")
		if err != nil {
			return nil, err
		}
		return index.Key{v}, nil
	})
	tb.RegisterIndex(ix)

	appendRow(t, tb, "alice", 30)
	appendRow(t, tb, "bob", 20)

	require.True(t, ix.CheckInvariant())
	require.Equal(t, 2, ix.Len())
}

func TestAddAndRenameField(t *testing.T) {
	tb, _ := newTestTable(t)
	appendRow(t, tb, "alice", 30)

	require.NoError(t, tb.AddFields([]FieldSpec{{Name: "CITY", Type: 'C', Length: 10}}))
	raw, err := tb.RecordAt(1)
	require.NoError(t, err)
	r := raw.(interface{ Field(string) (any, error) })
	city, err := r.Field("CITY")
	require.NoError(t, err)
	require.Equal(t, "", city)

	require.NoError(t, tb.RenameField("CITY", "TOWN"))
	raw2, err := tb.RecordAt(1)
	require.NoError(t, err)
	r2 := raw2.(interface{ Field(string) (any, error) })
	_, err = r2.Field("TOWN")
	require.NoError(t, err)
}

func TestZapTruncatesToEmpty(t *testing.T) {
	tb, _ := newTestTable(t)
	appendRow(t, tb, "alice", 30)
	appendRow(t, tb, "bob", 40)
	require.NoError(t, tb.Zap())
	require.Equal(t, 0, tb.RecordCount())
	require.True(t, tb.BOF())
}

// TestFoxProDialectMemoRoundTrip creates a table under DialectFoxPro (the
// non-Visual FoxPro 2 family) with a memo field, closes and reopens it,
// and checks the table is correctly identified as FoxPro (not Visual
// FoxPro) on reopen and that its memo store used the .fpt side file.
func TestFoxProDialectMemoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foxpro.dbf")
	fields := []FieldSpec{
		{Name: "NAME", Type: 'C', Length: 20},
		{Name: "NOTES", Type: 'M', Length: 10},
	}
	tb, err := Create(path, fields, header.DialectFoxPro, Options{})
	require.NoError(t, err)
	require.Equal(t, header.VersionFoxProMemo, tb.hdr.Version)

	err = tb.Append(map[string]any{"NAME": "alice", "NOTES": "hello there"}, false, 1)
	require.NoError(t, err)
	require.NoError(t, tb.Close(false, false))

	_, err = os.Stat(filepath.Join(dir, "foxpro.fpt"))
	require.NoError(t, err)

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	require.Equal(t, header.DialectFoxPro, reopened.hdr.Dialect())

	require.NoError(t, reopened.Top())
	raw, err := reopened.RecordAt(reopened.Position())
	require.NoError(t, err)
	r := raw.(interface {
		Field(string) (any, error)
	})
	notes, err := r.Field("NOTES")
	require.NoError(t, err)
	require.Equal(t, "hello there", notes)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
