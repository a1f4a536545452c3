package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkfoss/xbase"
)

func newQueryTestTable(t *testing.T) *xbase.Table {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/people.dbf"
	tbl, err := xbase.Create(path, []string{"NAME C(20)", "AGE N(3,0)"}, xbase.DialectDBaseIII, xbase.Options{})
	require.NoError(t, err)
	require.NoError(t, tbl.Append(map[string]any{"NAME": "alice", "AGE": 30}, false, 1))
	require.NoError(t, tbl.Append(map[string]any{"NAME": "bob", "AGE": 20}, false, 1))
	return tbl
}

func TestCompileNumericComparison(t *testing.T) {
	tbl := newQueryTestTable(t)
	pred, err := Compile("AGE > 25")
	require.NoError(t, err)

	require.NoError(t, tbl.Goto(1))
	rec, err := tbl.Record()
	require.NoError(t, err)
	matched, err := pred(rec)
	require.NoError(t, err)
	require.True(t, matched)

	require.NoError(t, tbl.Goto(2))
	rec, err = tbl.Record()
	require.NoError(t, err)
	matched, err = pred(rec)
	require.NoError(t, err)
	require.False(t, matched)
}

func TestCompileStringEqualityWithConjunction(t *testing.T) {
	tbl := newQueryTestTable(t)
	pred, err := Compile(`NAME = 'alice' AND AGE = 30`)
	require.NoError(t, err)

	require.NoError(t, tbl.Goto(1))
	rec, err := tbl.Record()
	require.NoError(t, err)
	matched, err := pred(rec)
	require.NoError(t, err)
	require.True(t, matched)
}

func TestCompileLike(t *testing.T) {
	tbl := newQueryTestTable(t)
	pred, err := Compile("NAME LIKE '%lic%'")
	require.NoError(t, err)

	require.NoError(t, tbl.Goto(1))
	rec, err := tbl.Record()
	require.NoError(t, err)
	matched, err := pred(rec)
	require.NoError(t, err)
	require.True(t, matched)
}
