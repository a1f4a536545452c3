package index

import (
	"testing"

	"github.com/mkfoss/xbase/pkg/core/temporal"
)

func TestScenarioS3IndexMaintenance(t *testing.T) {
	ages := map[int]int64{1: 10, 2: 30, 3: 20}
	deleted := map[int]bool{}

	keyFn := func(recno int) (Key, error) {
		return Key{ages[recno]}, nil
	}

	ix := New("age", 8, false, false, false, keyFn)
	if err := ix.Build(3, func(r int) bool { return deleted[r] }); err != nil {
		t.Fatal(err)
	}

	found := ix.Search(Key{int64(20)}, false)
	if len(found) != 1 || found[0] != 3 {
		t.Errorf("expected recno 3, got %v", found)
	}

	ages[3] = 25
	if err := ix.Update(3); err != nil {
		t.Fatal(err)
	}

	if len(ix.Search(Key{int64(20)}, false)) != 0 {
		t.Error("expected no match for 20 after update")
	}
	found = ix.Search(Key{int64(25)}, false)
	if len(found) != 1 || found[0] != 3 {
		t.Errorf("expected recno 3 for 25, got %v", found)
	}

	if !ix.CheckInvariant() {
		t.Error("index invariant violated")
	}
}

func TestDateKeyOrdering(t *testing.T) {
	dates := map[int]temporal.Date{
		1: temporal.NewDate(1999, 1, 1),
		2: temporal.EmptyDate(),
		3: temporal.NewDate(1985, 6, 15),
	}
	keyFn := func(recno int) (Key, error) { return Key{dates[recno]}, nil }
	ix := New("birthdate", 8, false, false, false, keyFn)
	if err := ix.Build(3, func(int) bool { return false }); err != nil {
		t.Fatal(err)
	}

	if !ix.CheckInvariant() {
		t.Fatal("index invariant violated for temporal.Date keys")
	}

	found := ix.Search(Key{temporal.NewDate(1985, 6, 15)}, false)
	if len(found) != 1 || found[0] != 3 {
		t.Errorf("expected recno 3, got %v", found)
	}

	found = ix.Search(Key{temporal.EmptyDate()}, false)
	if len(found) != 1 || found[0] != 2 {
		t.Errorf("expected recno 2 for the empty date, got %v", found)
	}
}

func TestPartialStringMatch(t *testing.T) {
	names := map[int]string{1: "alpha", 2: "alphabet", 3: "beta"}
	keyFn := func(recno int) (Key, error) { return Key{names[recno]}, nil }
	ix := New("name", 20, false, false, false, keyFn)
	if err := ix.Build(3, func(int) bool { return false }); err != nil {
		t.Fatal(err)
	}

	found := ix.Search(Key{"alph"}, true)
	if len(found) != 2 {
		t.Errorf("expected 2 prefix matches, got %v", found)
	}
}
