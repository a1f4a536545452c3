package record

import (
	"testing"

	"github.com/mkfoss/xbase/pkg/core/charset"
	"github.com/mkfoss/xbase/pkg/core/fieldtype"
)

func testLayout(t *testing.T) *Layout {
	t.Helper()
	cp, err := charset.Lookup(0x00)
	if err != nil {
		t.Fatal(err)
	}
	layout, err := BuildLayout(
		[]string{"name", "age"},
		[]byte{'C', 'N'},
		[]int{25, 3},
		[]int{0, 0},
		fieldtype.DBaseIII,
		cp,
		fieldtype.HostClasses{},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return layout
}

func TestRecordSetAndGetField(t *testing.T) {
	layout := testLayout(t)
	r := New(layout)

	if err := r.SetField("name", "Ethan"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetField("age", int64(29)); err != nil {
		t.Fatal(err)
	}

	name, err := r.Field("name")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Ethan" {
		t.Errorf("got %q", name)
	}
	age, err := r.Field("age")
	if err != nil {
		t.Fatal(err)
	}
	if age.(int64) != 29 {
		t.Errorf("got %v", age)
	}
}

func TestGatherFieldsRollsBackOnError(t *testing.T) {
	layout := testLayout(t)
	r := New(layout)
	if err := r.SetField("name", "original"); err != nil {
		t.Fatal(err)
	}
	before := append([]byte{}, r.Data...)

	err := r.GatherFields(map[string]any{
		"name":    "changed",
		"nothere": "x",
	}, false)
	if err == nil {
		t.Fatal("expected FieldMissing error")
	}
	if string(r.Data) != string(before) {
		t.Error("expected record bytes to be rolled back on gather error")
	}
}

func TestDeleteUndelete(t *testing.T) {
	layout := testLayout(t)
	r := New(layout)
	if r.IsDeleted() {
		t.Error("new record should not be deleted")
	}
	r.Delete()
	if !r.IsDeleted() || !r.Dirty {
		t.Error("expected deleted and dirty after Delete")
	}
	r.Undelete()
	if r.IsDeleted() {
		t.Error("expected not deleted after Undelete")
	}
}
