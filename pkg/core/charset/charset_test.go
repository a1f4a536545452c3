package charset

import "testing"

func TestScenarioS5Codepage(t *testing.T) {
	cp, err := Lookup(0x03)
	if err != nil {
		t.Fatal(err)
	}
	if cp.ShortName != "cp1252" {
		t.Errorf("got %q", cp.ShortName)
	}

	raw, err := cp.Encode("café")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x63, 0x61, 0x66, 0xE9}
	if len(raw) != len(want) {
		t.Fatalf("got %x want %x", raw, want)
	}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("got %x want %x", raw, want)
		}
	}

	back, err := cp.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back != "café" {
		t.Errorf("got %q", back)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup(0xFE); err == nil {
		t.Error("expected error for unrecognized codepage")
	}
}
