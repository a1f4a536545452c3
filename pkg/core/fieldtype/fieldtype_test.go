package fieldtype

import (
	"testing"
	"time"

	"github.com/mkfoss/xbase/pkg/core/charset"
	"github.com/mkfoss/xbase/pkg/core/temporal"
)

func asciiCodepage(t *testing.T) charset.Codepage {
	t.Helper()
	cp, err := charset.Lookup(0x00)
	if err != nil {
		t.Fatal(err)
	}
	return cp
}

func TestCharRoundTrip(t *testing.T) {
	entry, err := Lookup('C', Generic)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'C', Length: 10}
	cp := asciiCodepage(t)

	encoded, err := entry.Encode("Ethan", spec, nil, cp)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(encoded))
	}

	decoded, err := entry.Decode(encoded, spec, nil, cp, HostClasses{})
	if err != nil {
		t.Fatal(err)
	}
	if decoded != "Ethan" {
		t.Errorf("got %q", decoded)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	entry, err := Lookup('N', Generic)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'N', Length: 3, Decimals: 0}
	cp := asciiCodepage(t)

	encoded, err := entry.Encode(int64(29), spec, nil, cp)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := entry.Decode(encoded, spec, nil, cp, HostClasses{})
	if err != nil {
		t.Fatal(err)
	}
	if decoded.(int64) != 29 {
		t.Errorf("got %v", decoded)
	}
}

func TestParseFieldSpec(t *testing.T) {
	name, spec, err := ParseFieldSpec("age N(3,0)", DBaseIII)
	if err != nil {
		t.Fatal(err)
	}
	if name != "age" || spec.Type != 'N' || spec.Length != 3 {
		t.Errorf("got %q %+v", name, spec)
	}
}

func TestDateRoundTrip(t *testing.T) {
	entry, err := Lookup('D', Generic)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'D', Length: 8}
	cp := asciiCodepage(t)

	want := temporal.NewDate(1994, 8, 3)
	encoded, err := entry.Encode(want, spec, nil, cp)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != "19940803" {
		t.Fatalf("got %q", encoded)
	}

	decoded, err := entry.Decode(encoded, spec, nil, cp, HostClasses{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := decoded.(temporal.Date)
	if !ok {
		t.Fatalf("expected temporal.Date, got %T", decoded)
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDateRoundTripEmpty(t *testing.T) {
	entry, err := Lookup('D', Generic)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'D', Length: 8}
	cp := asciiCodepage(t)

	blank := entry.Blank(spec)
	decoded, err := entry.Decode(blank, spec, nil, cp, HostClasses{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := decoded.(temporal.Date)
	if !ok {
		t.Fatalf("expected temporal.Date, got %T", decoded)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty date, got %v", got)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	entry, err := Lookup('T', VisualFoxPro)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'T', Length: 8}
	cp := asciiCodepage(t)

	want := temporal.NewDateTime(time.Date(2003, 12, 25, 13, 30, 15, 0, time.UTC))
	encoded, err := entry.Encode(want, spec, nil, cp)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(encoded))
	}

	decoded, err := entry.Decode(encoded, spec, nil, cp, HostClasses{})
	if err != nil {
		t.Fatal(err)
	}
	got, ok := decoded.(temporal.DateTime)
	if !ok {
		t.Fatalf("expected temporal.DateTime, got %T", decoded)
	}
	gotTime, err := got.Time()
	if err != nil {
		t.Fatal(err)
	}
	wantTime, _ := want.Time()
	if !gotTime.Equal(wantTime) {
		t.Errorf("got %v, want %v", gotTime, wantTime)
	}
}

func TestCurrencyOverflow(t *testing.T) {
	entry, err := Lookup('Y', VisualFoxPro)
	if err != nil {
		t.Fatal(err)
	}
	spec := Spec{Type: 'Y', Length: 8, Decimals: 4}
	_, err = entry.Encode(float64(currencyMax)*2, spec, nil, asciiCodepage(t))
	if err == nil {
		t.Error("expected overflow error")
	}
}
