package temporal

import (
	"testing"
	"time"
)

func TestDateEmptyOrdering(t *testing.T) {
	empty := EmptyDate()
	value := NewDate(2024, 1, 1)

	if !empty.Equal(EmptyDate()) {
		t.Error("empty should equal empty")
	}
	if empty.Equal(value) {
		t.Error("empty should not equal a real value")
	}
	if !empty.Less(value) {
		t.Error("empty should be less than any real value")
	}
	if empty.Less(empty) {
		t.Error("empty should not be less than empty")
	}
	if !empty.LessEqual(empty) {
		t.Error("empty <= empty should hold")
	}
	if value.GreaterEqual(empty) == false {
		t.Error("value >= empty should hold")
	}
	if empty.GreaterEqual(value) {
		t.Error("empty >= value should not hold")
	}
	if empty.Greater(value) {
		t.Error("empty > value should not hold")
	}
}

func TestDateFromYMD(t *testing.T) {
	d, err := DateFromYMD("20240315")
	if err != nil {
		t.Fatal(err)
	}
	if d.YMD() != "20240315" {
		t.Errorf("got %q", d.YMD())
	}

	blank, err := DateFromYMD("        ")
	if err != nil {
		t.Fatal(err)
	}
	if !blank.IsEmpty() {
		t.Error("expected empty date from blank input")
	}
}

func TestDateTimeJulianRoundTrip(t *testing.T) {
	parsed, err := time.Parse(time.RFC3339, "2024-03-15T12:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	dt := NewDateTime(parsed)
	j, m := dt.ToJulian()
	back := DateTimeFromJulian(j, m)
	tt, err := back.Time()
	if err != nil {
		t.Fatal(err)
	}
	if tt.Year() != 2024 || tt.Month() != 3 || tt.Day() != 15 || tt.Hour() != 12 || tt.Minute() != 30 {
		t.Errorf("round trip mismatch: %v", tt)
	}
}
