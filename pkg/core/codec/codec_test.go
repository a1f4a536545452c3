package codec

import "testing"

func TestUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 65536, 4294967295}
	for _, v := range cases {
		if got := Uint32LE(PutUint32LE(v)); got != v {
			t.Errorf("LE round trip: got %d want %d", got, v)
		}
		if got := Uint32BE(PutUint32BE(v)); got != v {
			t.Errorf("BE round trip: got %d want %d", got, v)
		}
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	cases := []float64{0, 1.5, -123.456, 3.14159265358979}
	for _, v := range cases {
		if got := Float64LE(PutFloat64LE(v)); got != v {
			t.Errorf("got %v want %v", got, v)
		}
	}
}

func TestPackFieldName(t *testing.T) {
	b, err := PackFieldName("name")
	if err != nil {
		t.Fatal(err)
	}
	if UnpackFieldName(b[:]) != "name" {
		t.Errorf("got %q", UnpackFieldName(b[:]))
	}

	if _, err := PackFieldName("way_too_long_name"); err == nil {
		t.Error("expected overflow error")
	}
}

func TestHeaderDateRoundTrip(t *testing.T) {
	b := PackHeaderDate(2024, 3, 15)
	y, m, d := UnpackHeaderDate(b)
	if y != 2024 || m != 3 || d != 15 {
		t.Errorf("got %d-%d-%d", y, m, d)
	}
}

func TestPadRight(t *testing.T) {
	if PadRight("ab", 5) != "ab   " {
		t.Errorf("got %q", PadRight("ab", 5))
	}
	if PadRight("abcdef", 3) != "abc" {
		t.Errorf("got %q", PadRight("abcdef", 3))
	}
}
