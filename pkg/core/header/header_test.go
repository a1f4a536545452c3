package header

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := []Descriptor{
		{Name: "name", Type: 'C', Length: 25},
		{Name: "age", Type: 'N', Length: 3, Decimals: 0},
	}
	h := New(fields, DialectDBaseIII, 0x03, false)
	h.RecordCount = 1

	raw := h.Encode()
	back, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.RecordCount != 1 {
		t.Errorf("got record count %d", back.RecordCount)
	}
	if len(back.Fields) != 2 {
		t.Fatalf("got %d fields", len(back.Fields))
	}
	if back.Fields[0].Name != "name" || back.Fields[1].Name != "age" {
		t.Errorf("got fields %+v", back.Fields)
	}
	if back.Fields[0].Start != 1 || back.Fields[1].Start != 26 {
		t.Errorf("got starts %d %d", back.Fields[0].Start, back.Fields[1].Start)
	}
}

func TestFoxProVersionBytes(t *testing.T) {
	fields := []Descriptor{{Name: "name", Type: 'C', Length: 10}}

	noMemo := New(fields, DialectFoxPro, 0x03, false)
	if noMemo.Version != VersionDBaseIII {
		t.Errorf("no-memo FoxPro: got version 0x%02X, want 0x%02X (byte-identical to dBase III)", noMemo.Version, VersionDBaseIII)
	}
	if noMemo.Dialect() != DialectDBaseIII {
		t.Errorf("no-memo FoxPro round-trips as %v, want DialectDBaseIII (no distinct byte exists)", noMemo.Dialect())
	}

	withMemo := New(fields, DialectFoxPro, 0x03, true)
	if withMemo.Version != VersionFoxProMemo {
		t.Errorf("memo FoxPro: got version 0x%02X, want 0x%02X", withMemo.Version, VersionFoxProMemo)
	}

	raw := withMemo.Encode()
	back, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if back.Version != VersionFoxProMemo {
		t.Errorf("decoded version 0x%02X, want 0x%02X", back.Version, VersionFoxProMemo)
	}
	if back.Dialect() != DialectFoxPro {
		t.Errorf("decoded dialect %v, want DialectFoxPro", back.Dialect())
	}
	if !back.HasMemo() {
		t.Error("expected HasMemo true for FoxPro memo version byte")
	}
	if back.Fields[0].Start != 1 {
		t.Errorf("expected sequential Start for FoxPro fields, got %d", back.Fields[0].Start)
	}
}

func TestRecomputeRecordLength(t *testing.T) {
	h := New([]Descriptor{{Name: "a", Type: 'C', Length: 10}}, DialectDBaseIII, 0, false)
	if h.RecordLength != 11 {
		t.Errorf("got %d", h.RecordLength)
	}
}

func TestScenarioS1FileSize(t *testing.T) {
	fields := []Descriptor{
		{Name: "name", Type: 'C', Length: 25},
		{Name: "age", Type: 'N', Length: 3},
		{Name: "wisdom", Type: 'M', Length: 10},
	}
	h := New(fields, DialectDBaseIII, 0, true)
	// 32 + 3*32 + 1 + (1+25+3+10) + 1(trailing 0x1A for dBase III) == 169
	want := 32 + 3*32 + 1 + (1 + 25 + 3 + 10) + 1
	got := int(h.HeaderLength) + 1*int(h.RecordLength) + 1
	if got != want {
		t.Errorf("got %d want %d", got, want)
	}
}
