package memo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScenarioS4Db3Overflow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dbt")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	store, err := CreateDB3(f)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	payload := []byte(strings.Repeat("x", 600))
	block, err := store.Put(payload)
	if err != nil {
		t.Fatal(err)
	}
	if block != 1 {
		t.Errorf("expected first block to be 1, got %d", block)
	}
	if store.NextFreeBlock() != 3 {
		t.Errorf("expected next_free_block to advance by 2 (ceil((600+2)/512)), got %d", store.NextFreeBlock())
	}

	got, err := store.Get(block)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != strings.Repeat("x", 600) {
		t.Errorf("round trip mismatch, got %d bytes", len(got))
	}
}

func TestVFPRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.fpt")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	store, err := CreateVFP(f, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	block, err := store.Put([]byte("timeless"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(block)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "timeless" {
		t.Errorf("got %q", got)
	}
}

func TestNoopStore(t *testing.T) {
	s := NewNoop()
	block, err := s.Put([]byte("anything"))
	if err != nil || block != 0 {
		t.Errorf("noop Put should return (0, nil), got (%d, %v)", block, err)
	}
	got, err := s.Get(5)
	if err != nil || got != nil {
		t.Errorf("noop Get should return (nil, nil), got (%v, %v)", got, err)
	}
}
