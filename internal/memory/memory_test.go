package memory

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestClassify covers the encoded-JSON detection rules.
func TestClassify(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{`{"a":1}`, true},
		{`["a","b"]`, true},
		{`[]`, true},
		{`{}`, true},
		{`  {"a":1}  `, true},
		{"\n[1,2]\n", true},
		{`hello`, false},
		{``, false},
		{`42`, false}, // bare scalar encodings never classify true
		{`true`, false},
		{`"hello"`, false},
		{`{not json}`, false}, // looks like JSON but is not
		{`[1,2`, false},
		{`{"a":}`, false},
	}

	for _, tt := range tests {
		if got := Classify(tt.value); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestKey verifies the seed is hashed and the rest joins verbatim.
func TestKey(t *testing.T) {
	key := Key([]string{"rec-1", "columns", "0"})

	if strings.Contains(key, "rec-1") {
		t.Errorf("key %q should not embed the raw identity seed", key)
	}
	if !strings.HasSuffix(key, ".columns.0") {
		t.Errorf("key %q should end with the field/index chain", key)
	}

	// Same seed, same key.
	if Key([]string{"rec-1", "columns", "0"}) != key {
		t.Error("Key is not deterministic")
	}
}

// TestKey_DistinctSeeds verifies two id-less records with different serialized
// text receive non-colliding keys.
func TestKey_DistinctSeeds(t *testing.T) {
	a := Key([]string{`{"note":"first"}`, "data"})
	b := Key([]string{`{"note":"second"}`, "data"})
	if a == b {
		t.Errorf("distinct seeds produced colliding key %q", a)
	}
}

// TestRecordLookup verifies registration and idempotent re-recording.
func TestRecordLookup(t *testing.T) {
	m := New()
	path := []string{"x", "columns"}

	if m.Lookup(path) {
		t.Error("Lookup should be false before Record")
	}

	m.Record(path)
	if !m.Lookup(path) {
		t.Error("Lookup should be true after Record")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	m.Record(path)
	if m.Len() != 1 {
		t.Errorf("re-recording grew the map: Len = %d, want 1", m.Len())
	}

	if m.Lookup([]string{"x", "other"}) {
		t.Error("Lookup should be false for an unregistered path")
	}
}

// TestSaveLoad verifies the memory file round trip.
func TestSaveLoad(t *testing.T) {
	m := New()
	m.Record([]string{"x", "columns"})
	m.Record([]string{"y", "attrs", "3"})

	path := filepath.Join(t.TempDir(), "_memory.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Len() != 2 {
		t.Errorf("loaded Len = %d, want 2", loaded.Len())
	}
	if !loaded.Lookup([]string{"x", "columns"}) {
		t.Error("loaded memory missing first key")
	}
	if !loaded.Lookup([]string{"y", "attrs", "3"}) {
		t.Error("loaded memory missing second key")
	}
}

// TestLoad_Missing verifies a missing file surfaces as fs.ErrNotExist.
func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

// TestLoad_Malformed verifies a corrupt memory file fails to load.
func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed content")
	}
}
