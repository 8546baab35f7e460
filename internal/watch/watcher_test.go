package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewWatcher verifies that creating a new Watcher succeeds.
func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "a.json")}, 0)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if w.IsRunning() {
		t.Error("newly created watcher should not be running")
	}
}

// TestWatcher_StartStop verifies clean startup and shutdown.
func TestWatcher_StartStop(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "records.ndjson")
	if err := os.WriteFile(source, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{source}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !w.IsRunning() {
		t.Error("watcher should be running after Start")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if w.IsRunning() {
		t.Error("watcher should not be running after Stop")
	}
}

// TestWatcher_StartAlreadyRunning verifies double-start fails.
func TestWatcher_StartAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "records.ndjson")
	if err := os.WriteFile(source, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{source}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Error("second Start should fail while running")
	}
}

// TestWatcher_EmitsChangeForWatchedFile verifies a write produces exactly
// one debounced Change carrying the canonical path.
func TestWatcher_EmitsChangeForWatchedFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "records.ndjson")
	if err := os.WriteFile(source, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{source}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Two rapid writes should collapse into one Change.
	if err := os.WriteFile(source, []byte(`{"id":"a"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(source, []byte(`{"id":"b"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-w.Changes():
		if ch.Path != source {
			t.Errorf("Change.Path = %s, want %s", ch.Path, source)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}

	// No further event should follow within a few debounce windows.
	select {
	case ch := <-w.Changes():
		t.Errorf("unexpected second change: %+v", ch)
	case <-time.After(150 * time.Millisecond):
	}
}

// TestWatcher_IgnoresOtherFiles verifies unrelated files in the same
// directory emit nothing.
func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "records.ndjson")
	if err := os.WriteFile(source, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{source}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-w.Changes():
		t.Errorf("unexpected change for unrelated file: %+v", ch)
	case <-time.After(200 * time.Millisecond):
	}
}

// TestWatcher_WatchesTwoDirectories verifies both files report changes when
// they live in different directories.
func TestWatcher_WatchesTwoDirectories(t *testing.T) {
	srcDir := t.TempDir()
	dataDir := t.TempDir()
	source := filepath.Join(srcDir, "records.ndjson")
	buffer := filepath.Join(dataDir, "buffer.json")
	for _, p := range []string{source, buffer} {
		if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewWatcher([]string{source, buffer}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(buffer, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-w.Changes():
		if ch.Path != buffer {
			t.Errorf("Change.Path = %s, want %s", ch.Path, buffer)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for buffer change")
	}
}

// TestWatcher_StopClosesChannels verifies Stop closes both channels.
func TestWatcher_StopClosesChannels(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "records.ndjson")
	if err := os.WriteFile(source, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{source}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	changes := w.Changes()
	watchErrs := w.Errors()

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("Changes channel should be closed after Stop")
		}
	case <-time.After(time.Second):
		t.Error("timeout verifying changes channel closure")
	}

	select {
	case _, ok := <-watchErrs:
		if ok {
			t.Error("Errors channel should be closed after Stop")
		}
	case <-time.After(time.Second):
		t.Error("timeout verifying errors channel closure")
	}
}
