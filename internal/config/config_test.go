package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir != "ndedit_data" {
		t.Errorf("DataDir = %s, want ndedit_data", cfg.DataDir)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want 100ms", cfg.Debounce)
	}
	if cfg.LogFile != "" {
		t.Errorf("LogFile = %s, want empty", cfg.LogFile)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "ndedit_data" {
		t.Errorf("DataDir = %s, want default", cfg.DataDir)
	}
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want default", cfg.Debounce)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "data_dir: custom_data\ndebounce: 250ms\nlog_file: watch.log\n"
	if err := os.WriteFile(filepath.Join(dir, "ndedit.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "custom_data" {
		t.Errorf("DataDir = %s, want custom_data", cfg.DataDir)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", cfg.Debounce)
	}
	if cfg.LogFile != "watch.log" {
		t.Errorf("LogFile = %s, want watch.log", cfg.LogFile)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	paths := cfg.Paths("records.ndjson")

	if paths.Source != "records.ndjson" {
		t.Errorf("Source = %s", paths.Source)
	}
	if paths.Buffer != filepath.Join("ndedit_data", "buffer.json") {
		t.Errorf("Buffer = %s", paths.Buffer)
	}
	if paths.Memory != filepath.Join("ndedit_data", "_memory.json") {
		t.Errorf("Memory = %s", paths.Memory)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
