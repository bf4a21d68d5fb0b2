package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Port    string `koanf:"sample_port"`
	Buffer  int    `koanf:"sample_buffer_minutes"`
	Storage string `koanf:"sample_storage"`
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "booking.yaml")
	if err := os.WriteFile(path, []byte("sample_buffer_minutes: 20\nsample_storage: memory\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SAMPLE_STORAGE", "postgres")

	var got sample
	if err := Load(sample{Port: "8083", Buffer: 15, Storage: "memory"}, path, &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Port != "8083" {
		t.Fatalf("expected default port, got %q", got.Port)
	}
	if got.Buffer != 20 {
		t.Fatalf("expected file buffer 20, got %d", got.Buffer)
	}
	if got.Storage != "postgres" {
		t.Fatalf("expected env storage to win, got %q", got.Storage)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var got sample
	if err := Load(sample{}, filepath.Join(t.TempDir(), "absent.yaml"), &got); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestPort(t *testing.T) {
	t.Setenv("SAMPLE_HTTP_PORT", "70000")
	if _, err := Port("SAMPLE_HTTP_PORT", "8080"); err == nil {
		t.Fatal("expected invalid port error")
	}
	if p, err := Port("SAMPLE_UNSET_PORT", "8080"); err != nil || p != "8080" {
		t.Fatalf("expected fallback 8080, got %q (%v)", p, err)
	}
}
