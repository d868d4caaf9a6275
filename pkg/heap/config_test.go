package heap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inhies/go-bytesize"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
initial_capacity: 8
gc_threshold: 512KB
growth_factor: 1.5
max_heap: 64MB
trace: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InitialCapacity != 8 {
		t.Errorf("expected initial capacity 8, got %d", cfg.InitialCapacity)
	}
	if cfg.GCThreshold != 512*bytesize.KB {
		t.Errorf("expected 512KB threshold, got %s", cfg.GCThreshold)
	}
	if cfg.GrowthFactor != 1.5 {
		t.Errorf("expected growth factor 1.5, got %v", cfg.GrowthFactor)
	}
	if cfg.MaxHeapBytes != 64*bytesize.MB {
		t.Errorf("expected 64MB max heap, got %s", cfg.MaxHeapBytes)
	}
	if !cfg.Trace {
		t.Errorf("expected trace enabled")
	}
	if cfg.MaxDenseGap != DefaultConfig().MaxDenseGap {
		t.Errorf("expected default max dense gap to be kept")
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "colour: blue\n"},
		{"bad size", "gc_threshold: lots\n"},
		{"threshold above limit", "gc_threshold: 8MB\nmax_heap: 1MB\n"},
		{"negative gap", "max_dense_gap: -1\n"},
	}
	for _, tt := range tests {
		if _, err := ParseConfig([]byte(tt.doc)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.yaml")
	if err := os.WriteFile(path, []byte("initial_capacity: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InitialCapacity != 3 {
		t.Errorf("expected 3, got %d", cfg.InitialCapacity)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
