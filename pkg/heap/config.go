package heap

import (
	"fmt"
	"os"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"
)

// Config tunes the heap and its collector.
type Config struct {
	// InitialCapacity is the slot capacity every arena starts with.
	InitialCapacity int
	// GCThreshold is the number of allocated bytes after which MaybeCollect
	// runs a cycle.
	GCThreshold bytesize.ByteSize
	// GrowthFactor scales the next threshold from the bytes that survived a
	// cycle. Values <= 1 keep the threshold fixed.
	GrowthFactor float64
	// MaxHeapBytes is a hard limit on arena bytes; 0 disables it.
	MaxHeapBytes bytesize.ByteSize
	// MaxDenseGap bounds how many holes an array index write may create
	// before the key is stored out of line instead.
	MaxDenseGap int
	// Trace writes one summary line per collection.
	Trace bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: 64,
		GCThreshold:     4 * bytesize.MB,
		GrowthFactor:    2,
		MaxHeapBytes:    0,
		MaxDenseGap:     1024,
		Trace:           false,
	}
}

// Validate checks the configuration for values the heap cannot work with.
func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return fmt.Errorf("initial_capacity must not be negative, got %d", c.InitialCapacity)
	}
	if c.GrowthFactor < 0 {
		return fmt.Errorf("growth_factor must not be negative, got %v", c.GrowthFactor)
	}
	if c.MaxDenseGap < 0 {
		return fmt.Errorf("max_dense_gap must not be negative, got %d", c.MaxDenseGap)
	}
	if c.MaxHeapBytes > 0 && c.GCThreshold > c.MaxHeapBytes {
		return fmt.Errorf("gc_threshold %s exceeds max_heap %s", c.GCThreshold, c.MaxHeapBytes)
	}
	return nil
}

// fileConfig is the YAML layout. Sizes are strings such as "512KB".
type fileConfig struct {
	InitialCapacity *int     `yaml:"initial_capacity"`
	GCThreshold     string   `yaml:"gc_threshold"`
	GrowthFactor    *float64 `yaml:"growth_factor"`
	MaxHeap         string   `yaml:"max_heap"`
	MaxDenseGap     *int     `yaml:"max_dense_gap"`
	Trace           *bool    `yaml:"trace"`
}

// ParseConfig reads a YAML document on top of DefaultConfig. Keys that are
// absent keep their defaults; unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing heap config: %w", err)
	}
	if fc.InitialCapacity != nil {
		cfg.InitialCapacity = *fc.InitialCapacity
	}
	if fc.GCThreshold != "" {
		size, err := bytesize.Parse(fc.GCThreshold)
		if err != nil {
			return cfg, fmt.Errorf("parsing gc_threshold %q: %w", fc.GCThreshold, err)
		}
		cfg.GCThreshold = size
	}
	if fc.GrowthFactor != nil {
		cfg.GrowthFactor = *fc.GrowthFactor
	}
	if fc.MaxHeap != "" {
		size, err := bytesize.Parse(fc.MaxHeap)
		if err != nil {
			return cfg, fmt.Errorf("parsing max_heap %q: %w", fc.MaxHeap, err)
		}
		cfg.MaxHeapBytes = size
	}
	if fc.MaxDenseGap != nil {
		cfg.MaxDenseGap = *fc.MaxDenseGap
	}
	if fc.Trace != nil {
		cfg.Trace = *fc.Trace
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("reading heap config: %w", err)
	}
	return ParseConfig(data)
}
