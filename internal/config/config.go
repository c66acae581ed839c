// Package config loads pipeline settings from YAML with sane defaults for
// every knob, so a config file only needs the values it changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable of the analysis pipeline.
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	Cleanup CleanupConfig `yaml:"cleanup"`
	Silk    SilkConfig    `yaml:"silk"`
	Rows    RowsConfig    `yaml:"rows"`
	QR      QRConfig      `yaml:"qr"`
	Tip     EndConfig     `yaml:"tip"`
	Bottom  EndConfig     `yaml:"bottom"`

	Processing ProcessingConfig `yaml:"processing"`
}

// FilterConfig bounds which connected regions count as ears.
type FilterConfig struct {
	MinAreaFrac    float64 `yaml:"min_area_frac"`
	MaxAreaFrac    float64 `yaml:"max_area_frac"`
	MaxAspectRatio float64 `yaml:"max_aspect_ratio"`
	MaxSolidity    float64 `yaml:"max_solidity"`
}

// CleanupConfig bounds the segmentation clean-up loop.
type CleanupConfig struct {
	MaxCOV        float64 `yaml:"max_cov"`
	MaxIterations int     `yaml:"max_iterations"`
}

// SilkConfig bounds the per-ear de-silking loop.
type SilkConfig struct {
	MinDeltaConvexity float64 `yaml:"min_delta_convexity"`
	MaxIterations     int     `yaml:"max_iterations"`
	SkipAbove         float64 `yaml:"skip_above"`
}

// RowsConfig tunes kernel-row counting.
type RowsConfig struct {
	Enabled      bool `yaml:"enabled"`
	Bands        int  `yaml:"bands"`
	CoarseWindow int  `yaml:"coarse_window"`
	FineWindow   int  `yaml:"fine_window"`
	MaxExtrema   int  `yaml:"max_extrema"`
}

// QRConfig tunes the sample-label scan.
type QRConfig struct {
	Enabled    bool    `yaml:"enabled"`
	WindowSize int     `yaml:"window_size"`
	Overlap    float64 `yaml:"overlap"`
}

// EndConfig tunes tip or bottom cob segmentation.
type EndConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Percent   int     `yaml:"percent"`
	Contrast  int     `yaml:"contrast"`
	Threshold float64 `yaml:"threshold"`
	Close     int     `yaml:"close"`
}

// ProcessingConfig controls batch behavior.
type ProcessingConfig struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
}

// Default returns the stock configuration used when no file is given.
func Default() *Config {
	return &Config{
		Filter: FilterConfig{
			MinAreaFrac:    0.010,
			MaxAreaFrac:    0.100,
			MaxAspectRatio: 0.6,
			MaxSolidity:    0.983,
		},
		Cleanup: CleanupConfig{
			MaxCOV:        0.35,
			MaxIterations: 10,
		},
		Silk: SilkConfig{
			MinDeltaConvexity: 0.04,
			MaxIterations:     10,
			SkipAbove:         0.87,
		},
		Rows: RowsConfig{
			Enabled:      true,
			Bands:        6,
			CoarseWindow: 15,
			FineWindow:   19,
			MaxExtrema:   9,
		},
		QR: QRConfig{
			Enabled: false,
			Overlap: 0.01,
		},
		Tip: EndConfig{
			Enabled: false,
			Percent: 20,
		},
		Bottom: EndConfig{
			Enabled: false,
			Percent: 20,
		},
		Processing: ProcessingConfig{
			Workers:   4,
			OutputDir: ".",
		},
	}
}

// Load reads a YAML config file over the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configs the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Filter.MinAreaFrac < 0 || c.Filter.MaxAreaFrac > 1 ||
		c.Filter.MinAreaFrac > c.Filter.MaxAreaFrac {
		return fmt.Errorf("filter: area fractions must satisfy 0 <= min <= max <= 1")
	}
	if c.Cleanup.MaxIterations < 0 {
		return fmt.Errorf("cleanup: max_iterations cannot be negative")
	}
	if c.Silk.MaxIterations < 0 {
		return fmt.Errorf("silk: max_iterations cannot be negative")
	}
	if c.Rows.Bands < 3 {
		return fmt.Errorf("rows: need at least 3 bands, got %d", c.Rows.Bands)
	}
	if c.Rows.CoarseWindow%2 == 0 || c.Rows.FineWindow%2 == 0 {
		return fmt.Errorf("rows: smoothing windows must be odd")
	}
	if c.QR.Overlap < 0 || c.QR.Overlap >= 1 {
		return fmt.Errorf("qr: overlap must be in [0,1)")
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing: need at least 1 worker")
	}
	return nil
}
