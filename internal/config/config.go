// Package config holds runtime configuration for the recognizer.
//
// Configuration is read from an optional YAML file and then overridden by
// environment variables. A missing file is not an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-recognizer/internal/classifier"
	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/raster"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvThreshold    = "SHAPE_RECOGNIZER_THRESHOLD"
	EnvTrainingData = "SHAPE_RECOGNIZER_TRAINING_DATA"
	EnvLogLevel     = "SHAPE_RECOGNIZER_LOG_LEVEL"
)

// Config holds recognition parameters and process settings.
type Config struct {
	// Matching
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Metric    string  `yaml:"metric" json:"metric"`

	// Descriptor
	Harmonics int `yaml:"harmonics" json:"harmonics"`
	Samples   int `yaml:"samples" json:"samples"`

	// Extraction
	MinRegionArea int     `yaml:"min_region_area" json:"min_region_area"`
	InkLightness  float64 `yaml:"ink_lightness" json:"ink_lightness"`
	CloseRadius   float64 `yaml:"close_radius" json:"close_radius"`
	MaxDimension  int     `yaml:"max_dimension" json:"max_dimension"`

	// TrainingData is loaded at startup when set.
	TrainingData string `yaml:"training_data" json:"training_data,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	opts := raster.DefaultOptions()
	return &Config{
		Threshold:     classifier.DefaultThreshold,
		Metric:        string(classifier.Euclidean),
		Harmonics:     descriptor.DefaultHarmonics,
		Samples:       descriptor.DefaultSamples,
		MinRegionArea: contour.DefaultMinArea,
		InkLightness:  opts.InkLightness,
		CloseRadius:   opts.CloseRadius,
		MaxDimension:  opts.MaxDimension,
		LogLevel:      "info",
	}
}

// Validate clamps values to safe ranges. It returns an error only for
// values that cannot be repaired, such as an unknown metric or a threshold
// that is NaN or infinite.
func (c *Config) Validate() error {
	d := DefaultConfig()

	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		return fmt.Errorf("invalid threshold: %v", c.Threshold)
	}
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.Harmonics <= 0 {
		c.Harmonics = d.Harmonics
	}
	if c.Harmonics > 64 {
		c.Harmonics = 64
	}
	if c.Samples < 2*c.Harmonics+1 {
		c.Samples = d.Samples
		if c.Samples < 2*c.Harmonics+1 {
			c.Samples = 2*c.Harmonics + 1
		}
	}
	if c.MinRegionArea <= 0 {
		c.MinRegionArea = d.MinRegionArea
	}
	if math.IsNaN(c.InkLightness) || c.InkLightness <= 0 || c.InkLightness > 1 {
		c.InkLightness = d.InkLightness
	}
	if math.IsNaN(c.CloseRadius) || math.IsInf(c.CloseRadius, 0) || c.CloseRadius < 0 {
		c.CloseRadius = 0
	}
	if c.MaxDimension < 0 {
		c.MaxDimension = 0
	}

	m, err := classifier.ParseMetric(c.Metric)
	if err != nil {
		return err
	}
	c.Metric = string(m)

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RasterOptions returns the binarization settings.
func (c *Config) RasterOptions() raster.Options {
	return raster.Options{
		InkLightness: c.InkLightness,
		CloseRadius:  c.CloseRadius,
		MaxDimension: c.MaxDimension,
	}
}

// ApplyEnv overrides fields from the environment. Unparseable values are
// reported and leave the field unchanged.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvThreshold); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvThreshold, err)
		}
		c.Threshold = t
	}
	if v := os.Getenv(EnvTrainingData); v != "" {
		c.TrainingData = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Load reads configuration from the given YAML file, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults. On error the returned config holds the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return DefaultConfig(), err
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save validates the configuration and writes it to path in YAML format.
// Nothing is written when validation fails.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}
