// Package config manages the toktx configuration file.
package config

import (
	"errors"
	"fmt"

	"github.com/woozymasta/toktx"
)

// ErrInvalidConfig indicates a configuration value toktx cannot use.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the toktx configuration.
type Config struct {
	Encode  EncodeConfig `yaml:"encode"`
	Output  OutputConfig `yaml:"output"`
	Mipmaps bool         `yaml:"mipmaps"`
}

// EncodeConfig holds texture encoding defaults.
type EncodeConfig struct {
	// Format is the target texture format (astc, rgb, rgba, dxt1, dxt5, ...).
	// Empty keeps the source pixels.
	Format string `yaml:"format"`
	// Block is the ASTC footprint, e.g. 8x8 or 4x4x4.
	Block   string `yaml:"block"`
	Threads int    `yaml:"threads"`
	// Quality is the BCn encoder preset: "" for the encoder default or "fast".
	Quality string `yaml:"quality,omitempty"`
	// Linear stores linear instead of sRGB colour.
	Linear bool `yaml:"linear"`
}

// OutputConfig holds container defaults.
type OutputConfig struct {
	Container   string `yaml:"container"`
	Compression string `yaml:"compression"`
	// Dir is where converted files go; empty means next to the source.
	Dir string `yaml:"dir,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Encode: EncodeConfig{
			Block:   "8x8",
			Threads: toktx.DefaultThreads,
		},
		Output: OutputConfig{
			Container:   "ktx",
			Compression: "none",
		},
	}
}

// Validate checks that every value parses.
func (c *Config) Validate() error {
	if _, err := c.Encode.TargetFormat(); err != nil {
		return fmt.Errorf("%w: encode.format: %v", ErrInvalidConfig, err)
	}
	if _, err := toktx.ParseBlockDim(c.Encode.Block); err != nil {
		return fmt.Errorf("%w: encode.block: %v", ErrInvalidConfig, err)
	}
	if c.Encode.Threads < 0 {
		return fmt.Errorf("%w: encode.threads: %d", ErrInvalidConfig, c.Encode.Threads)
	}
	switch c.Encode.Quality {
	case "", QualityFast:
	default:
		return fmt.Errorf("%w: encode.quality: %q", ErrInvalidConfig, c.Encode.Quality)
	}
	if _, err := toktx.ParseBackend(c.Output.Container); err != nil {
		return fmt.Errorf("%w: output.container: %v", ErrInvalidConfig, err)
	}
	if _, err := toktx.ParseCompression(c.Output.Compression); err != nil {
		return fmt.Errorf("%w: output.compression: %v", ErrInvalidConfig, err)
	}

	return nil
}

// TargetFormat parses Format. An empty Format yields FormatUnknown.
func (e EncodeConfig) TargetFormat() (toktx.Format, error) {
	if e.Format == "" {
		return toktx.FormatUnknown, nil
	}

	return toktx.ParseFormat(e.Format)
}

// QualityFast selects the fastest BCn encoder preset.
const QualityFast = "fast"
