package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/toktx"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Encode.Format)
	assert.Equal(t, "8x8", cfg.Encode.Block)
	assert.Equal(t, 4, cfg.Encode.Threads)
	assert.Equal(t, "ktx", cfg.Output.Container)
	assert.Equal(t, "none", cfg.Output.Compression)
	assert.False(t, cfg.Mipmaps)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "format", mutate: func(c *Config) { c.Encode.Format = "etc2" }},
		{name: "block", mutate: func(c *Config) { c.Encode.Block = "7x7" }},
		{name: "threads", mutate: func(c *Config) { c.Encode.Threads = -1 }},
		{name: "quality", mutate: func(c *Config) { c.Encode.Quality = "ultra" }},
		{name: "container", mutate: func(c *Config) { c.Output.Container = "dds" }},
		{name: "compression", mutate: func(c *Config) { c.Output.Compression = "gzip" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEncodeConfig_TargetFormat(t *testing.T) {
	f, err := EncodeConfig{}.TargetFormat()
	require.NoError(t, err)
	assert.Equal(t, toktx.FormatUnknown, f)

	f, err = EncodeConfig{Format: "bc3"}.TargetFormat()
	require.NoError(t, err)
	assert.Equal(t, toktx.FormatDXT5, f)
}

func TestLoader_SaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	loader := NewLoaderWithPath(configPath)

	cfg := DefaultConfig()
	cfg.Encode.Format = "dxt5"
	cfg.Encode.Quality = QualityFast
	cfg.Output.Container = "edds"
	cfg.Mipmaps = true

	require.NoError(t, loader.Save(cfg))
	assert.True(t, loader.Exists())

	loaded, err := loader.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoader_LoadNonExistent(t *testing.T) {
	loader := NewLoaderWithPath(filepath.Join(t.TempDir(), "nonexistent", "config.yaml"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("mipmaps: true\nencode:\n  block: 6x6\n"), 0o644))

	cfg, err := NewLoaderWithPath(configPath).Load()
	require.NoError(t, err)

	assert.True(t, cfg.Mipmaps)
	assert.Equal(t, "6x6", cfg.Encode.Block)
	assert.Empty(t, cfg.Encode.Format)
	assert.Equal(t, "ktx", cfg.Output.Container)
}

func TestLoader_ExpandEnvVars(t *testing.T) {
	t.Setenv("TOKTX_TEST_OUT", "/tmp/textures")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "output:\n  dir: ${TOKTX_TEST_OUT}\n  container: ktx\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	loader := NewLoaderWithPath(configPath)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/textures", cfg.Output.Dir)

	raw, err := loader.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, "${TOKTX_TEST_OUT}", raw.Output.Dir)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("encode: [unterminated"), 0o644))

	_, err := NewLoaderWithPath(configPath).Load()
	assert.Error(t, err)
}

func TestLoader_Init(t *testing.T) {
	loader := NewLoaderWithPath(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, loader.Init())
	assert.True(t, loader.Exists())
	assert.Error(t, loader.Init(), "second Init must not overwrite")
}

func TestNewLoader(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loader, err := NewLoader()
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(loader.ConfigPath()))
	assert.Equal(t, ConfigDirName, filepath.Base(filepath.Dir(loader.ConfigPath())))
}
