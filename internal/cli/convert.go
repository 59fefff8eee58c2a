package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/woozymasta/bcn"
	"github.com/woozymasta/toktx"
	"github.com/woozymasta/toktx/internal/config"
)

// convertOptions are the flags of the root convert command.
type convertOptions struct {
	mipmaps   bool
	format    string
	output    string
	block     string
	threads   int
	container string
	zstd      bool
	linear    bool
}

func (o *convertOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&o.mipmaps, "mipmaps", false, "generate the mipmap chain")
	f.StringVarP(&o.format, "convert", "c", "", "target format: astc, rgb, rgba, dxt1, dxt3, dxt5, bc4, bc5")
	f.StringVarP(&o.output, "output", "o", "", "output file (default <input>.<container>)")
	f.StringVar(&o.block, "block", "", "ASTC block footprint, e.g. 8x8 or 4x4x4")
	f.IntVar(&o.threads, "threads", 0, "ASTC encoder threads")
	f.StringVar(&o.container, "container", "", "container format: ktx or edds")
	f.BoolVar(&o.zstd, "zstd", false, "wrap the container in a zstd frame")
	f.BoolVar(&o.linear, "linear", false, "treat colour as linear instead of sRGB")
}

// apply overrides cfg with the flags set on the command line.
func (o *convertOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("mipmaps") {
		cfg.Mipmaps = o.mipmaps
	}
	if f.Changed("convert") {
		cfg.Encode.Format = o.format
	}
	if f.Changed("block") {
		cfg.Encode.Block = o.block
	}
	if f.Changed("threads") {
		cfg.Encode.Threads = o.threads
	}
	if f.Changed("linear") {
		cfg.Encode.Linear = o.linear
	}
	if f.Changed("container") {
		cfg.Output.Container = o.container
	}
	if f.Changed("zstd") {
		if o.zstd {
			cfg.Output.Compression = "zstd"
		} else {
			cfg.Output.Compression = "none"
		}
	}
}

// loadConfig reads the config file selected by --config or the default one.
func loadConfig(g *globalOptions) (*config.Config, error) {
	loader, err := newLoader(g)
	if err != nil {
		return nil, err
	}

	return loader.Load()
}

func newLoader(g *globalOptions) (*config.Loader, error) {
	if g.configPath != "" {
		return config.NewLoaderWithPath(g.configPath), nil
	}

	return config.NewLoader()
}

// bcOptions maps the quality preset to BCn encoder options.
func bcOptions(quality string) *toktx.BCOptions {
	if quality != config.QualityFast {
		return nil
	}

	return &toktx.BCOptions{
		Encode: &bcn.EncodeOptions{QualityLevel: bcn.QualityLevelFast},
	}
}

// outputPath names the converted file after the input.
func outputPath(input, dir string, backend toktx.Backend, compression toktx.Compression) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}

	name := toktx.BaseNameNoExt(input) + backend.Ext()
	if compression == toktx.CompressionZstd {
		name += ".zst"
	}

	return filepath.Join(dir, name)
}

func runConvert(cmd *cobra.Command, g *globalOptions, o *convertOptions, input string) error {
	log := newReporter(cmd, g)

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	o.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, _ := cfg.Encode.TargetFormat()
	dim, _ := toktx.ParseBlockDim(cfg.Encode.Block)
	backend, _ := toktx.ParseBackend(cfg.Output.Container)
	compression, _ := toktx.ParseCompression(cfg.Output.Compression)
	bc := bcOptions(cfg.Encode.Quality)

	start := time.Now()

	raw, err := toktx.LoadImage(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	if cfg.Encode.Linear {
		raw.SetSRGB(false)
	}
	log.debugf("Loaded %s: %dx%d %s", input, raw.Width(), raw.Height(), raw.Layout())

	tex := toktx.NewTexture(raw)
	if cfg.Mipmaps {
		if err := tex.GenerateMipmapChain(); err != nil {
			return fmt.Errorf("generate mipmaps: %w", err)
		}
		log.debugf("Generated %d mipmap levels", tex.Levels())
	}

	if format != toktx.FormatUnknown {
		opts := &toktx.ConvertOptions{
			ASTC: &toktx.ASTCOptions{
				BlockDim: dim,
				Threads:  cfg.Encode.Threads,
				Linear:   cfg.Encode.Linear,
			},
			BC: bc,
		}
		if err := tex.Convert(format, opts); err != nil {
			return fmt.Errorf("convert to %s: %w", format, err)
		}
		log.debugf("Converted to %s", format)
	}

	c, err := toktx.NewContainerFromTexture(tex)
	if err != nil {
		return err
	}

	out := o.output
	if out == "" {
		out = outputPath(input, cfg.Output.Dir, backend, compression)
	}

	err = c.Save(out, &toktx.SaveOptions{
		Backend:     backend,
		Compression: compression,
		BC:          bc,
	})
	if err != nil {
		return err
	}

	log.debugf("Wrote %d levels in %s", c.LevelCount(), time.Since(start).Round(time.Millisecond))
	log.infof("Saved [%s]", out)

	return nil
}
