package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woozymasta/toktx"
)

// inputKind classifies a path by extension.
type inputKind int

const (
	inputImage inputKind = iota
	inputASTC
	inputContainer
)

func classify(path string) inputKind {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".zst")

	switch filepath.Ext(name) {
	case ".astc":
		return inputASTC
	case ".ktx", ".edds", ".dds":
		return inputContainer
	default:
		return inputImage
	}
}

// loadAny reads an .astc file, a texture container or a regular image and
// returns its base level.
func loadAny(path string) (toktx.Image, error) {
	switch classify(path) {
	case inputASTC:
		return toktx.LoadASTC(path, nil)
	case inputContainer:
		c, err := toktx.OpenContainer(path, nil)
		if err != nil {
			return nil, err
		}
		return c.Image()
	default:
		return toktx.LoadImage(path)
	}
}

// loadDecoded returns the RGBA pixels of any supported input.
func loadDecoded(path string) (*toktx.RawImage, error) {
	img, err := loadAny(path)
	if err != nil {
		return nil, err
	}

	raw, err := toktx.DecodeImage(img)
	if err != nil {
		return nil, err
	}
	if raw.Layout() != toktx.FormatRGBA {
		if err := raw.Convert(toktx.FormatRGBA); err != nil {
			return nil, err
		}
	}

	return raw, nil
}

func newDecodeCmd(g *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decode <texture>",
		Short: "Decode a texture to PNG",
		Long: `Decode the base level of a .astc, .ktx or .edds texture to a PNG file.

Examples:
  toktx decode wall.ktx
  toktx decode wall.astc -o preview.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = filepath.Join(filepath.Dir(input), toktx.BaseNameNoExt(strings.TrimSuffix(input, ".zst"))+".png")
			}

			raw, err := loadDecoded(input)
			if err != nil {
				return fmt.Errorf("decode %s: %w", input, err)
			}

			if err := writePNG(output, raw); err != nil {
				return err
			}

			newReporter(cmd, g).infof("Saved [%s]", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG (default <input>.png)")

	return cmd
}

func writePNG(path string, raw *toktx.RawImage) error {
	img, err := raw.NRGBA()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", toktx.ErrCreateFile, path, err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %q: %v", toktx.ErrWriteFile, path, err)
	}

	return f.Close()
}
