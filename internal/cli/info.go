package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/woozymasta/toktx"
)

func newInfoCmd(_ *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Describe an image, .astc file or texture container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInfo(cmd.OutOrStdout(), args[0])
		},
	}
}

func printInfo(w io.Writer, path string) error {
	switch classify(path) {
	case inputASTC:
		a, err := toktx.LoadASTC(path, nil)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n%s", path, a)
		return err

	case inputContainer:
		c, err := toktx.OpenContainer(path, nil)
		if err != nil {
			return err
		}
		return printContainer(w, path, c)

	default:
		raw, err := toktx.LoadImage(path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n  layout [%s]\n  size [%dx%d]\n  srgb [%t]\n",
			path, raw.Layout(), raw.Width(), raw.Height(), raw.SRGB())
		return err
	}
}

func printContainer(w io.Writer, path string, c *toktx.Container) error {
	_, err := fmt.Fprintf(w, "%s\n  container [%s]\n  format [%s] gl [0x%04X]\n  size [%dx%dx%d]\n  levels [%d]\n",
		path, c.Backend(), c.Format(), c.GLFormat(), c.Width(), c.Height(), c.Depth(), c.LevelCount())
	if err != nil {
		return err
	}
	if c.GenerateMipmaps() {
		if _, err := fmt.Fprintln(w, "  mipmaps [generate on load]"); err != nil {
			return err
		}
	}

	md := c.Metadata()
	for _, k := range slices.Sorted(maps.Keys(md)) {
		if _, err := fmt.Fprintf(w, "  %s [%s]\n", k, md[k]); err != nil {
			return err
		}
	}

	return nil
}
