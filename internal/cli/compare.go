package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/woozymasta/toktx"
)

// errSizeMismatch is returned when the decoded inputs differ in size.
var errSizeMismatch = errors.New("image sizes differ")

func newCompareCmd(_ *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare the decoded pixels of two files",
		Long: `Decode both inputs to RGBA and print their mean absolute difference
and PSNR. Inputs may be images, .astc files or texture containers.

Examples:
  toktx compare wall.png wall.ktx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadDecoded(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			b, err := loadDecoded(args[1])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[1], err)
			}

			if a.Width() != b.Width() || a.Height() != b.Height() || a.Depth() != b.Depth() {
				return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", errSizeMismatch,
					a.Width(), a.Height(), a.Depth(), b.Width(), b.Height(), b.Depth())
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "diff [%.6f]\npsnr [%.2f dB]\n",
				toktx.Diff(a, b), toktx.PSNR(a, b))
			return err
		},
	}
}
