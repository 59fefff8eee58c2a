// Package cli implements the toktx command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by `toktx version`.
func SetVersion(v string) {
	version = v
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// reporter prints progress lines to stderr.
type reporter struct {
	w       io.Writer
	verbose bool
	quiet   bool
}

func newReporter(cmd *cobra.Command, g *globalOptions) reporter {
	return reporter{w: cmd.ErrOrStderr(), verbose: g.verbose, quiet: g.quiet}
}

// infof prints unless --quiet is set.
func (r reporter) infof(format string, args ...any) {
	if r.quiet {
		return
	}
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

// debugf prints only with --verbose.
func (r reporter) debugf(format string, args ...any) {
	if r.quiet || !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

// NewRootCmd builds the toktx command tree. The root command converts an
// image into a texture container.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}
	conv := &convertOptions{}

	root := &cobra.Command{
		Use:   "toktx [flags] <image>",
		Short: "Convert images to KTX and EDDS texture containers",
		Long: `toktx converts an image into a GPU texture container.

The output file is named after the input and written next to it, or to
output.dir from the config file. Without -c the source pixels are stored as is.

Examples:
  toktx wall.png
  toktx --mipmaps -c astc --block 6x6 wall.png
  toktx --mipmaps -c dxt5 --container edds wall.png
  toktx -c astc --zstd -o wall.ktx.zst wall.png`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g, conv, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.toktx/config.yaml)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "print errors only")

	conv.bindFlags(root)

	root.AddCommand(
		newDecodeCmd(g),
		newInfoCmd(g),
		newCompareCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)

	return root
}

// Execute runs the command line with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "toktx %s\n", version)
		},
	}
}
