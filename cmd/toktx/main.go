// Command toktx converts images to KTX and EDDS texture containers.
package main

import (
	"fmt"
	"os"

	"github.com/woozymasta/toktx/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
