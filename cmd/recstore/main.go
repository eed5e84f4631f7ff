// Command recstore loads JSON-lines files into typed record stores and
// inspects their checkpoints.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/recstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
