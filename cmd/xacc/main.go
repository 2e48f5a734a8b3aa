// Command xacc compiles, decomposes, embeds and runs quantum programs
// written in CUE.
package main

import (
	"os"

	"github.com/roach88/xacc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
