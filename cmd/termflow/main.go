// Command termflow runs term-stream operators from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lguimbarda/termflow/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported() {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
