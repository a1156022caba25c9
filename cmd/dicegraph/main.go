// Command dicegraph rolls, folds, logs and replays dice expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dicegraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
