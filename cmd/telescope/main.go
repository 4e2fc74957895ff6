// Command telescope is the CLI front-end for the elaborator core: a
// thin main() deferring to pkg/cli for subcommand dispatch, in the
// same shape as the teacher's cmd/funxy/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/dtlc-lang/telescope/pkg/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Internal error: %v\nThis is a bug. Please report it.\n", r)
			os.Exit(1)
		}
	}()

	code := cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(code)
}
