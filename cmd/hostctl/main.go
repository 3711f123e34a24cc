// Command hostctl is a thin demonstration binary that exercises the
// host abstraction core end-to-end: resolve an alias against a hosts
// document, stage files, and run a command.
package main

import (
	"fmt"
	"os"

	"github.com/sosgo/hostcore/internal/hostcli"
)

func main() {
	if err := hostcli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
