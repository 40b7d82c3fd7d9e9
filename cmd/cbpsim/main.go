// Package main provides the cbpsim command line.
//
// cbpsim replays a binary instruction trace through the timing model of an
// out-of-order core and prints a report of the run.
package main

import (
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
