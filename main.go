// Package main provides the entry point for cbpsim.
// cbpsim is a trace-driven timing simulator of an out-of-order core.
//
// For the full CLI, use: go run ./cmd/cbpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cbpsim - trace-driven out-of-order core simulator")
	fmt.Println("")
	fmt.Println("Usage: cbpsim run [flags] <trace.gz>")
	fmt.Println("       cbpsim config")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cbpsim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cbpsim' instead.")
	}
}
