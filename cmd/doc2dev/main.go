// Package main provides the entry point for the doc2dev CLI.
package main

import (
	"fmt"
	"os"

	"github.com/doc2dev/doc2dev/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
