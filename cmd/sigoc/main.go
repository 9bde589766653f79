// Package main provides the entry point for the sigoc CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sigoc/sigoc-go/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
