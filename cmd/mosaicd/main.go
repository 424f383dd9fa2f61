// Package main is the entry point for mosaicd, the reference navigation
// backend for the Mosaic browser.
package main

import (
	"fmt"
	"os"

	"github.com/tOgg1/mosaic/internal/daemon"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := daemon.Execute(fmt.Sprintf("%s (%s, %s)", version, commit, date)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
