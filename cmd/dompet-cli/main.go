// Package main is the entry point for the dompet CLI.
package main

import (
	"os"

	"dompet/cmd/dompet-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
