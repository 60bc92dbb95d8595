// Package main is the entry point for the planctl CLI tool.
package main

import (
	"os"

	"plancore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
