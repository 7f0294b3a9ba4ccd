// Package main is the entry point for the qido CLI tool.
package main

import (
	"os"

	"github.com/pacsforge/qido/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
