// Package main provides the snipcheck CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/snipcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
