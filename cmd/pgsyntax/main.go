// Package main provides the pgsyntax command.
package main

import (
	"os"

	"github.com/leapstack-labs/pgsyntax/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
