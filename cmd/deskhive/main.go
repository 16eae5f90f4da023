// Package main is the entry point for the deskhive CLI.
package main

import (
	"os"

	"github.com/deskhive/deskhive/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
