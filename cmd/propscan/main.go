// Package main is the entry point for the propscan CLI.
package main

import (
	"os"

	"github.com/mlibrea/propscan/cmd/propscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
