// Package main provides the annbench CLI.
//
// Usage:
//
//	annbench [flags] <command>
//
// Commands:
//
//	run    - build each configured index and sweep its search breadth
//	serve  - expose one adapter over HTTP for a remote harness
//
// Configuration is read from annbench.yaml in the working directory, or from
// the file named by --config.
package main

import (
	"fmt"
	"os"

	"annbench/cmd/annbench/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
