// Package main is the entry point for the sandboxtest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sandboxtest/sandboxtest/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFromError(err))
	}
}
