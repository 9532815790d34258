package main

import (
	"os"

	"symonectl/internal/cli"
)

// symone is the command-line client for the Symone gateway. Session and
// workspace state persist between runs in the configured state backend
// (a JSON file by default, or SQLite / PostgreSQL).
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
