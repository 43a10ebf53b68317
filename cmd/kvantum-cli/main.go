// Package main provides the entry point for kvantum-cli.
//
// kvantum-cli is the command-line management tool for kvantum-server. It
// talks to the server's local management socket, or to the admin HTTP
// endpoint for read-only status.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/kvantum-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
