package main

import (
	"context"
	"os"

	"github.com/idilsaglam/cart/internal/cli"
	"github.com/idilsaglam/cart/internal/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())

	// Hand the args to the CLI runner; it owns flags and subcommands.
	code := cli.Run(ctx, os.Args[1:], cli.Options{})
	cancel()
	os.Exit(code)
}
