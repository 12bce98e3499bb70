package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cirruslabs/vmpower/internal/command"
	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/pterm/pterm"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Set up a signal-interruptible context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Run the command
	if err := command.NewRootCmd().ExecuteContext(ctx); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(exitcode.Message(err))

		return exitcode.FromError(err)
	}

	return exitcode.Success
}
