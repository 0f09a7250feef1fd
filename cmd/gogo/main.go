// Command gogo is the command line client for the session service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaot623/gogo/sdk/internal/cli/commands"
	"github.com/xiaot623/gogo/sdk/internal/cli/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		ui.Error(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
