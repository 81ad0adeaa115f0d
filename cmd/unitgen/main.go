// Command unitgen generates unit companion types for //unitgen:derive
// declarations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gork-labs/unitgen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
