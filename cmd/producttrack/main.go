package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/producttrack/producttrack/internal/cmd"
	"github.com/producttrack/producttrack/internal/exitcode"
	"github.com/producttrack/producttrack/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprintln(os.Stderr, ux.RenderError(ux.EnhanceError(err), os.Getenv("NO_COLOR") != ""))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
