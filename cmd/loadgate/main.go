package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"loadgate/internal/services"
)

func main() {
	loadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, cmdCtx := buildRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if shutdownErr := cmdCtx.shutdown(context.Background()); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "warning: flush traces: %v\n", shutdownErr)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(services.ExitCode(err))
	}
}

// loadDotEnv reads ./.env without overriding variables already set by CI.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: ignoring .env: %v\n", err)
	}
}
