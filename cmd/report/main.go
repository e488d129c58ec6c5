package main

import (
	"context"
	"os"
	"os/signal"

	"superstore-dashboard/internal/cli"
	"superstore-dashboard/internal/console"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewApp(version).ExecuteContext(ctx); err != nil {
		console.LogError("%v", err)
		os.Exit(1)
	}
}
