// Package main is the LeapViz command-line entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapviz/internal/cli"

	// Register the target database adapters.
	_ "github.com/leapstack-labs/leapviz/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapviz/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapviz/pkg/adapters/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
