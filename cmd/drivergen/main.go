package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/goliatone/go-drivergen/internal/cli"
	"github.com/goliatone/go-drivergen/pkg/commands/root"
)

var (
	version string = "snapshot"
	commit  string = "unknown"
	date    string = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := root.New()
	rootCmd.Version = fmt.Sprintf("%s-%s (built %s)", version, commit, date)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.Trace(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
