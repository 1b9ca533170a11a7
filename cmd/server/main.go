// Command codinggeeks runs the Coding Geeks API.
//
//	codinggeeks              same as "serve"
//	codinggeeks serve        start the HTTP server
//	codinggeeks migrate up   apply pending schema migrations
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "codinggeeks",
	Short:        "Coding Geeks API server",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	// Only used to cancel startup work (store connect, migrations); the
	// server installs its own shutdown handling once it is running.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
