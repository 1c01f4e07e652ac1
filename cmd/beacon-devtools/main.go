package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "beacon-devtools",
		Short: "Live inspector for Beacon signal graphs",
		Long: `beacon-devtools serves a live HTTP inspector for Beacon signal graphs.

Wire the inspector into your application as an observer, or run the
built-in demo graph to watch signals move between busy, success, and
error in real time.

Endpoints:
  GET /signals   live signal table (JSON)
  GET /history   recent events (JSON)
  GET /events    event stream (WebSocket)
  GET /healthz   liveness probe`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
