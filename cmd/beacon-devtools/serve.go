package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/beacon-dev/beacon/pkg/devtools"
	"github.com/beacon-dev/beacon/pkg/metrics"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		historySize int
		demo        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inspector server",
		Long: `Start the inspector HTTP server.

With --demo, a small signal graph runs inside the process so the
inspector has something to show: a session signal refreshed on a slow
ticker and an orders signal derived from it, loaded through guarded
operations that occasionally fail.

Examples:
  beacon-devtools serve
  beacon-devtools serve --addr=:9000 --history=1024
  beacon-devtools serve --demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, historySize, demo, metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":7433", "Address to listen on")
	cmd.Flags().IntVar(&historySize, "history", 256, "Number of events to retain")
	cmd.Flags().BoolVar(&demo, "demo", false, "Run the built-in demo signal graph")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled if empty)")

	return cmd
}

func runServe(addr string, historySize int, demo bool, metricsAddr string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inspector := devtools.New(
		devtools.WithLogger(logger),
		devtools.WithHistorySize(historySize),
	)

	if demo {
		demoGraph := startDemo(ctx, logger, inspector, metricsCollector(metricsAddr, logger))
		defer demoGraph.Dispose()
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: inspector.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		inspector.Close()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// metricsCollector starts a Prometheus endpoint when addr is set and
// returns the collector to attach to the demo graph, nil otherwise.
func metricsCollector(addr string, logger *slog.Logger) *metrics.Collector {
	if addr == "" {
		return nil
	}

	col := metrics.New(metrics.WithNamespace("beacon_devtools"))
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return col
}
