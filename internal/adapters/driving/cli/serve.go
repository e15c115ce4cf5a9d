package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
	Long: `Starts an HTTP server exposing tracked standards, version histories,
changes, and search as JSON under /api/v1. Prometheus metrics are
served at /metrics.

The API is strictly read-only; mutating requests are rejected. Run
'vigil watch' alongside it to keep the data fresh.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from serve.addr, else "+httpapi.DefaultAddr+")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	addr := serveAddr
	if addr == "" && configStore != nil {
		addr = configStore.GetString("serve.addr")
	}
	if addr == "" {
		addr = httpapi.DefaultAddr
	}

	server, err := httpapi.NewServer(
		httpapi.Ports{Query: queryService},
		httpapi.Config{Addr: addr},
		appMetrics,
		appLogger,
	)
	if err != nil {
		return fmt.Errorf("building api server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Serving HTTP API on %s. Interrupt to stop.\n", addr)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("api server failed: %w", err)
	}
	cmd.Println("Stopped.")
	return nil
}
