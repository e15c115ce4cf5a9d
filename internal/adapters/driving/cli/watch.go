package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the periodic fetch scheduler in the foreground",
	Long: `Starts the scheduler and blocks, fetching the configured sources on
the configured interval (default every 24h). Task state survives
restarts, so an overdue fetch runs immediately on startup.

Interrupt (Ctrl+C) to stop; in-flight fetches finish first.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching configured sources. Interrupt to stop.")

	err := schedulerService.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	cmd.Println("Stopping...")
	if err := schedulerService.Stop(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	cmd.Println("Stopped.")
	return nil
}
