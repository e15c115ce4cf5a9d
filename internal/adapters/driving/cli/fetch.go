package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one fetch cycle over the configured sources",
	Long: `Fetches every configured standards source once, embeds the documents
that come back, and records them. Exact duplicates are dropped, close
matches become new versions of their standard, and unrecognised
documents start new standards.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	if ingestOrch == nil {
		return errors.New("ingest service not configured")
	}

	cmd.Println("Fetching configured sources...")

	status, err := fetchWithProgress(cmd.Context(), cmd, ingestOrch)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	cmd.Printf("\rProcessed %d documents: %d new standards, %d new versions, %d duplicates, %d skipped.\n",
		status.DocumentsProcessed, status.NewStandards, status.NewVersions,
		status.Duplicates, status.Skipped)
	if status.ErrorCount > 0 {
		cmd.Printf("%d documents failed; run with --verbose for details.\n", status.ErrorCount)
	}
	return nil
}

// fetchWithProgress runs the cycle while displaying progress updates.
func fetchWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.IngestOrchestrator,
) (*driving.IngestStatus, error) {
	type outcome struct {
		status *driving.IngestStatus
		err    error
	}

	// Run the cycle in a goroutine so we can poll its status
	resCh := make(chan outcome, 1)
	go func() {
		status, err := orch.RunCycle(ctx)
		resCh <- outcome{status: status, err: err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			return res.status, res.err
		case <-ticker.C:
			status := orch.Status()
			if status != nil && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessing... %d documents", status.DocumentsProcessed)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}
