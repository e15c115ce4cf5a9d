package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

var (
	ingestTitle string
	ingestURL   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Submit one document for a version decision",
	Long: `Reads a document from a file (or stdin with "-"), embeds it, and
submits it to the tracker, printing the decision: duplicate, new
version of an existing standard, or new standard.

Useful for testing what the tracker would make of a document without
running a full fetch cycle.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "source URL recorded on the version")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrch == nil {
		return errors.New("ingest service not configured")
	}

	text, title, err := readIngestInput(cmd, args[0])
	if err != nil {
		return err
	}
	if ingestTitle != "" {
		title = ingestTitle
	}

	doc := domain.FetchedDocument{
		Title:     title,
		SourceURL: ingestURL,
		Text:      text,
		Source:    "manual",
		FetchedAt: time.Now().UTC(),
	}

	decision, err := ingestOrch.IngestDocument(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if decision == nil {
		cmd.Println("Document skipped: content below the minimum tracked length.")
		return nil
	}

	switch decision.Kind {
	case domain.DecisionDuplicate:
		cmd.Printf("Duplicate: matches the latest version [%s] of standard %s.\n",
			decision.VersionID, decision.StandardID)
	case domain.DecisionNewVersion:
		cmd.Printf("New version [%s] of standard %s recorded (similarity %.4f, change %s).\n",
			decision.VersionID, decision.StandardID, decision.SimilarityScore, decision.ChangeID)
	case domain.DecisionNewStandard:
		cmd.Printf("New standard %s created with first version [%s].\n",
			decision.StandardID, decision.VersionID)
	}
	return nil
}

// readIngestInput loads the document text from a file, or stdin for "-".
func readIngestInput(cmd *cobra.Command, path string) (text, title string, err error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), filepath.Base(path), nil
}
