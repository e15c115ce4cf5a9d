package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

var (
	versionsShowJSON    bool
	versionsChangesJSON bool
	versionsCompareJSON bool
	versionsShowContent bool
)

// contentPreviewLength bounds how much version content `versions show`
// prints without --content.
const contentPreviewLength = 300

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Inspect recorded versions and their changes",
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [version-id]",
	Short: "Show one recorded version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsShow,
}

var versionsChangesCmd = &cobra.Command{
	Use:   "changes [version-id]",
	Short: "Show the changes adjacent to a version",
	Long: `Shows the change records touching a version: the change that produced
it from its predecessor, and the change leading to its successor when
one exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersionsChanges,
}

var versionsCompareCmd = &cobra.Command{
	Use:   "compare [version-id-a] [version-id-b]",
	Short: "Compare two versions by their stored vectors",
	Long: `Computes the cosine similarity of the vectors retained for two
versions. Versions embedded by different models are compared when their
dimensions agree, but the score is flagged as unreliable.`,
	Args: cobra.ExactArgs(2),
	RunE: runVersionsCompare,
}

func init() {
	versionsShowCmd.Flags().BoolVar(&versionsShowJSON, "json", false, "output as JSON")
	versionsShowCmd.Flags().BoolVar(&versionsShowContent, "content", false, "print the full stored content")
	versionsChangesCmd.Flags().BoolVar(&versionsChangesJSON, "json", false, "output as JSON")
	versionsCompareCmd.Flags().BoolVar(&versionsCompareJSON, "json", false, "output as JSON")
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsChangesCmd)
	versionsCmd.AddCommand(versionsCompareCmd)
	rootCmd.AddCommand(versionsCmd)
}

func runVersionsShow(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	v, err := queryService.GetVersion(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting version: %w", err)
	}

	if versionsShowJSON {
		return outputJSON(cmd, v)
	}

	cmd.Printf("Version %s\n", v.ID)
	cmd.Printf("  Standard:  %s\n", v.StandardID)
	cmd.Printf("  Number:    v%d\n", v.VersionNumber)
	cmd.Printf("  Date:      %s\n", v.VersionDate.Format(time.RFC3339))
	cmd.Printf("  Hash:      %s\n", v.ContentHash)
	cmd.Printf("  Model:     %s\n", v.EmbeddingModel())
	cmd.Printf("  Vector:    %d dims\n", len(v.Embedding))

	content := v.Content
	if !versionsShowContent && len(content) > contentPreviewLength {
		content = content[:contentPreviewLength] + "... (use --content for the full text)"
	}
	if content != "" {
		cmd.Printf("\n%s\n", content)
	}
	return nil
}

func runVersionsChanges(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	changes, err := queryService.GetChangesForVersion(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting changes: %w", err)
	}

	if versionsChangesJSON {
		return outputJSON(cmd, changes)
	}

	if len(changes) == 0 {
		cmd.Println("No changes recorded; this is the only version of its standard.")
		return nil
	}

	cmd.Printf("Changes for %s:\n\n", args[0])
	for i := range changes {
		printChange(cmd, &changes[i])
	}
	return nil
}

func runVersionsCompare(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	result, err := queryService.CompareVersions(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("comparing versions: %w", err)
	}

	if versionsCompareJSON {
		return outputJSON(cmd, result)
	}

	cmd.Printf("Similarity of %s and %s: %.4f\n", result.VersionA, result.VersionB, result.Score)
	if result.CrossModel {
		cmd.Printf("Warning: vectors come from different embedding models (%s vs %s); the score is unreliable.\n",
			result.ModelA, result.ModelB)
	} else {
		cmd.Printf("Embedding model: %s\n", result.ModelA)
	}
	return nil
}

// printChange writes one change record with its summary details.
func printChange(cmd *cobra.Command, chg *domain.Change) {
	cmd.Printf("  [%s] %s -> %s\n", chg.ID, chg.FromVersionID, chg.ToVersionID)
	cmd.Printf("      Similarity: %.4f  Magnitude: %s\n", chg.SimilarityScore, chg.Summary.Magnitude)
	if chg.Summary.Description != "" {
		cmd.Printf("      %s\n", chg.Summary.Description)
	}
	for _, detail := range chg.Summary.Details {
		cmd.Printf("      - %s: %s\n", detail.Type, detail.Description)
	}
	cmd.Println()
}
