package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

var (
	searchLimit    int
	searchSemantic bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search tracked standards",
	Long: `Searches tracked standards by keyword over names, descriptions, and
version metadata. With --semantic the query is embedded and matched
against stored version content by vector similarity instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "vector search over version content")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	opts := domain.SearchOptions{
		Limit:    searchLimit,
		Semantic: searchSemantic,
	}

	results, err := queryService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		name := results[i].Standard.Name
		if name == "" {
			name = results[i].Standard.ID
		}

		if results[i].Score > 0 {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, name, results[i].Score)
		} else {
			cmd.Printf("  [%d] %s\n", i+1, name)
		}
		cmd.Printf("      Standard: %s\n", results[i].Standard.ID)
		if v := results[i].Version; v != nil {
			cmd.Printf("      Matched: v%d [%s]\n", v.VersionNumber, v.ID)
		}
		cmd.Println()
	}

	return nil
}
