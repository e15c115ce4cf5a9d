package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

var (
	standardsFilter      string
	standardsListJSON    bool
	standardsShowJSON    bool
	standardsHistoryJSON bool
)

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Inspect tracked standards",
	Long: `Lists and inspects the standards vigil is tracking, including the
full version history recorded for each.`,
	RunE: runStandardsList,
}

var standardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked standards",
	Args:  cobra.NoArgs,
	RunE:  runStandardsList,
}

var standardsShowCmd = &cobra.Command{
	Use:   "show [standard-id]",
	Short: "Show one standard",
	Args:  cobra.ExactArgs(1),
	RunE:  runStandardsShow,
}

var standardsHistoryCmd = &cobra.Command{
	Use:   "history [standard-id]",
	Short: "Show a standard's version history",
	Args:  cobra.ExactArgs(1),
	RunE:  runStandardsHistory,
}

func init() {
	standardsCmd.PersistentFlags().StringVar(&standardsFilter, "filter", "", "keyword filter on name and description")
	standardsListCmd.Flags().BoolVar(&standardsListJSON, "json", false, "output as JSON")
	standardsShowCmd.Flags().BoolVar(&standardsShowJSON, "json", false, "output as JSON")
	standardsHistoryCmd.Flags().BoolVar(&standardsHistoryJSON, "json", false, "output as JSON")
	standardsCmd.AddCommand(standardsListCmd)
	standardsCmd.AddCommand(standardsShowCmd)
	standardsCmd.AddCommand(standardsHistoryCmd)
	rootCmd.AddCommand(standardsCmd)
}

func runStandardsList(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	standards, err := queryService.ListStandards(cmd.Context(), standardsFilter)
	if err != nil {
		return fmt.Errorf("listing standards: %w", err)
	}

	if standardsListJSON {
		return outputJSON(cmd, standards)
	}

	if len(standards) == 0 {
		cmd.Println("No standards tracked yet. Run 'vigil fetch' to start.")
		return nil
	}

	cmd.Printf("Standards (%d):\n\n", len(standards))
	for i := range standards {
		printStandard(cmd, &standards[i])
	}
	return nil
}

func runStandardsShow(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	std, err := queryService.GetStandard(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting standard: %w", err)
	}

	if standardsShowJSON {
		return outputJSON(cmd, std)
	}

	printStandard(cmd, std)
	if std.SourceURL != "" {
		cmd.Printf("      Source: %s\n", std.SourceURL)
	}
	cmd.Printf("      First seen: %s\n", std.CreatedAt.Format(time.RFC3339))
	return nil
}

func runStandardsHistory(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	versions, err := queryService.GetVersionHistory(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting version history: %w", err)
	}

	if standardsHistoryJSON {
		return outputJSON(cmd, versions)
	}

	if len(versions) == 0 {
		cmd.Println("No versions recorded.")
		return nil
	}

	cmd.Printf("Version history for %s (%d versions):\n\n", args[0], len(versions))
	for i := range versions {
		v := &versions[i]
		cmd.Printf("  v%d  [%s]  %s\n", v.VersionNumber, v.ID, v.VersionDate.Format("2006-01-02"))
		cmd.Printf("      Hash: %.16s  Model: %s\n", v.ContentHash, v.EmbeddingModel())
	}
	return nil
}

// printStandard writes one standard in the two-line list format.
func printStandard(cmd *cobra.Command, std *domain.Standard) {
	cmd.Printf("  [%s] %s\n", std.ID, std.Name)
	if std.Description != "" {
		cmd.Printf("      %s\n", std.Description)
	}
	cmd.Printf("      Updated: %s\n", std.UpdatedAt.Format(time.RFC3339))
	cmd.Println()
}

// outputJSON marshals any value as indented JSON to the command output.
func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
