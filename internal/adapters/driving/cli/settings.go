package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// settingsKeys are the recognised configuration keys, in display order.
var settingsKeys = []struct {
	key  string
	desc string
}{
	{"tracker.similarity_threshold", "minimum similarity for a new version (default 0.75)"},
	{"tracker.minor_band", "upper bound of the minor change band (default 0.1)"},
	{"tracker.moderate_band", "upper bound of the moderate change band (default 0.3)"},
	{"storage.data_dir", "data directory (default ~/.vigil/data)"},
	{"embedding.provider", "embedding provider, ollama or openai (default ollama)"},
	{"embedding.base_url", "embedding service base URL"},
	{"embedding.model", "embedding model name (default nomic-embed-text)"},
	{"embedding.dimensions", "embedding dimensionality (default 768)"},
	{"embedding.api_key", "embedding API key (openai provider only)"},
	{"fetch.search_endpoint", "web search API endpoint"},
	{"fetch.api_key", "web search API key"},
	{"fetch.max_results", "maximum results per source query (default 5)"},
	{"fetch.min_content_length", "shortest document worth tracking (default 100)"},
	{"fetch.github_repos", `github sources as "Source Name=owner/repo" entries`},
	{"fetch.github_token", "github access token (optional, raises rate limits)"},
	{"llm.enabled", "describe changes with an LLM (default false)"},
	{"llm.provider", "LLM provider: anthropic, ollama or openai (default anthropic)"},
	{"llm.api_key", "LLM provider API key"},
	{"llm.model", "LLM model name"},
	{"serve.addr", "HTTP API listen address (default :8799)"},
	{"scheduler.fetch_interval", "time between scheduled fetches (default 24h)"},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage vigil configuration",
	Long: `View and change configuration keys stored in the vigil config file.
Values set here take effect the next time vigil starts.`,
	RunE: runSettingsList,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration keys and their values",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and saves the config file immediately.
Values parse as bool, int, or float when they look like one; everything
else is stored as a string. Repeated values (like fetch.github_repos)
are comma-separated.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Configuration (%s):\n\n", configStore.Path())
	for _, entry := range settingsKeys {
		val, ok := configStore.Get(entry.key)
		display := "(not set)"
		if ok {
			display = formatSettingValue(entry.key, val)
		}
		cmd.Printf("  %-28s %s\n", entry.key, display)
		cmd.Printf("  %-28s %s\n", "", entry.desc)
		cmd.Println()
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		cmd.Println("(not set)")
		return nil
	}
	cmd.Printf("%v\n", val)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseSettingValue(key, raw)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

// parseSettingValue converts the raw CLI string into the most specific
// value the config can hold.
func parseSettingValue(key, raw string) any {
	// List-valued keys split on commas
	if strings.HasSuffix(key, "github_repos") {
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}

	if b, err := strconv.ParseBool(raw); err == nil && isBoolish(raw) {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// isBoolish restricts bool parsing to the spellings a user would mean
// as a bool; ParseBool alone would also eat "1" and "0".
func isBoolish(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "false":
		return true
	default:
		return false
	}
}

// formatSettingValue renders a value for display, masking secrets.
func formatSettingValue(key string, val any) string {
	if strings.Contains(key, "api_key") || strings.Contains(key, "token") {
		if s, ok := val.(string); ok {
			return maskAPIKey(s)
		}
	}
	return fmt.Sprintf("%v", val)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
