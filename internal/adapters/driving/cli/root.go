// Package cli implements the vigil command-line interface.
//
// Commands run against package-level service references wired by the
// entrypoint before Execute. Commands nil-check what they use so a
// partially wired binary fails with a clear message instead of a panic.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vigil-cli/internal/metrics"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Service references the commands run against.
var (
	queryService     driving.QueryService
	ingestOrch       driving.IngestOrchestrator
	schedulerService driving.Scheduler
	configStore      driven.ConfigStore
	appMetrics       *metrics.Metrics
	appLogger        zerolog.Logger
)

// Services bundles the implementations the commands need.
type Services struct {
	Query     driving.QueryService
	Ingest    driving.IngestOrchestrator
	Scheduler driving.Scheduler
	Config    driven.ConfigStore
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// SetServices wires the commands to their service implementations.
func SetServices(s Services) {
	queryService = s.Query
	ingestOrch = s.Ingest
	schedulerService = s.Scheduler
	configStore = s.Config
	appMetrics = s.Metrics
	appLogger = s.Logger
}

// SetVersion records the build version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Track versions of security standards and frameworks",
	Long: `Vigil watches published security standards (NIST CSF, ISO 27001,
PCI DSS, ...) and records every version it observes.

Fetched documents are fingerprinted and compared against known standards
by embedding similarity: exact matches are dropped as duplicates, close
matches are recorded as new versions with a change record, and anything
unrecognised starts a new standard.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Loggers are built at debug level; the global level gates what
		// actually gets emitted.
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
