// Command vigil tracks versions of published security standards and
// frameworks. It wires the storage, embedding, fetch, and index
// adapters to the core services and hands them to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/fetch/github"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/fetch/websearch"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/index/brute"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vigil-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/services"
	"github.com/custodia-labs/vigil-cli/internal/logger"
	"github.com/custodia-labs/vigil-cli/internal/metrics"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Loggers are built at debug; the global level gates emission and
	// the --verbose flag raises it.
	log := logger.New(logger.Config{Level: "debug", Pretty: true})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	m := metrics.New()

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("building embedding service: %w", err)
	}
	defer embedder.Close()

	trackerCfg := buildTrackerConfig(cfg, embedder)
	detector := services.NewChangeDetector(trackerCfg, buildLLM(cfg, log), log)

	tracker, err := services.NewTracker(store.StandardStore(), detector, trackerCfg, log)
	if err != nil {
		return fmt.Errorf("building tracker: %w", err)
	}

	index := brute.NewIndex()
	if err := warmIndex(ctx, index, store.StandardStore()); err != nil {
		log.Warn().Err(err).Msg("search index warm-up failed; semantic search starts cold")
	}

	query := services.NewQuery(store.StandardStore(), index, embedder, log)

	ingestor, err := services.NewIngestor(
		buildFetchers(ctx, cfg, log),
		embedder,
		tracker,
		index,
		m,
		buildIngestConfig(cfg),
		log,
	)
	if err != nil {
		return fmt.Errorf("building ingestor: %w", err)
	}

	scheduler := services.NewScheduler(buildSchedulerConfig(cfg), store.SchedulerStore(), ingestor, log)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Query:     query,
		Ingest:    ingestor,
		Scheduler: scheduler,
		Config:    cfg,
		Metrics:   m,
		Logger:    log,
	})

	return cli.Execute()
}

// buildEmbedder constructs the configured embedding provider.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	return ai.CreateEmbeddingService(ai.EmbeddingConfig{
		Provider:   cfg.GetString("embedding.provider"),
		BaseURL:    cfg.GetString("embedding.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: cfg.GetInt("embedding.dimensions"),
		APIKey:     cfg.GetString("embedding.api_key"),
	})
}

// buildLLM constructs the optional change description service. A nil
// return means summaries stay deterministic.
func buildLLM(cfg driven.ConfigStore, log zerolog.Logger) driven.LLMService {
	if !cfg.GetBool("llm.enabled") {
		return nil
	}

	svc, err := ai.CreateAndValidateLLMService(ai.LLMConfig{
		Provider: cfg.GetString("llm.provider"),
		APIKey:   cfg.GetString("llm.api_key"),
		Model:    cfg.GetString("llm.model"),
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm disabled: service could not be built")
		return nil
	}
	return svc
}

// buildFetchers constructs every fetch source with enough configuration
// to run. A binary with no fetchers still serves queries.
func buildFetchers(ctx context.Context, cfg driven.ConfigStore, log zerolog.Logger) []driven.Fetcher {
	var fetchers []driven.Fetcher

	endpoint := cfg.GetString("fetch.search_endpoint")
	apiKey := cfg.GetString("fetch.api_key")
	if endpoint != "" && apiKey != "" {
		ws, err := websearch.NewFetcher(websearch.Config{
			Endpoint:   endpoint,
			APIKey:     apiKey,
			MaxResults: cfg.GetInt("fetch.max_results"),
		})
		if err != nil {
			log.Warn().Err(err).Msg("web search fetcher disabled")
		} else {
			fetchers = append(fetchers, ws)
		}
	}

	if repos := parseRepoEntries(cfg.GetStringSlice("fetch.github_repos")); len(repos) > 0 {
		fetchers = append(fetchers, github.NewFetcher(ctx, github.Config{
			Repos: repos,
			Token: cfg.GetString("fetch.github_token"),
		}))
	}

	if len(fetchers) == 0 {
		log.Debug().Msg("no fetchers configured; fetch and watch will find nothing")
	}
	return fetchers
}

// parseRepoEntries turns "Source Name=owner/repo" config entries into
// the fetcher's source-to-repo mapping. Malformed entries are skipped.
func parseRepoEntries(entries []string) map[string]string {
	repos := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, repo, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		repo = strings.TrimSpace(repo)
		if name == "" || repo == "" {
			continue
		}
		repos[name] = repo
	}
	return repos
}

func buildTrackerConfig(cfg driven.ConfigStore, embedder driven.EmbeddingService) domain.TrackerConfig {
	tc := domain.DefaultTrackerConfig()
	if v := cfg.GetFloat("tracker.similarity_threshold"); v > 0 {
		tc.SimilarityThreshold = v
	}
	if v := cfg.GetFloat("tracker.minor_band"); v > 0 {
		tc.Bands.Minor = v
	}
	if v := cfg.GetFloat("tracker.moderate_band"); v > 0 {
		tc.Bands.Moderate = v
	}
	tc.EmbeddingDims = embedder.Dimensions()
	tc.EmbeddingModel = embedder.ModelName()
	return tc
}

func buildIngestConfig(cfg driven.ConfigStore) services.IngestConfig {
	ic := services.DefaultIngestConfig()
	if v := cfg.GetInt("fetch.max_results"); v > 0 {
		ic.MaxResultsPerSource = v
	}
	if v := cfg.GetInt("fetch.min_content_length"); v > 0 {
		ic.MinContentLength = v
	}
	return ic
}

func buildSchedulerConfig(cfg driven.ConfigStore) domain.SchedulerConfig {
	sc := domain.DefaultSchedulerConfig()
	if d := cfg.GetDuration("scheduler.fetch_interval"); d > 0 {
		tc := sc.TaskConfigs[domain.TaskIDStandardsFetch]
		tc.Interval = d
		sc.TaskConfigs[domain.TaskIDStandardsFetch] = tc
	}
	return sc
}

// warmIndex rebuilds the in-process search index from stored versions
// so semantic search works across restarts.
func warmIndex(ctx context.Context, index driven.IndexLoader, store driven.StandardStore) error {
	standards, err := store.ListStandards(ctx)
	if err != nil {
		return err
	}

	var entries []driven.IndexEntry
	for i := range standards {
		versions, err := store.ListVersions(ctx, standards[i].ID)
		if err != nil {
			return err
		}
		for j := range versions {
			v := &versions[j]
			if len(v.Embedding) == 0 {
				continue
			}
			entries = append(entries, driven.IndexEntry{
				VersionID:  v.ID,
				StandardID: v.StandardID,
				Content:    v.Content,
				Embedding:  v.Embedding,
				Metadata: map[string]any{
					"standard_name": standards[i].Name,
					"source_url":    v.Metadata[domain.MetaSourceURL],
					"version_date":  v.VersionDate,
				},
			})
		}
	}
	return index.Load(ctx, entries)
}
