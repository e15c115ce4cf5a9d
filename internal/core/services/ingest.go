package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vigil-cli/internal/metrics"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestOrchestrator = (*Ingestor)(nil)

// IngestConfig controls a fetch cycle.
type IngestConfig struct {
	// Sources are the standards bodies to poll each cycle.
	Sources []domain.StandardSource

	// MaxResultsPerSource caps how many documents each fetcher may
	// return for a single source.
	MaxResultsPerSource int

	// MinContentLength is the shortest document text worth tracking.
	// Shorter fetches are skipped.
	MinContentLength int

	// Concurrency bounds how many source fetches run at once.
	Concurrency int
}

// DefaultIngestConfig returns the standard cycle settings.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Sources:             domain.DefaultStandardSources(),
		MaxResultsPerSource: 5,
		MinContentLength:    100,
		Concurrency:         4,
	}
}

// Ingestor runs fetch cycles: it polls the configured sources through
// every registered fetcher, embeds what comes back, submits each
// document to the tracker, and hands accepted versions to the search
// index. One cycle runs at a time.
type Ingestor struct {
	fetchers []driven.Fetcher
	embedder driven.EmbeddingService
	tracker  driving.TrackerService
	index    driven.SearchIndex
	metrics  *metrics.Metrics
	cfg      IngestConfig
	log      zerolog.Logger

	mu     sync.Mutex
	status driving.IngestStatus
}

// NewIngestor creates an ingest orchestrator. Index is optional; with a
// nil index accepted versions are simply not indexed. Metrics may be
// nil.
func NewIngestor(
	fetchers []driven.Fetcher,
	embedder driven.EmbeddingService,
	tracker driving.TrackerService,
	index driven.SearchIndex,
	m *metrics.Metrics,
	cfg IngestConfig,
	log zerolog.Logger,
) (*Ingestor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestor requires an embedding service: %w", domain.ErrInvalidInput)
	}
	if tracker == nil {
		return nil, fmt.Errorf("ingestor requires a tracker: %w", domain.ErrInvalidInput)
	}
	if cfg.MaxResultsPerSource <= 0 {
		cfg.MaxResultsPerSource = 5
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Ingestor{
		fetchers: fetchers,
		embedder: embedder,
		tracker:  tracker,
		index:    index,
		metrics:  m,
		cfg:      cfg,
		log:      log,
	}, nil
}

// RunCycle fetches every configured source once and processes the
// results. Per-document failures are counted in the returned status,
// not returned as errors; only cancellation or a cycle already in
// flight fail the call.
func (s *Ingestor) RunCycle(ctx context.Context) (*driving.IngestStatus, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	started := time.Now()
	s.log.Info().
		Int("sources", len(s.cfg.Sources)).
		Int("fetchers", len(s.fetchers)).
		Msg("starting ingest cycle")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, source := range s.cfg.Sources {
		for _, fetcher := range s.fetchers {
			g.Go(func() error {
				return s.fetchOne(ctx, fetcher, source)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest cycle: %w", err)
	}

	status := s.Status()
	if s.metrics != nil {
		s.metrics.IngestCycleSeconds.Observe(time.Since(started).Seconds())
	}
	s.log.Info().
		Int("processed", status.DocumentsProcessed).
		Int("new_standards", status.NewStandards).
		Int("new_versions", status.NewVersions).
		Int("duplicates", status.Duplicates).
		Int("skipped", status.Skipped).
		Int("errors", status.ErrorCount).
		Dur("elapsed", time.Since(started)).
		Msg("ingest cycle complete")
	return status, nil
}

// fetchOne pulls a single source through a single fetcher and ingests
// whatever comes back. Fetch failures are counted and logged so the
// rest of the cycle can proceed.
func (s *Ingestor) fetchOne(ctx context.Context, fetcher driven.Fetcher, source domain.StandardSource) error {
	docs, err := fetcher.Fetch(ctx, source, s.cfg.MaxResultsPerSource)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.countError()
		s.log.Warn().
			Str("fetcher", fetcher.Name()).
			Str("source", source.Name).
			Err(err).
			Msg("fetch failed")
		return nil
	}

	if s.metrics != nil {
		s.metrics.DocumentsFetched.WithLabelValues(fetcher.Name()).Add(float64(len(docs)))
	}

	for _, doc := range docs {
		if _, err := s.IngestDocument(ctx, doc); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.countError()
			s.log.Warn().
				Str("fetcher", fetcher.Name()).
				Str("source_url", doc.SourceURL).
				Err(err).
				Msg("ingest failed")
		}
	}
	return nil
}

// IngestDocument embeds one fetched document and submits it to the
// tracker. Returns the tracker's decision, or nil when the document was
// skipped before submission.
func (s *Ingestor) IngestDocument(ctx context.Context, doc domain.FetchedDocument) (*domain.Decision, error) {
	text := strings.TrimSpace(doc.Text)
	if len(text) < s.cfg.MinContentLength {
		s.countSkip()
		if s.metrics != nil {
			s.metrics.DocumentsSkipped.Inc()
		}
		s.log.Debug().
			Str("source_url", doc.SourceURL).
			Int("length", len(text)).
			Msg("skipping short document")
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.countSkip()
		if s.metrics != nil {
			s.metrics.DocumentsSkipped.Inc()
		}
		return nil, fmt.Errorf("embedding document: %w", err)
	}

	cand := domain.Candidate{
		Name:      doc.Title,
		SourceURL: doc.SourceURL,
		Text:      text,
		Vector:    vector,
		Metadata: map[string]any{
			domain.MetaFetchMethod: doc.Source,
		},
		ObservedAt: doc.FetchedAt,
	}

	decision, err := s.tracker.AddVersion(ctx, cand)
	if err != nil {
		return nil, fmt.Errorf("tracking document: %w", err)
	}

	s.countDecision(decision.Kind)
	if s.metrics != nil {
		s.metrics.RecordDecision(decision.Kind.String())
	}

	if s.index != nil && decision.Kind != domain.DecisionDuplicate {
		s.indexVersion(ctx, decision, cand)
	}
	return decision, nil
}

// indexVersion hands an accepted version to the search index. Index
// failures never fail ingestion.
func (s *Ingestor) indexVersion(ctx context.Context, decision *domain.Decision, cand domain.Candidate) {
	entry := driven.IndexEntry{
		VersionID:  decision.VersionID,
		StandardID: decision.StandardID,
		Content:    cand.Text,
		Embedding:  cand.Vector,
		Metadata: map[string]any{
			"standard_name": cand.Name,
			"source_url":    cand.SourceURL,
			"version_date":  cand.ObservedAt,
		},
	}
	if err := s.index.Index(ctx, entry); err != nil {
		s.log.Warn().
			Str("version_id", decision.VersionID).
			Err(err).
			Msg("search index update failed")
	}
}

// Status returns a copy of the in-flight or most recent cycle state.
func (s *Ingestor) Status() *driving.IngestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.status
	return &status
}

// begin marks a cycle as running, rejecting overlap.
func (s *Ingestor) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return fmt.Errorf("ingest cycle already running: %w", domain.ErrConflict)
	}
	s.status = driving.IngestStatus{Running: true, StartedAt: time.Now()}
	return nil
}

// end marks the current cycle as finished.
func (s *Ingestor) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.EndedAt = time.Now()
}

func (s *Ingestor) countDecision(kind domain.DecisionKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.DocumentsProcessed++
	switch kind {
	case domain.DecisionNewStandard:
		s.status.NewStandards++
	case domain.DecisionNewVersion:
		s.status.NewVersions++
	case domain.DecisionDuplicate:
		s.status.Duplicates++
	}
}

func (s *Ingestor) countSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Skipped++
}

func (s *Ingestor) countError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.ErrorCount++
}
