package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vigil-cli/internal/fingerprint"
	"github.com/custodia-labs/vigil-cli/internal/similarity"
)

// Ensure Tracker implements the interface.
var _ driving.TrackerService = (*Tracker)(nil)

// maxParallelAdds bounds concurrent pre-selected add-version calls.
// The unselected path acquires the full weight, which makes its
// search-then-write section exclusive against every other add.
const maxParallelAdds = 64

// descriptionLimit caps the auto-derived description of a new standard.
const descriptionLimit = 200

// Tracker owns the version identity decision: duplicate, new version of
// a known standard, or first observation of a new standard. Decisions
// and their writes are serialised per standard; candidates without a
// pre-selected standard hold an exclusive scope across the whole
// search-plus-write section.
type Tracker struct {
	store    driven.StandardStore
	detector *ChangeDetector
	cfg      domain.TrackerConfig
	log      zerolog.Logger

	// scope admits pre-selected adds at weight 1 and the unselected
	// path at full weight.
	scope *semaphore.Weighted

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewTracker creates a tracker with the given persistence, change
// detection, and configuration.
func NewTracker(store driven.StandardStore, detector *ChangeDetector, cfg domain.TrackerConfig, log zerolog.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating tracker config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("standard store is required")
	}
	if detector == nil {
		return nil, fmt.Errorf("change detector is required")
	}

	return &Tracker{
		store:    store,
		detector: detector,
		cfg:      cfg,
		log:      log,
		scope:    semaphore.NewWeighted(maxParallelAdds),
		locks:    make(map[string]*semaphore.Weighted),
	}, nil
}

// AddVersion decides and durably records what the candidate is.
func (t *Tracker) AddVersion(ctx context.Context, candidate domain.Candidate) (*domain.Decision, error) {
	if strings.TrimSpace(candidate.Text) == "" {
		return nil, fmt.Errorf("candidate text is empty: %w", domain.ErrInvalidInput)
	}
	if err := t.validateVector(candidate.Vector); err != nil {
		return nil, err
	}

	if candidate.StandardID != "" {
		return t.addForStandard(ctx, candidate)
	}
	return t.addAcrossAll(ctx, candidate)
}

// addForStandard handles a candidate pre-selected for one standard.
// Holds that standard's lock for the duration of the decision and write.
func (t *Tracker) addForStandard(ctx context.Context, candidate domain.Candidate) (*domain.Decision, error) {
	if err := t.scope.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring ingest scope: %w: %w", domain.ErrConflict, err)
	}
	defer t.scope.Release(1)

	lock := t.lockFor(candidate.StandardID)
	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring standard lock: %w: %w", domain.ErrConflict, err)
	}
	defer lock.Release(1)

	latest, err := t.store.LatestVersion(ctx, candidate.StandardID)
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}

	return t.decide(ctx, candidate, []domain.Version{*latest})
}

// addAcrossAll handles a candidate with no pre-selected standard. The
// similarity search across every standard's latest version and the
// eventual write form one critical section.
func (t *Tracker) addAcrossAll(ctx context.Context, candidate domain.Candidate) (*domain.Decision, error) {
	if err := t.scope.Acquire(ctx, maxParallelAdds); err != nil {
		return nil, fmt.Errorf("acquiring exclusive ingest scope: %w: %w", domain.ErrConflict, err)
	}
	defer t.scope.Release(maxParallelAdds)

	latests, err := t.store.LatestVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest versions: %w", err)
	}

	return t.decide(ctx, candidate, latests)
}

// decide runs the identity algorithm against the supplied latest
// versions. Caller holds the locks that make the read-decide-write
// sequence exclusive for the standards involved.
func (t *Tracker) decide(ctx context.Context, candidate domain.Candidate, latests []domain.Version) (*domain.Decision, error) {
	hash := fingerprint.Fingerprint(candidate.Text)

	// Exact-duplicate short-circuit: no vector work, no writes.
	for i := range latests {
		if latests[i].ContentHash == hash {
			t.log.Debug().
				Str("standard_id", latests[i].StandardID).
				Str("version_id", latests[i].ID).
				Msg("duplicate content, skipping")
			return &domain.Decision{
				Kind:       domain.DecisionDuplicate,
				StandardID: latests[i].StandardID,
				VersionID:  latests[i].ID,
			}, nil
		}
	}

	best, bestScore, err := t.bestMatch(candidate, latests)
	if err != nil {
		return nil, err
	}

	if best != nil && bestScore >= t.cfg.SimilarityThreshold {
		return t.persistNewVersion(ctx, candidate, best, hash, bestScore)
	}
	return t.persistNewStandard(ctx, candidate, hash, bestScore)
}

// bestMatch scores the candidate against each latest version and returns
// the winner. latests arrive ordered by the owning standard's recency,
// so a strict comparison breaks score ties toward the most recently
// updated standard.
func (t *Tracker) bestMatch(candidate domain.Candidate, latests []domain.Version) (*domain.Version, float64, error) {
	var best *domain.Version
	bestScore := -1.0

	for i := range latests {
		v := &latests[i]
		if len(v.Embedding) == 0 {
			continue
		}

		if model := v.EmbeddingModel(); model != "" && t.cfg.EmbeddingModel != "" && model != t.cfg.EmbeddingModel {
			t.log.Warn().
				Str("standard_id", v.StandardID).
				Str("stored_model", model).
				Str("candidate_model", t.cfg.EmbeddingModel).
				Msg("comparing vectors from different embedding models")
		}

		score, err := similarity.Cosine(candidate.Vector, v.Embedding)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidVector) {
				// The candidate vector was validated upfront, so the
				// stored vector is the unusable side. Skip it rather
				// than miscompare.
				t.log.Warn().
					Str("standard_id", v.StandardID).
					Str("version_id", v.ID).
					Err(err).
					Msg("stored vector unusable, skipping standard")
				continue
			}
			return nil, 0, fmt.Errorf("scoring candidate: %w", err)
		}

		if score > bestScore {
			bestScore = score
			best = v
		}
	}

	if best == nil {
		return nil, 0, nil
	}
	return best, bestScore, nil
}

// persistNewVersion appends the candidate as the successor of prev and
// records the change in the same transaction.
func (t *Tracker) persistNewVersion(ctx context.Context, candidate domain.Candidate, prev *domain.Version, hash string, score float64) (*domain.Decision, error) {
	now := time.Now().UTC()
	version := &domain.Version{
		ID:            newID("v"),
		StandardID:    prev.StandardID,
		VersionNumber: prev.VersionNumber + 1,
		VersionDate:   observedAt(candidate, now),
		ContentHash:   hash,
		Content:       candidate.Text,
		Embedding:     candidate.Vector,
		Metadata:      t.versionMetadata(candidate),
		CreatedAt:     now,
	}

	change, err := t.detector.Detect(ctx, prev, version, score)
	if err != nil {
		return nil, fmt.Errorf("detecting changes: %w", err)
	}

	if err := t.store.CreateVersionWithChange(ctx, version, change); err != nil {
		return nil, fmt.Errorf("persisting version %d of %s: %w", version.VersionNumber, version.StandardID, err)
	}

	t.log.Info().
		Str("standard_id", version.StandardID).
		Str("version_id", version.ID).
		Int("version_number", version.VersionNumber).
		Float64("similarity", score).
		Str("magnitude", string(change.Summary.Magnitude)).
		Msg("new version recorded")

	return &domain.Decision{
		Kind:            domain.DecisionNewVersion,
		StandardID:      version.StandardID,
		VersionID:       version.ID,
		ChangeID:        change.ID,
		SimilarityScore: score,
	}, nil
}

// persistNewStandard creates a standard and its first version. bestScore
// is the highest score seen during the search, kept for the decision.
func (t *Tracker) persistNewStandard(ctx context.Context, candidate domain.Candidate, hash string, bestScore float64) (*domain.Decision, error) {
	now := time.Now().UTC()
	observed := observedAt(candidate, now)

	std := &domain.Standard{
		ID:          newID("std"),
		Name:        standardName(candidate),
		Description: standardDescription(candidate),
		SourceURL:   candidate.SourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	version := &domain.Version{
		ID:            newID("v"),
		StandardID:    std.ID,
		VersionNumber: 1,
		VersionDate:   observed,
		ContentHash:   hash,
		Content:       candidate.Text,
		Embedding:     candidate.Vector,
		Metadata:      t.versionMetadata(candidate),
		CreatedAt:     now,
	}

	if err := t.store.CreateStandardWithVersion(ctx, std, version); err != nil {
		return nil, fmt.Errorf("persisting standard %s: %w", std.ID, err)
	}

	t.log.Info().
		Str("standard_id", std.ID).
		Str("version_id", version.ID).
		Str("name", std.Name).
		Msg("new standard recorded")

	score := bestScore
	if score < 0 {
		score = 0
	}
	return &domain.Decision{
		Kind:            domain.DecisionNewStandard,
		StandardID:      std.ID,
		VersionID:       version.ID,
		SimilarityScore: score,
	}, nil
}

// validateVector rejects candidate vectors the engine cannot compare.
func (t *Tracker) validateVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("candidate vector is empty: %w", domain.ErrInvalidVector)
	}
	if t.cfg.EmbeddingDims > 0 && len(vec) != t.cfg.EmbeddingDims {
		return fmt.Errorf("candidate vector has %d dimensions, expected %d: %w",
			len(vec), t.cfg.EmbeddingDims, domain.ErrInvalidVector)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return fmt.Errorf("candidate vector has zero magnitude: %w", domain.ErrInvalidVector)
	}
	return nil
}

// versionMetadata merges candidate metadata with the provenance keys the
// tracker guarantees are present.
func (t *Tracker) versionMetadata(candidate domain.Candidate) map[string]any {
	meta := make(map[string]any, len(candidate.Metadata)+2)
	for k, v := range candidate.Metadata {
		meta[k] = v
	}
	if candidate.SourceURL != "" {
		meta[domain.MetaSourceURL] = candidate.SourceURL
	}
	if _, ok := meta[domain.MetaEmbeddingModel]; !ok && t.cfg.EmbeddingModel != "" {
		meta[domain.MetaEmbeddingModel] = t.cfg.EmbeddingModel
	}
	return meta
}

// lockFor returns the lock for a standard, creating it on first use.
func (t *Tracker) lockFor(standardID string) *semaphore.Weighted {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[standardID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		t.locks[standardID] = lock
	}
	return lock
}

// observedAt falls back to now for candidates without a timestamp.
func observedAt(candidate domain.Candidate, now time.Time) time.Time {
	if candidate.ObservedAt.IsZero() {
		return now
	}
	return candidate.ObservedAt
}

// standardName derives a display name for a first-observation candidate.
func standardName(candidate domain.Candidate) string {
	if candidate.Name != "" {
		return candidate.Name
	}
	return "Untitled standard"
}

// standardDescription derives a description, truncating the content when
// the source supplied none.
func standardDescription(candidate domain.Candidate) string {
	if candidate.Description != "" {
		return candidate.Description
	}
	text := fingerprint.Normalize(candidate.Text)
	if len(text) <= descriptionLimit {
		return text
	}
	return text[:descriptionLimit] + "..."
}

// newID builds a prefixed short identifier, e.g. std_1f4a09c2d3.
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + hex[:10]
}
