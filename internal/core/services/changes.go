package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// excerptLines is how many affected lines a change detail retains.
const excerptLines = 5

// llmDescribeTimeout bounds the optional description call so a slow
// model cannot stall the add-version path.
const llmDescribeTimeout = 15 * time.Second

// ChangeDetector produces the structured change record between two
// chronologically adjacent versions of the same standard. The detector
// is pure over its inputs; the tracker persists the result inside the
// version write transaction.
type ChangeDetector struct {
	cfg domain.TrackerConfig
	llm driven.LLMService
	log zerolog.Logger
}

// NewChangeDetector creates a detector. The LLM service is optional;
// when nil, descriptions stay deterministic.
func NewChangeDetector(cfg domain.TrackerConfig, llm driven.LLMService, log zerolog.Logger) *ChangeDetector {
	return &ChangeDetector{cfg: cfg, llm: llm, log: log}
}

// Detect builds the change record for prev -> next. Both versions must
// belong to the same standard and be numbered consecutively; anything
// else wraps domain.ErrVersionOrder so out-of-sequence invocations
// (e.g. racing inserts) surface instead of corrupting history.
func (d *ChangeDetector) Detect(ctx context.Context, prev, next *domain.Version, score float64) (*domain.Change, error) {
	if prev == nil || next == nil {
		return nil, fmt.Errorf("nil version: %w", domain.ErrInvalidInput)
	}
	if prev.StandardID != next.StandardID {
		return nil, fmt.Errorf("versions belong to different standards (%s, %s): %w",
			prev.StandardID, next.StandardID, domain.ErrVersionOrder)
	}
	if prev.VersionNumber != next.VersionNumber-1 {
		return nil, fmt.Errorf("versions %d and %d are not adjacent: %w",
			prev.VersionNumber, next.VersionNumber, domain.ErrVersionOrder)
	}

	details := diffLines(prev.Content, next.Content)
	summary := domain.ChangeSummary{
		Magnitude:   d.cfg.Magnitude(1 - score),
		Description: describeDetails(details),
		Details:     details,
	}

	// Best-effort enrichment: a nicer description never gates the record.
	if d.llm != nil {
		if desc, err := d.describe(ctx, prev, next); err != nil {
			d.log.Warn().Err(err).Str("standard_id", next.StandardID).Msg("change description generation failed")
		} else if desc != "" {
			summary.Description = desc
		}
	}

	return &domain.Change{
		ID:              newID("chg"),
		FromVersionID:   prev.ID,
		ToVersionID:     next.ID,
		SimilarityScore: score,
		Summary:         summary,
		DetectedAt:      time.Now().UTC(),
	}, nil
}

// describe asks the LLM for a one-paragraph account of the change.
func (d *ChangeDetector) describe(ctx context.Context, prev, next *domain.Version) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, llmDescribeTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Two consecutive revisions of a security standard follow. Describe what changed in one short paragraph, naming concrete requirements where possible.\n\nPREVIOUS REVISION:\n%s\n\nNEW REVISION:\n%s",
		clip(prev.Content, 4000), clip(next.Content, 4000))

	out, err := d.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("generating change description: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// diffLines computes a set difference of content lines: lines present
// only in next are additions, lines present only in prev are removals.
// When neither appears the content still differs (whitespace or
// in-line edits), reported as a single modification entry.
func diffLines(prevContent, nextContent string) []domain.ChangeDetail {
	prevSet := lineSet(prevContent)
	nextSet := lineSet(nextContent)

	added := missingFrom(nextContent, prevSet)
	removed := missingFrom(prevContent, nextSet)

	var details []domain.ChangeDetail
	if len(added) > 0 {
		details = append(details, domain.ChangeDetail{
			Type:        domain.ChangeAddition,
			Description: fmt.Sprintf("Added %d new lines", len(added)),
			Content:     excerpt(added),
		})
	}
	if len(removed) > 0 {
		details = append(details, domain.ChangeDetail{
			Type:        domain.ChangeRemoval,
			Description: fmt.Sprintf("Removed %d lines", len(removed)),
			Content:     excerpt(removed),
		})
	}
	if len(details) == 0 {
		details = append(details, domain.ChangeDetail{
			Type:        domain.ChangeModification,
			Description: "Content modified with no clear line additions/removals",
		})
	}
	return details
}

// describeDetails folds the detail entries into the deterministic
// default description.
func describeDetails(details []domain.ChangeDetail) string {
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = d.Description
	}
	return strings.Join(parts, "; ")
}

// lineSet collects the non-empty trimmed lines of content.
func lineSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = struct{}{}
		}
	}
	return set
}

// missingFrom returns content's lines absent from other, preserving
// first-appearance order and deduplicating.
func missingFrom(content string, other map[string]struct{}) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		if _, ok := other[line]; !ok {
			out = append(out, line)
		}
	}
	return out
}

// excerpt joins the first few lines, marking truncation.
func excerpt(lines []string) string {
	if len(lines) <= excerptLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:excerptLines], "\n") + "\n..."
}

// clip truncates text for prompt building.
func clip(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
