package domain

import "time"

// Standard represents a long-lived regulatory or security framework
// tracked over time (e.g. one act, certification, or controls catalogue).
// A Standard is never deleted; it only accumulates Versions.
type Standard struct {
	// ID is the stable identifier, assigned once at creation.
	ID string

	// Name is the human-readable title of the framework.
	Name string

	// Description summarises the standard's scope.
	Description string

	// SourceURL is where the first observation of this standard came from.
	SourceURL string

	// CreatedAt is when the standard was first observed.
	CreatedAt time.Time

	// UpdatedAt is when the standard last gained a version.
	UpdatedAt time.Time
}

// Version represents one immutable content snapshot of a Standard
// observed at a point in time. Corrections require a new Version,
// never an edit.
type Version struct {
	// ID is the unique identifier for the version.
	ID string

	// StandardID links to the owning Standard.
	StandardID string

	// VersionNumber is monotonic per standard, assigned at creation.
	// It is never renumbered.
	VersionNumber int

	// VersionDate is the observation timestamp supplied by the fetch layer.
	VersionDate time.Time

	// ContentHash is the fingerprint of the normalised content.
	// Unique within a standard's version set.
	ContentHash string

	// Content is the raw normalised text as observed.
	Content string

	// Embedding is the vector retained for later comparisons.
	Embedding []float32

	// Metadata carries free-form provenance: source URL, fetch method,
	// and the embedding model identifier that produced the vector.
	Metadata map[string]any

	// CreatedAt is when the version row was persisted.
	CreatedAt time.Time
}

// EmbeddingModel returns the embedding model identifier recorded in the
// version's metadata, or "" when none was recorded.
func (v *Version) EmbeddingModel() string {
	if v.Metadata == nil {
		return ""
	}
	if m, ok := v.Metadata[MetaEmbeddingModel].(string); ok {
		return m
	}
	return ""
}

// Metadata keys recorded on versions by the ingestion pipeline.
const (
	// MetaEmbeddingModel records which model produced the stored vector.
	MetaEmbeddingModel = "embedding_model"

	// MetaSourceURL records the URL the content was fetched from.
	MetaSourceURL = "source_url"

	// MetaFetchMethod records how the content was obtained.
	MetaFetchMethod = "fetch_method"
)

// Change records the delta from one Version to the chronologically next
// Version of the same Standard. Exactly one Change exists per adjacent
// pair; the first Version of a Standard has no incoming Change.
type Change struct {
	// ID is the unique identifier for the change.
	ID string

	// FromVersionID references the predecessor version.
	FromVersionID string

	// ToVersionID references the successor version.
	ToVersionID string

	// SimilarityScore is the score that triggered the new-version decision.
	SimilarityScore float64

	// Summary is the structured description of what changed.
	Summary ChangeSummary

	// DetectedAt is when the change was computed.
	DetectedAt time.Time
}

// ChangeSummary is the structured, deterministic change record.
// Details are best-effort enrichment; Magnitude and the score in the
// owning Change are always present.
type ChangeSummary struct {
	// Magnitude is the coarse indicator derived from 1 - similarity.
	Magnitude Magnitude

	// Description is a short human-readable account of the change.
	Description string

	// Details lists line-level additions, removals, and modifications.
	Details []ChangeDetail
}

// ChangeDetail is one entry in a change summary.
type ChangeDetail struct {
	// Type is one of addition, removal, modification.
	Type ChangeDetailType

	// Description summarises the entry, e.g. "Added 12 new lines".
	Description string

	// Content holds a truncated excerpt of the affected lines.
	Content string
}

// ChangeDetailType classifies a change summary entry.
type ChangeDetailType string

// Change detail types.
const (
	ChangeAddition     ChangeDetailType = "addition"
	ChangeRemoval      ChangeDetailType = "removal"
	ChangeModification ChangeDetailType = "modification"
)

// Magnitude is the coarse size of a change between adjacent versions,
// derived from 1 - similarity against configured bands.
type Magnitude string

// Change magnitudes, smallest to largest.
const (
	MagnitudeMinor    Magnitude = "minor"
	MagnitudeModerate Magnitude = "moderate"
	MagnitudeLarge    Magnitude = "large"
)
