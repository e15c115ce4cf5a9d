package domain

import "time"

// Candidate is one externally-fetched document submitted for a version
// decision. It carries the raw text, the embedding produced for it, and
// provenance metadata from the fetch layer.
type Candidate struct {
	// StandardID optionally pre-selects the standard to match against.
	// When empty, the tracker searches across all known standards.
	StandardID string

	// Name is the candidate's title as reported by the source.
	Name string

	// Description summarises the candidate, used if a new standard
	// is created for it.
	Description string

	// SourceURL is where the document was retrieved from.
	SourceURL string

	// Text is the normalised document content.
	Text string

	// Vector is the embedding of Text.
	Vector []float32

	// Metadata carries free-form provenance recorded onto the version.
	Metadata map[string]any

	// ObservedAt is the observation timestamp from the fetch layer.
	ObservedAt time.Time
}

// DecisionKind classifies the outcome of submitting a candidate.
type DecisionKind int

// Decision outcomes.
const (
	// DecisionDuplicate means the candidate's fingerprint exactly matched
	// an existing latest version. Nothing was written.
	DecisionDuplicate DecisionKind = iota

	// DecisionNewVersion means the candidate became a new version of an
	// existing standard.
	DecisionNewVersion

	// DecisionNewStandard means no standard matched above the threshold
	// and a new standard was created.
	DecisionNewStandard
)

// String returns the lowercase name of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionDuplicate:
		return "duplicate"
	case DecisionNewVersion:
		return "new_version"
	case DecisionNewStandard:
		return "new_standard"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one add-version call. Kind determines which
// fields are meaningful: StandardID and VersionID are set for all kinds
// (for a duplicate they identify the matched standard and its latest
// version); ChangeID and SimilarityScore are set only for NewVersion.
type Decision struct {
	// Kind is the decision outcome.
	Kind DecisionKind

	// StandardID is the standard the candidate resolved to.
	StandardID string

	// VersionID is the version the candidate resolved to.
	VersionID string

	// ChangeID references the change persisted with a new version.
	ChangeID string

	// SimilarityScore is the best score against the chosen standard.
	// Zero for a new standard with no prior competitors.
	SimilarityScore float64
}

// Comparison is the result of comparing two stored versions' vectors.
type Comparison struct {
	// VersionA and VersionB identify the compared versions.
	VersionA string
	VersionB string

	// Score is the cosine similarity of the retained vectors.
	Score float64

	// ModelA and ModelB are the embedding model identifiers recorded on
	// each version.
	ModelA string
	ModelB string

	// CrossModel is true when the versions' vectors were produced by
	// different embedding models. The score is still computed when the
	// dimensions agree, but comparing across models is unreliable and
	// callers should treat a flagged score with suspicion.
	CrossModel bool
}
