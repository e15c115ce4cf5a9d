package domain

// TrackerConfig carries the tunable knobs for the version tracker.
// It is injected at construction so independently-configured trackers
// can coexist; nothing reads it as ambient state.
type TrackerConfig struct {
	// SimilarityThreshold is the minimum score at which a candidate is
	// treated as a new version of an existing standard rather than an
	// entirely new standard.
	SimilarityThreshold float64

	// Bands partitions 1 - similarity into change magnitudes.
	Bands MagnitudeBands

	// EmbeddingDims is the expected vector dimensionality. Candidates
	// with a different dimensionality are rejected at ingestion.
	// Zero disables the check.
	EmbeddingDims int

	// EmbeddingModel identifies the model expected to produce candidate
	// vectors. Recorded into version metadata.
	EmbeddingModel string
}

// MagnitudeBands holds the upper boundaries for the minor and moderate
// change bands. A delta below Minor is minor, below Moderate is moderate,
// anything else is large.
type MagnitudeBands struct {
	Minor    float64
	Moderate float64
}

// DefaultTrackerConfig returns the tracker defaults: 0.75 threshold,
// 0.1/0.3 magnitude band boundaries, no dimensionality enforcement.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		SimilarityThreshold: 0.75,
		Bands: MagnitudeBands{
			Minor:    0.1,
			Moderate: 0.3,
		},
	}
}

// Magnitude maps a 1 - similarity delta onto the configured bands.
func (c TrackerConfig) Magnitude(delta float64) Magnitude {
	switch {
	case delta < c.Bands.Minor:
		return MagnitudeMinor
	case delta < c.Bands.Moderate:
		return MagnitudeModerate
	default:
		return MagnitudeLarge
	}
}

// Validate checks the configuration for values the tracker cannot
// operate with.
func (c TrackerConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return ErrInvalidInput
	}
	if c.Bands.Minor < 0 || c.Bands.Moderate < c.Bands.Minor {
		return ErrInvalidInput
	}
	if c.EmbeddingDims < 0 {
		return ErrInvalidInput
	}
	return nil
}
