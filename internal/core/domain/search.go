package domain

// SearchOptions configures a search query over tracked standards.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Semantic enables vector similarity search over version content.
	// Keyword search over names, descriptions, and metadata is the
	// default.
	Semantic bool
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Standard is the matched standard.
	Standard Standard

	// Version is the version whose content matched, when the hit came
	// from the semantic index. Nil for keyword matches on the standard
	// itself.
	Version *Version

	// Score is the relevance score. Keyword matches carry no ranking
	// guarantee and report zero.
	Score float64
}
