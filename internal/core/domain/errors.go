package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Lookups of unknown IDs always surface this, never a default record.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Version tracking errors.

	// ErrInvalidVector indicates an embedding vector cannot be compared:
	// dimension mismatch, empty, or zero magnitude. The candidate carrying
	// it is not persisted.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrVersionOrder indicates change detection was invoked on versions
	// that are not chronologically adjacent within one standard.
	ErrVersionOrder = errors.New("versions not adjacent")

	// ErrConflict indicates a concurrency conflict during the atomic
	// version+change write. Callers should retry the whole add-version
	// call, since the decision may differ against updated state.
	ErrConflict = errors.New("concurrency conflict")

	// ErrReadOnlyService indicates a write reached a read-only surface.
	// Such requests are rejected, never silently ignored.
	ErrReadOnlyService = errors.New("service is read-only")

	// Collaborator errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Human-readable change descriptions are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion cannot proceed without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the search index is not configured.
	// Semantic search is disabled; keyword search still works.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// ErrFetchUnavailable indicates no fetcher is configured.
	ErrFetchUnavailable = errors.New("fetcher unavailable")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
