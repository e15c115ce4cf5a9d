package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vigil-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// emptyJSONObject is the stored form of absent metadata.
const emptyJSONObject = "{}"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vigil/data/tracker.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vigil", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tracker.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// StandardStore returns a StandardStore interface backed by this store.
func (s *Store) StandardStore() driven.StandardStore {
	return &standardStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Standard Store ====================

// standardStore implements driven.StandardStore.
type standardStore struct {
	store *Store
}

var _ driven.StandardStore = (*standardStore)(nil)

// CreateStandardWithVersion atomically persists a new standard and its
// first version.
func (s *standardStore) CreateStandardWithVersion(ctx context.Context, std *domain.Standard, version *domain.Version) error {
	if std == nil || version == nil {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO standards (id, name, description, source_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, std.ID, std.Name, std.Description, std.SourceURL, std.CreatedAt, std.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("standard %s already exists: %w", std.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting standard: %w", err)
	}

	if err := insertVersion(ctx, tx, version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateVersionWithChange atomically persists a new version, the change
// linking it to its predecessor, and the owning standard's new
// UpdatedAt.
func (s *standardStore) CreateVersionWithChange(ctx context.Context, version *domain.Version, change *domain.Change) error {
	if version == nil || change == nil {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertVersion(ctx, tx, version); err != nil {
		return err
	}

	summaryJSON, err := json.Marshal(change.Summary)
	if err != nil {
		return fmt.Errorf("marshalling change summary: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO changes (id, from_version_id, to_version_id, similarity_score, summary, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, change.ID, change.FromVersionID, change.ToVersionID,
		change.SimilarityScore, string(summaryJSON), change.DetectedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("change %s -> %s already recorded: %w",
				change.FromVersionID, change.ToVersionID, domain.ErrConflict)
		}
		return fmt.Errorf("inserting change: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE standards SET updated_at = ? WHERE id = ?",
		time.Now().UTC(), version.StandardID)
	if err != nil {
		return fmt.Errorf("updating standard: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("standard %s: %w", version.StandardID, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// insertVersion writes one version row inside a transaction.
func insertVersion(ctx context.Context, tx *sql.Tx, version *domain.Version) error {
	metadataJSON, err := json.Marshal(version.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling version metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (id, standard_id, version_number, version_date, content_hash, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, version.ID, version.StandardID, version.VersionNumber, version.VersionDate,
		version.ContentHash, version.Content, float32SliceToBytes(version.Embedding),
		string(metadataJSON), version.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Another writer recorded this version number first.
			return fmt.Errorf("version %d of %s already recorded: %w",
				version.VersionNumber, version.StandardID, domain.ErrConflict)
		}
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

// GetStandard retrieves a standard by ID.
func (s *standardStore) GetStandard(ctx context.Context, id string) (*domain.Standard, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, description, source_url, created_at, updated_at
		FROM standards WHERE id = ?
	`, id)

	return scanStandard(row)
}

// ListStandards returns all standards, most recently updated first.
func (s *standardStore) ListStandards(ctx context.Context) ([]domain.Standard, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, description, source_url, created_at, updated_at
		FROM standards
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying standards: %w", err)
	}
	defer rows.Close()

	return scanStandards(rows)
}

// SearchStandards returns standards whose name, description, or version
// metadata match the keyword, most recently updated first.
func (s *standardStore) SearchStandards(ctx context.Context, keyword string) ([]domain.Standard, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT s.id, s.name, s.description, s.source_url, s.created_at, s.updated_at
		FROM standards s
		LEFT JOIN versions v ON v.standard_id = s.id
		WHERE LOWER(s.name) LIKE ?
		   OR LOWER(s.description) LIKE ?
		   OR LOWER(v.metadata) LIKE ?
		ORDER BY s.updated_at DESC, s.id
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching standards: %w", err)
	}
	defer rows.Close()

	return scanStandards(rows)
}

// GetVersion retrieves a version by ID.
func (s *standardStore) GetVersion(ctx context.Context, id string) (*domain.Version, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, standard_id, version_number, version_date, content_hash, content, embedding, metadata, created_at
		FROM versions WHERE id = ?
	`, id)

	return scanVersion(row)
}

// ListVersions returns a standard's versions ordered by version number
// ascending.
func (s *standardStore) ListVersions(ctx context.Context, standardID string) ([]domain.Version, error) {
	if err := s.standardExists(ctx, standardID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, standard_id, version_number, version_date, content_hash, content, embedding, metadata, created_at
		FROM versions
		WHERE standard_id = ?
		ORDER BY version_number
	`, standardID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

// LatestVersion returns the highest-numbered version of a standard.
func (s *standardStore) LatestVersion(ctx context.Context, standardID string) (*domain.Version, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, standard_id, version_number, version_date, content_hash, content, embedding, metadata, created_at
		FROM versions
		WHERE standard_id = ?
		ORDER BY version_number DESC
		LIMIT 1
	`, standardID)

	version, err := scanVersion(row)
	if err != nil {
		return nil, fmt.Errorf("latest version of %s: %w", standardID, err)
	}
	return version, nil
}

// LatestVersions returns the latest version of every standard, ordered
// by the owning standard's UpdatedAt descending.
func (s *standardStore) LatestVersions(ctx context.Context) ([]domain.Version, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT v.id, v.standard_id, v.version_number, v.version_date, v.content_hash, v.content, v.embedding, v.metadata, v.created_at
		FROM versions v
		JOIN standards s ON s.id = v.standard_id
		WHERE v.version_number = (
			SELECT MAX(version_number) FROM versions WHERE standard_id = v.standard_id
		)
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying latest versions: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

// GetChange retrieves a change by ID.
func (s *standardStore) GetChange(ctx context.Context, id string) (*domain.Change, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, from_version_id, to_version_id, similarity_score, summary, detected_at
		FROM changes WHERE id = ?
	`, id)

	return scanChange(row)
}

// ChangesForVersion returns the changes adjacent to a version, the
// incoming one first.
func (s *standardStore) ChangesForVersion(ctx context.Context, versionID string) ([]domain.Change, error) {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM versions WHERE id = ?", versionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking version: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, from_version_id, to_version_id, similarity_score, summary, detected_at
		FROM changes
		WHERE to_version_id = ? OR from_version_id = ?
		ORDER BY CASE WHEN to_version_id = ? THEN 0 ELSE 1 END, detected_at
	`, versionID, versionID, versionID)
	if err != nil {
		return nil, fmt.Errorf("querying changes: %w", err)
	}
	defer rows.Close()

	var changes []domain.Change //nolint:prealloc // size unknown from query
	for rows.Next() {
		change, err := scanChangeRows(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, *change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating changes: %w", err)
	}

	return changes, nil
}

// standardExists distinguishes an unknown standard from an empty one.
func (s *standardStore) standardExists(ctx context.Context, standardID string) error {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM standards WHERE id = ?", standardID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking standard: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("standard %s: %w", standardID, domain.ErrNotFound)
	}
	return nil
}

// ==================== Helper Functions ====================

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanStandard scans a single standard row.
func scanStandard(row *sql.Row) (*domain.Standard, error) {
	var std domain.Standard
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&std.ID, &std.Name, &std.Description, &std.SourceURL,
		&createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning standard: %w", err)
	}

	if createdAt.Valid {
		std.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		std.UpdatedAt = updatedAt.Time
	}

	return &std, nil
}

// scanStandards scans multiple standard rows.
func scanStandards(rows *sql.Rows) ([]domain.Standard, error) {
	var standards []domain.Standard //nolint:prealloc // size unknown from query
	for rows.Next() {
		var std domain.Standard
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(&std.ID, &std.Name, &std.Description, &std.SourceURL,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning standard: %w", err)
		}

		if createdAt.Valid {
			std.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			std.UpdatedAt = updatedAt.Time
		}
		standards = append(standards, std)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating standards: %w", err)
	}

	return standards, nil
}

// scanVersion scans a single version row.
func scanVersion(row *sql.Row) (*domain.Version, error) {
	var version domain.Version
	var versionDate, createdAt sql.NullTime
	var embeddingBlob []byte
	var metadataJSON string

	if err := row.Scan(&version.ID, &version.StandardID, &version.VersionNumber,
		&versionDate, &version.ContentHash, &version.Content,
		&embeddingBlob, &metadataJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning version: %w", err)
	}

	version.Embedding = bytesToFloat32Slice(embeddingBlob)
	if err := unmarshalMetadata(metadataJSON, &version.Metadata); err != nil {
		return nil, err
	}
	if versionDate.Valid {
		version.VersionDate = versionDate.Time
	}
	if createdAt.Valid {
		version.CreatedAt = createdAt.Time
	}

	return &version, nil
}

// scanVersions scans multiple version rows.
func scanVersions(rows *sql.Rows) ([]domain.Version, error) {
	var versions []domain.Version //nolint:prealloc // size unknown from query
	for rows.Next() {
		var version domain.Version
		var versionDate, createdAt sql.NullTime
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&version.ID, &version.StandardID, &version.VersionNumber,
			&versionDate, &version.ContentHash, &version.Content,
			&embeddingBlob, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}

		version.Embedding = bytesToFloat32Slice(embeddingBlob)
		if err := unmarshalMetadata(metadataJSON, &version.Metadata); err != nil {
			return nil, err
		}
		if versionDate.Valid {
			version.VersionDate = versionDate.Time
		}
		if createdAt.Valid {
			version.CreatedAt = createdAt.Time
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}

	return versions, nil
}

// scanChange scans a single change row.
func scanChange(row *sql.Row) (*domain.Change, error) {
	var change domain.Change
	var summaryJSON string
	var detectedAt sql.NullTime

	if err := row.Scan(&change.ID, &change.FromVersionID, &change.ToVersionID,
		&change.SimilarityScore, &summaryJSON, &detectedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning change: %w", err)
	}

	if err := unmarshalSummary(summaryJSON, &change.Summary); err != nil {
		return nil, err
	}
	if detectedAt.Valid {
		change.DetectedAt = detectedAt.Time
	}

	return &change, nil
}

// scanChangeRows scans a change from *sql.Rows.
func scanChangeRows(rows *sql.Rows) (*domain.Change, error) {
	var change domain.Change
	var summaryJSON string
	var detectedAt sql.NullTime

	if err := rows.Scan(&change.ID, &change.FromVersionID, &change.ToVersionID,
		&change.SimilarityScore, &summaryJSON, &detectedAt); err != nil {
		return nil, fmt.Errorf("scanning change: %w", err)
	}

	if err := unmarshalSummary(summaryJSON, &change.Summary); err != nil {
		return nil, err
	}
	if detectedAt.Valid {
		change.DetectedAt = detectedAt.Time
	}

	return &change, nil
}

// unmarshalMetadata decodes stored version metadata.
func unmarshalMetadata(metadataJSON string, dst *map[string]any) error {
	if metadataJSON == "" || metadataJSON == emptyJSONObject || metadataJSON == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(metadataJSON), dst); err != nil {
		return fmt.Errorf("unmarshalling version metadata: %w", err)
	}
	return nil
}

// unmarshalSummary decodes a stored change summary.
func unmarshalSummary(summaryJSON string, dst *domain.ChangeSummary) error {
	if summaryJSON == "" || summaryJSON == emptyJSONObject || summaryJSON == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(summaryJSON), dst); err != nil {
		return fmt.Errorf("unmarshalling change summary: %w", err)
	}
	return nil
}
