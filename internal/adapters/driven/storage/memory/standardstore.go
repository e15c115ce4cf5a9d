package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// Ensure StandardStore implements the interface.
var _ driven.StandardStore = (*StandardStore)(nil)

// StandardStore is an in-memory implementation of driven.StandardStore.
// A single mutex guards every write, so multi-entity writes are atomic.
type StandardStore struct {
	mu        sync.RWMutex
	standards map[string]domain.Standard
	versions  map[string]domain.Version
	changes   map[string]domain.Change
}

// NewStandardStore creates a new in-memory standard store.
func NewStandardStore() *StandardStore {
	return &StandardStore{
		standards: make(map[string]domain.Standard),
		versions:  make(map[string]domain.Version),
		changes:   make(map[string]domain.Change),
	}
}

// CreateStandardWithVersion stores a new standard and its first version.
func (s *StandardStore) CreateStandardWithVersion(_ context.Context, std *domain.Standard, version *domain.Version) error {
	if std == nil || version == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.standards[std.ID]; ok {
		return fmt.Errorf("standard %s already exists: %w", std.ID, domain.ErrAlreadyExists)
	}
	if err := s.checkVersionFree(version); err != nil {
		return err
	}

	s.standards[std.ID] = *std
	s.versions[version.ID] = *version
	return nil
}

// CreateVersionWithChange stores a new version and its change record,
// and advances the owning standard's UpdatedAt.
func (s *StandardStore) CreateVersionWithChange(_ context.Context, version *domain.Version, change *domain.Change) error {
	if version == nil || change == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	std, ok := s.standards[version.StandardID]
	if !ok {
		return fmt.Errorf("standard %s: %w", version.StandardID, domain.ErrNotFound)
	}
	if err := s.checkVersionFree(version); err != nil {
		return err
	}

	s.versions[version.ID] = *version
	s.changes[change.ID] = *change
	std.UpdatedAt = time.Now().UTC()
	s.standards[std.ID] = std
	return nil
}

// checkVersionFree reports a conflict when the version ID or the
// (standard, number) pair is already taken. Caller holds the lock.
func (s *StandardStore) checkVersionFree(version *domain.Version) error {
	if _, ok := s.versions[version.ID]; ok {
		return fmt.Errorf("version %s already recorded: %w", version.ID, domain.ErrConflict)
	}
	for _, existing := range s.versions {
		if existing.StandardID == version.StandardID && existing.VersionNumber == version.VersionNumber {
			return fmt.Errorf("version %d of %s already recorded: %w",
				version.VersionNumber, version.StandardID, domain.ErrConflict)
		}
	}
	return nil
}

// GetStandard retrieves a standard by ID.
func (s *StandardStore) GetStandard(_ context.Context, id string) (*domain.Standard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	std, ok := s.standards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &std, nil
}

// ListStandards returns all standards, most recently updated first.
func (s *StandardStore) ListStandards(_ context.Context) ([]domain.Standard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.standardsByRecency(), nil
}

// SearchStandards returns standards whose name, description, or version
// metadata match the keyword, most recently updated first.
func (s *StandardStore) SearchStandards(_ context.Context, keyword string) ([]domain.Standard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	var result []domain.Standard
	for _, std := range s.standardsByRecency() {
		if s.matches(std, needle) {
			result = append(result, std)
		}
	}
	return result, nil
}

// matches reports whether a standard or any of its versions' metadata
// contains the lowercased needle. Caller holds the lock.
func (s *StandardStore) matches(std domain.Standard, needle string) bool {
	if strings.Contains(strings.ToLower(std.Name), needle) ||
		strings.Contains(strings.ToLower(std.Description), needle) {
		return true
	}
	for _, version := range s.versions {
		if version.StandardID != std.ID {
			continue
		}
		for key, value := range version.Metadata {
			if strings.Contains(strings.ToLower(key), needle) ||
				strings.Contains(strings.ToLower(fmt.Sprint(value)), needle) {
				return true
			}
		}
	}
	return false
}

// standardsByRecency returns all standards ordered by UpdatedAt
// descending, ties broken by ID. Caller holds the lock.
func (s *StandardStore) standardsByRecency() []domain.Standard {
	result := make([]domain.Standard, 0, len(s.standards))
	for id := range s.standards {
		result = append(result, s.standards[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// GetVersion retrieves a version by ID.
func (s *StandardStore) GetVersion(_ context.Context, id string) (*domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &version, nil
}

// ListVersions returns a standard's versions ordered by version number.
func (s *StandardStore) ListVersions(_ context.Context, standardID string) ([]domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.standards[standardID]; !ok {
		return nil, fmt.Errorf("standard %s: %w", standardID, domain.ErrNotFound)
	}

	var result []domain.Version
	for id := range s.versions {
		if s.versions[id].StandardID == standardID {
			result = append(result, s.versions[id])
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNumber < result[j].VersionNumber
	})
	return result, nil
}

// LatestVersion returns the highest-numbered version of a standard.
func (s *StandardStore) LatestVersion(_ context.Context, standardID string) (*domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Version
	for id := range s.versions {
		version := s.versions[id]
		if version.StandardID != standardID {
			continue
		}
		if latest == nil || version.VersionNumber > latest.VersionNumber {
			latest = &version
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("latest version of %s: %w", standardID, domain.ErrNotFound)
	}
	return latest, nil
}

// LatestVersions returns the latest version of every standard, ordered
// by the owning standard's UpdatedAt descending.
func (s *StandardStore) LatestVersions(_ context.Context) ([]domain.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Version
	for _, std := range s.standardsByRecency() {
		var latest *domain.Version
		for id := range s.versions {
			version := s.versions[id]
			if version.StandardID != std.ID {
				continue
			}
			if latest == nil || version.VersionNumber > latest.VersionNumber {
				latest = &version
			}
		}
		if latest != nil {
			result = append(result, *latest)
		}
	}
	return result, nil
}

// GetChange retrieves a change by ID.
func (s *StandardStore) GetChange(_ context.Context, id string) (*domain.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	change, ok := s.changes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &change, nil
}

// ChangesForVersion returns the changes adjacent to a version, the
// incoming one first.
func (s *StandardStore) ChangesForVersion(_ context.Context, versionID string) ([]domain.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.versions[versionID]; !ok {
		return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
	}

	var result []domain.Change
	for id := range s.changes {
		change := s.changes[id]
		if change.ToVersionID == versionID || change.FromVersionID == versionID {
			result = append(result, change)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		iIncoming := result[i].ToVersionID == versionID
		jIncoming := result[j].ToVersionID == versionID
		if iIncoming != jIncoming {
			return iIncoming
		}
		return result[i].DetectedAt.Before(result[j].DetectedAt)
	})
	return result, nil
}
