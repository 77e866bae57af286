// Package cas implements the cache entry store backing incremental runs.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPath is where the cache index lives relative to the working
// directory.
const DefaultPath = ".yoke/cache.json"

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore using a flat JSON file keyed by
// fingerprint.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.CacheEntry
}

// NewStore creates a new CacheStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.CacheEntry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read cache store")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		// A corrupt index is treated as empty rather than fatal. Every
		// entry will simply miss and be rebuilt.
		s.cache = make(map[string]domain.CacheEntry)
	}

	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for cache store")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write cache store")
	}

	return nil
}

// Lookup retrieves the cache entry for a fingerprint. A missing entry
// returns nil, nil.
func (s *Store) Lookup(fingerprint string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[fingerprint]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Store records a cache entry, replacing any previous one under the same
// fingerprint.
func (s *Store) Store(entry domain.CacheEntry) error {
	// Update cache first
	s.mu.Lock()
	s.cache[entry.Fingerprint] = entry
	s.mu.Unlock()

	// Then save to disk
	return s.save()
}
