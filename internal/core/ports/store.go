package ports

import "go.rtlflow.dev/yoke/internal/core/domain"

// CacheStore persists cache entries keyed by fingerprint across evaluations.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Lookup retrieves the entry for a fingerprint.
	// Returns nil, nil on a miss.
	Lookup(fingerprint string) (*domain.CacheEntry, error)

	// Store persists the entry and flushes it to disk.
	Store(entry domain.CacheEntry) error
}
