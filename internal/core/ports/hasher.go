package ports

import "go.rtlflow.dev/yoke/internal/core/domain"

// FingerprintHasher computes cache fingerprints.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type FingerprintHasher interface {
	// Fingerprint digests the task's kind, its parameters in a canonical
	// order-independent encoding, and the content of every file in every
	// upstream fileset. File timestamps never participate.
	Fingerprint(task *domain.Task, upstream []domain.Fileset) (string, error)

	// FileDigest computes the content digest of a single file.
	FileDigest(path string) (uint64, error)
}
