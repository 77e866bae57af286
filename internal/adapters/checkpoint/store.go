// Package checkpoint stores intermediate design snapshots between partial
// synthesis runs.
package checkpoint

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultRoot is where checkpoint snapshots live relative to the working
// directory.
const DefaultRoot = ".yoke/checkpoints"

var _ ports.CheckpointStore = (*Store)(nil)

// Store lays out snapshots as <root>/<task>/<label>.il.
type Store struct {
	root string
}

// NewStore creates a checkpoint store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// PathFor returns the snapshot path for a task and checkpoint label.
func (s *Store) PathFor(taskName, label string) string {
	return filepath.Join(s.root, taskName, label+".il")
}

// Prepare ensures the task's snapshot directory exists.
func (s *Store) Prepare(taskName string) error {
	dir := filepath.Join(s.root, taskName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRunDirNotWritable, err.Error()), "dir", dir)
	}
	return nil
}

// Resume returns the snapshot path for a previously written checkpoint. A
// missing snapshot is a configuration error: the caller asked to resume from
// a point that was never reached.
func (s *Store) Resume(taskName, label string) (string, error) {
	path := s.PathFor(taskName, label)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrNoSuchCheckpoint, "no snapshot on disk"), "task", taskName), "checkpoint", label)
		}
		return "", zerr.With(zerr.Wrap(err, "failed to stat checkpoint"), "path", path)
	}
	return path, nil
}
