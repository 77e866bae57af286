package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.IncludeResolver = (*Resolver)(nil)

// Resolver expands fileset include patterns against the filesystem.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve expands each pattern relative to baseDir. Matches are returned
// relative to baseDir, deduplicated and sorted so fingerprints stay stable
// across filesystem enumeration order. A pattern matching nothing is an
// error: a fileset that silently resolves to zero sources hides typos.
func (r *Resolver) Resolve(baseDir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for _, pattern := range patterns {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(baseDir, pattern)
		}

		matches, err := filepath.Glob(abs)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, err.Error()), "pattern", pattern)
		}
		if len(matches) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, "pattern matched no files"), "pattern", pattern)
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to stat matched file"), "path", m)
			}
			if info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(baseDir, m)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to relativize matched file"), "path", m)
			}
			if _, ok := seen[rel]; ok {
				continue
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}

	slices.Sort(out)
	return out, nil
}
