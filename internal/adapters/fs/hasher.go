// Package fs provides filesystem adapters: glob resolution and fingerprint
// hashing.
package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FingerprintHasher = (*Hasher)(nil)

// Hasher computes cache fingerprints with xxhash.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// FileDigest computes the XXHash of a file's content.
func (h *Hasher) FileDigest(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint digests the task kind, the parameter mapping in a canonical
// order-independent encoding, and the content of every file in every
// upstream fileset. Timestamps never participate, so a rebuilt but
// byte-identical input keeps its fingerprint.
func (h *Hasher) Fingerprint(task *domain.Task, upstream []domain.Fileset) (string, error) {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(string(task.Kind))
	_, _ = hasher.Write([]byte{0})

	hashParams(task.Params, hasher)

	if task.Kind == domain.KindFileSet {
		_, _ = hasher.WriteString(string(task.Type))
		_, _ = hasher.Write([]byte{0})
	}

	for _, fs := range upstream {
		_, _ = hasher.WriteString(string(fs.Type))
		_, _ = hasher.Write([]byte{0})
		for _, path := range fs.Paths() {
			if err := h.hashFile(path, hasher); err != nil {
				return "", err
			}
		}
		_, _ = hasher.Write([]byte{0}) // Section separator
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashParams writes the options in sorted key order with tagged values.
func hashParams(params domain.Params, hasher *xxhash.Digest) {
	for _, key := range params.SortedKeys() {
		v := params[key]
		_, _ = hasher.WriteString(key)
		_, _ = hasher.Write([]byte{'='})
		switch v.Kind {
		case domain.ParamString:
			_, _ = hasher.Write([]byte{'s'})
			_, _ = hasher.WriteString(v.Str)
		case domain.ParamBool:
			_, _ = hasher.Write([]byte{'b'})
			if v.Bool {
				_, _ = hasher.Write([]byte{1})
			} else {
				_, _ = hasher.Write([]byte{0})
			}
		case domain.ParamStrings:
			_, _ = hasher.Write([]byte{'l'})
			for _, s := range v.Strs {
				_, _ = hasher.WriteString(s)
				_, _ = hasher.Write([]byte{0})
			}
		}
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator
}

func (h *Hasher) hashFile(path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(path))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.FileDigest(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
