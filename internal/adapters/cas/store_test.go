package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.rtlflow.dev/yoke/internal/adapters/cas"
	"go.rtlflow.dev/yoke/internal/core/domain"
)

func TestStore_LookupMiss(t *testing.T) {
	s, err := cas.NewStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	entry, err := s.Lookup("deadbeef00000000")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	s, err := cas.NewStore(path)
	require.NoError(t, err)

	entry := domain.CacheEntry{
		Fingerprint: "deadbeef00000000",
		Filesets: []domain.Fileset{
			{Type: domain.YosysNetlist, BaseDir: ".yoke/synth", Files: []string{"netlist.json"}},
		},
		Log:       "Executing SYNTH pass.",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Store(entry))

	got, err := s.Lookup("deadbeef00000000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
	assert.Equal(t, entry.Filesets, got.Filesets)

	// A fresh store over the same file sees the persisted entry.
	reopened, err := cas.NewStore(path)
	require.NoError(t, err)
	got, err = reopened.Lookup("deadbeef00000000")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Log, got.Log)
}

func TestStore_CorruptIndexTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := cas.NewStore(path)
	require.NoError(t, err)

	entry, err := s.Lookup("anything")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".yoke", "cache.json")
	s, err := cas.NewStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Store(domain.CacheEntry{Fingerprint: "abc"}))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
