package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.rtlflow.dev/yoke/internal/adapters/fs"
	"go.rtlflow.dev/yoke/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func synthTask(params domain.Params) *domain.Task {
	return &domain.Task{
		Name:   domain.NewInternedString("synth"),
		Kind:   domain.KindSynth,
		Params: params,
	}
}

func TestHasher_Fingerprint_Stable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.v", "module a; endmodule\n")

	h := fs.NewHasher()
	task := synthTask(domain.Params{"top": domain.StringParam("a")})
	upstream := []domain.Fileset{{Type: domain.VerilogSource, BaseDir: dir, Files: []string{"a.v"}}}

	fp1, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)
	fp2, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestHasher_Fingerprint_ContentSensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.v", "module a; endmodule\n")

	h := fs.NewHasher()
	task := synthTask(domain.Params{"top": domain.StringParam("a")})
	upstream := []domain.Fileset{{Type: domain.VerilogSource, BaseDir: dir, Files: []string{"a.v"}}}

	before, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)

	writeFile(t, dir, "a.v", "module a; wire w; endmodule\n")
	after, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestHasher_Fingerprint_TimestampInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.v", "module a; endmodule\n")

	h := fs.NewHasher()
	task := synthTask(domain.Params{"top": domain.StringParam("a")})
	upstream := []domain.Fileset{{Type: domain.VerilogSource, BaseDir: dir, Files: []string{"a.v"}}}

	before, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)

	// Rewrite identical bytes; only the mtime changes.
	writeFile(t, dir, "a.v", "module a; endmodule\n")
	after, err := h.Fingerprint(task, upstream)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestHasher_Fingerprint_ParamsAndKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.v", "module a; endmodule\n")

	h := fs.NewHasher()
	upstream := []domain.Fileset{{Type: domain.VerilogSource, BaseDir: dir, Files: []string{"a.v"}}}

	base, err := h.Fingerprint(synthTask(domain.Params{"top": domain.StringParam("a")}), upstream)
	require.NoError(t, err)

	flagged, err := h.Fingerprint(synthTask(domain.Params{
		"top":     domain.StringParam("a"),
		"flatten": domain.BoolParam(true),
	}), upstream)
	require.NoError(t, err)
	assert.NotEqual(t, base, flagged, "an extra option must change the fingerprint")

	otherKind := &domain.Task{
		Name:   domain.NewInternedString("synth"),
		Kind:   domain.KindSynthIce40,
		Params: domain.Params{"top": domain.StringParam("a")},
	}
	ice40, err := h.Fingerprint(otherKind, upstream)
	require.NoError(t, err)
	assert.NotEqual(t, base, ice40, "the kind participates in the fingerprint")
}

func TestHasher_Fingerprint_MissingFile(t *testing.T) {
	h := fs.NewHasher()
	task := synthTask(nil)
	upstream := []domain.Fileset{{Type: domain.VerilogSource, BaseDir: t.TempDir(), Files: []string{"ghost.v"}}}

	_, err := h.Fingerprint(task, upstream)
	assert.Error(t, err)
}

func TestHasher_FileDigest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.v", "content")
	writeFile(t, dir, "b.v", "content")
	writeFile(t, dir, "c.v", "different")

	h := fs.NewHasher()
	da, err := h.FileDigest(filepath.Join(dir, "a.v"))
	require.NoError(t, err)
	db, err := h.FileDigest(filepath.Join(dir, "b.v"))
	require.NoError(t, err)
	dc, err := h.FileDigest(filepath.Join(dir, "c.v"))
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.NotEqual(t, da, dc)
}
