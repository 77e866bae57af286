package domain

import "path/filepath"

// Fileset is an ordered collection of file paths sharing one FileType.
// It is immutable once produced by a task; downstream tasks receive the
// value but the producer keeps ownership of the files on disk.
type Fileset struct {
	Type    FileType `json:"type"`
	BaseDir string   `json:"basedir"`
	Files   []string `json:"files,omitempty"`
	IncDirs []string `json:"incdirs,omitempty"`
}

// Paths returns the absolute-ish paths of the files, joined with BaseDir.
func (f Fileset) Paths() []string {
	paths := make([]string, len(f.Files))
	for i, file := range f.Files {
		paths[i] = filepath.Join(f.BaseDir, file)
	}
	return paths
}

// IncludePaths returns the include directories joined with BaseDir.
func (f Fileset) IncludePaths() []string {
	dirs := make([]string, len(f.IncDirs))
	for i, d := range f.IncDirs {
		dirs[i] = filepath.Join(f.BaseDir, d)
	}
	return dirs
}
