package ports

// IncludeResolver expands the include globs of a leaf fileset task into
// concrete file paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type IncludeResolver interface {
	// Resolve expands the patterns relative to baseDir. The result is sorted
	// and deduplicated; a pattern set matching nothing at all is an error.
	Resolve(baseDir string, patterns []string) ([]string, error)
}
