package domain

import "time"

// Severity classifies a diagnostic line from the tool log.
type Severity string

const (
	// SeverityFatal fails the owning task as a whole.
	SeverityFatal Severity = "fatal"
	// SeverityWarning is recorded and surfaced but never fails the task.
	SeverityWarning Severity = "warning"
)

// Diagnostic is one classified line from the tool log.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Line     string   `json:"line"`
}

// Stats is the statistics block emitted by a reporting pass. The block is
// retained verbatim; only the counts needed by consumers are parsed out.
type Stats struct {
	Cells int    `json:"cells"`
	Wires int    `json:"wires"`
	Raw   string `json:"raw,omitempty"`
}

// ExecutionResult is the outcome of one task invocation.
type ExecutionResult struct {
	ExitStatus  int
	Log         string
	Passes      []Pass
	Diagnostics []Diagnostic
	Filesets    []Fileset
	Stats       Stats
}

// FatalDiagnostics returns the diagnostics that fail the task.
func (r *ExecutionResult) FatalDiagnostics() []Diagnostic {
	var fatal []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityFatal {
			fatal = append(fatal, d)
		}
	}
	return fatal
}

// HasWarnings reports whether any non-fatal diagnostics were recorded.
func (r *ExecutionResult) HasWarnings() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// CacheEntry is the persisted record of one successful task invocation,
// keyed by fingerprint. Entries are invalidated only by fingerprint
// mismatch, never by wall-clock time.
type CacheEntry struct {
	Fingerprint string       `json:"fingerprint"`
	Filesets    []Fileset    `json:"filesets,omitempty"`
	Log         string       `json:"log,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CheckpointSnapshot is a serialized intermediate design state, tagged with
// the label it was taken at and the task that produced it.
type CheckpointSnapshot struct {
	Task  string `json:"task"`
	Label string `json:"label"`
	Path  string `json:"path"`
}
