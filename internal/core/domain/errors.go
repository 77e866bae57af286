package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

// Configuration errors. All are reported before any tool invocation.
var (
	// ErrTaskAlreadyExists is returned when two tasks share a name.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a needs entry names a task
	// absent from the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when the dependency graph contains a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested target task is not in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrUnknownTaskKind is returned for a kind name outside the supported set.
	ErrUnknownTaskKind = zerr.New("unknown task kind")

	// ErrUnknownType is returned for a fileset type name outside the closed set.
	ErrUnknownType = zerr.New("unknown fileset type")

	// ErrTypeMismatch is returned when a producer's output type does not
	// satisfy the type its consumer expects for that slot.
	ErrTypeMismatch = zerr.New("fileset type mismatch")

	// ErrMissingParameter is returned when a required task option is absent.
	ErrMissingParameter = zerr.New("missing parameter")

	// ErrInvalidParameterValue is returned for an unrecognized or mistyped option.
	ErrInvalidParameterValue = zerr.New("invalid parameter value")

	// ErrNoTargetsSpecified is returned when an evaluation names no tasks.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrNoSuchCheckpoint is returned when resuming from a label that was
	// never saved for the task.
	ErrNoSuchCheckpoint = zerr.New("no such checkpoint")

	// ErrCheckpointUnsupported is returned when a partial range is requested
	// for a task kind that records no checkpoint labels.
	ErrCheckpointUnsupported = zerr.New("checkpoint range not supported for task kind")

	// ErrUpstreamFailed marks a task skipped because a dependency failed.
	ErrUpstreamFailed = zerr.New("upstream task failed")
)

// Tool and environment errors.
var (
	// ErrToolFatal is returned when the tool log contains a fatal diagnostic
	// or the process exits non-zero. Outputs of the invocation are discarded.
	ErrToolFatal = zerr.New("tool reported fatal error")

	// ErrToolNotFound is returned when the yosys binary cannot be located.
	ErrToolNotFound = zerr.New("synthesis tool not found")

	// ErrRunDirNotWritable is returned when the task's run directory cannot
	// be created or written.
	ErrRunDirNotWritable = zerr.New("run directory not writable")
)

// ErrPassOrderViolated is returned when the pass order observed in the tool
// log disagrees with the ordering the synthesizer asserted. This is an
// orchestrator bug, reported distinctly from tool and user errors.
var ErrPassOrderViolated = zerr.New("executed pass order violates script ordering")

// ErrorClass partitions errors for exit-code reporting.
type ErrorClass int

const (
	// ClassNone means no error.
	ClassNone ErrorClass = iota
	// ClassConfig covers user and configuration errors.
	ClassConfig
	// ClassTool covers tool execution and environment failures.
	ClassTool
	// ClassInternal covers orchestrator consistency faults.
	ClassInternal
)

// String names the class for status reporting.
func (c ErrorClass) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassTool:
		return "tool"
	case ClassInternal:
		return "internal"
	default:
		return "none"
	}
}

// Classify maps an error to its reporting class. Internal faults win over
// anything they are joined with.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrPassOrderViolated) {
		return ClassInternal
	}
	for _, sentinel := range []error{
		ErrTaskAlreadyExists,
		ErrMissingDependency,
		ErrCycleDetected,
		ErrTaskNotFound,
		ErrUnknownTaskKind,
		ErrUnknownType,
		ErrTypeMismatch,
		ErrMissingParameter,
		ErrInvalidParameterValue,
		ErrNoTargetsSpecified,
		ErrNoSuchCheckpoint,
		ErrCheckpointUnsupported,
		ErrUpstreamFailed,
	} {
		if errors.Is(err, sentinel) {
			return ClassConfig
		}
	}
	return ClassTool
}
