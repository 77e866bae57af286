package domain

import (
	"sort"

	"go.trai.ch/zerr"
)

// TaskKind selects the script-synthesis strategy for a task.
type TaskKind string

const (
	// KindFileSet is a leaf task declaring a typed collection of source files.
	KindFileSet TaskKind = "FileSet"
	// KindSynth is generic technology-independent synthesis.
	KindSynth TaskKind = "Synth"
	// KindSynthIce40 targets Lattice iCE40 FPGAs.
	KindSynthIce40 TaskKind = "SynthIce40"
	// KindSynthXilinx targets Xilinx FPGAs.
	KindSynthXilinx TaskKind = "SynthXilinx"
	// KindSynthLattice targets Lattice ECP5/MachXO/Nexus FPGAs.
	KindSynthLattice TaskKind = "SynthLattice"
	// KindSynthGowin targets Gowin FPGAs.
	KindSynthGowin TaskKind = "SynthGowin"
	// KindFormalPrepare emits an SMT2 model for formal verification.
	KindFormalPrepare TaskKind = "FormalPrepare"
	// KindScript runs a user-provided yosys script.
	KindScript TaskKind = "Script"
)

// ParseTaskKind resolves a kind name from a task declaration.
func ParseTaskKind(name string) (TaskKind, error) {
	switch k := TaskKind(name); k {
	case KindFileSet, KindSynth, KindSynthIce40, KindSynthXilinx,
		KindSynthLattice, KindSynthGowin, KindFormalPrepare, KindScript:
		return k, nil
	default:
		return "", zerr.With(ErrUnknownTaskKind, "kind", name)
	}
}

// TargetSpecific reports whether the kind maps to a device-specific yosys
// synthesis macro. Only these kinds record checkpoint labels.
func (k TaskKind) TargetSpecific() bool {
	switch k {
	case KindSynthIce40, KindSynthXilinx, KindSynthLattice, KindSynthGowin:
		return true
	default:
		return false
	}
}

// ParamKind tags the concrete type carried by a ParamValue.
type ParamKind int

const (
	// ParamString is a single string value.
	ParamString ParamKind = iota
	// ParamBool is a boolean toggle.
	ParamBool
	// ParamStrings is an ordered list of strings.
	ParamStrings
)

// ParamValue is a tagged variant holding one task option value. Options are
// validated against a per-kind table rather than accessed duck-typed.
type ParamValue struct {
	Kind ParamKind
	Str  string
	Bool bool
	Strs []string
}

// StringParam creates a string-valued ParamValue.
func StringParam(s string) ParamValue { return ParamValue{Kind: ParamString, Str: s} }

// BoolParam creates a boolean ParamValue.
func BoolParam(b bool) ParamValue { return ParamValue{Kind: ParamBool, Bool: b} }

// StringsParam creates a list-valued ParamValue.
func StringsParam(strs ...string) ParamValue { return ParamValue{Kind: ParamStrings, Strs: strs} }

// Params is a task's option mapping.
type Params map[string]ParamValue

// String returns the string value of an option, or "" when absent.
func (p Params) String(key string) string {
	if v, ok := p[key]; ok && v.Kind == ParamString {
		return v.Str
	}
	return ""
}

// Bool returns the boolean value of an option, or false when absent.
func (p Params) Bool(key string) bool {
	if v, ok := p[key]; ok && v.Kind == ParamBool {
		return v.Bool
	}
	return false
}

// Strings returns the list value of an option, or nil when absent.
func (p Params) Strings(key string) []string {
	if v, ok := p[key]; ok && v.Kind == ParamStrings {
		return v.Strs
	}
	return nil
}

// SortedKeys returns the option names in a stable order. Fingerprinting and
// error reporting both need order independence from map iteration.
func (p Params) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Task is a named unit of work in the flow graph. Created from declarations
// at graph-build time and immutable thereafter.
type Task struct {
	Name   InternedString
	Kind   TaskKind
	Params Params
	Needs  []InternedString

	// FileSet leaf declaration. Type and Include are only set when
	// Kind == KindFileSet.
	Type    FileType
	BaseDir string
	Include []string
}

// OutputType returns the FileType of the fileset the task produces.
func (t *Task) OutputType() FileType {
	switch t.Kind {
	case KindFileSet:
		return t.Type
	case KindFormalPrepare:
		return YosysSMT2
	default:
		return YosysNetlist
	}
}
