package domain

import "go.trai.ch/zerr"

// FileType classifies the content of a Fileset. The set of types is closed:
// only the types registered in NewRegistry exist.
type FileType string

const (
	// VerilogSource is plain Verilog-2005 RTL.
	VerilogSource FileType = "verilogSource"
	// SystemVerilogSource is SystemVerilog RTL.
	SystemVerilogSource FileType = "systemVerilogSource"
	// VerilogIncDir is a bare include directory.
	VerilogIncDir FileType = "verilogIncDir"
	// VerilogInclude is a fileset contributing Verilog include directories.
	VerilogInclude FileType = "verilogInclude"
	// SystemVerilogInclude is a fileset contributing SystemVerilog include directories.
	SystemVerilogInclude FileType = "systemVerilogInclude"
	// LibertyLib is a Liberty cell library.
	LibertyLib FileType = "libertyLib"
	// RTLSource is the generic supertype accepted by any pass that reads a design.
	RTLSource FileType = "rtlSource"
	// YosysNetlist is a synthesized netlist in one of yosys' write formats.
	YosysNetlist FileType = "yosysNetlist"
	// YosysSMT2 is an SMT2 model produced for formal verification.
	YosysSMT2 FileType = "yosysSMT2"
	// YosysRTLIL is yosys' internal design representation, used for checkpoints.
	YosysRTLIL FileType = "yosysRTLIL"
)

// Registry is the fileset type registry. It answers two questions: does a
// type name exist, and may a produced type be consumed where another type is
// expected. Pure lookup, no side effects.
type Registry struct {
	known     map[FileType]struct{}
	supertype map[FileType][]FileType
}

// NewRegistry creates a Registry with the closed type set and the declared
// compatibility table. Compatibility is reflexive; beyond that, only the
// supertype entries below are compatible. A netlist or RTLIL snapshot is
// readable RTL for a downstream task, so both satisfy RTLSource.
func NewRegistry() *Registry {
	r := &Registry{
		known:     make(map[FileType]struct{}),
		supertype: make(map[FileType][]FileType),
	}
	for _, t := range []FileType{
		VerilogSource,
		SystemVerilogSource,
		VerilogIncDir,
		VerilogInclude,
		SystemVerilogInclude,
		LibertyLib,
		RTLSource,
		YosysNetlist,
		YosysSMT2,
		YosysRTLIL,
	} {
		r.known[t] = struct{}{}
	}

	r.supertype[VerilogSource] = []FileType{RTLSource}
	r.supertype[SystemVerilogSource] = []FileType{RTLSource}
	r.supertype[YosysNetlist] = []FileType{RTLSource}
	r.supertype[YosysRTLIL] = []FileType{RTLSource}

	return r
}

// TypeOf resolves a type name to a FileType.
func (r *Registry) TypeOf(name string) (FileType, error) {
	t := FileType(name)
	if _, ok := r.known[t]; !ok {
		return "", zerr.With(ErrUnknownType, "type", name)
	}
	return t, nil
}

// Compatible reports whether a fileset of type produced may be consumed
// where expected is required.
func (r *Registry) Compatible(produced, expected FileType) bool {
	if produced == expected {
		return true
	}
	for _, super := range r.supertype[produced] {
		if super == expected {
			return true
		}
	}
	return false
}

// IsInclude reports whether a type contributes include directories rather
// than design content. Include filesets are accepted by every tool-invoking
// task kind as auxiliary inputs.
func (t FileType) IsInclude() bool {
	switch t {
	case VerilogIncDir, VerilogInclude, SystemVerilogInclude:
		return true
	default:
		return false
	}
}
