package synth

import "go.rtlflow.dev/yoke/internal/core/domain"

// segment is one consecutive -run slice of a target synthesis macro. A
// non-empty label marks the boundary after the segment as a consistent
// checkpoint.
type segment struct {
	run   string
	label string
}

// targetSpec describes a device-specific synthesis macro: its command name,
// device/family selector, the boolean flags it recognizes, how each output
// format is requested inline, and the -run segmentation whose boundaries
// carry the checkpoint labels. Running the segments back to back is
// equivalent to one full invocation; that equivalence is what makes
// partial-range execution a pure performance facility.
type targetSpec struct {
	command     string
	selectorOpt string
	selectorArg string
	flags       []string
	formatFlags map[string]string
	segments    []segment
}

var targetSpecs = map[domain.TaskKind]targetSpec{
	domain.KindSynthIce40: {
		command:     "synth_ice40",
		selectorOpt: "device",
		selectorArg: "-device",
		flags:       []string{"dff", "retime", "nocarry", "nobram", "dsp", "abc9"},
		formatFlags: map[string]string{"json": "-json", "blif": "-blif", "edif": "-edif"},
		segments: []segment{
			{run: "begin:flatten", label: domain.CheckpointElaborated},
			{run: "coarse:coarse", label: domain.CheckpointPreMap},
			{run: "map_ram:map_cells", label: domain.CheckpointPostMap},
			{run: "check:"},
		},
	},
	domain.KindSynthXilinx: {
		command:     "synth_xilinx",
		selectorOpt: "family",
		selectorArg: "-family",
		flags:       []string{"flatten", "dff", "retime", "nobram", "nodsp", "noiopad", "noclkbuf", "abc9"},
		formatFlags: map[string]string{"json": "-json", "edif": "-edif", "blif": "-blif"},
		segments: []segment{
			{run: "begin:prepare", label: domain.CheckpointElaborated},
			{run: "coarse:coarse", label: domain.CheckpointPreMap},
			{run: "map_dsp:map_cells", label: domain.CheckpointPostMap},
			{run: "finalize:"},
		},
	},
	domain.KindSynthLattice: {
		command:     "synth_lattice",
		selectorOpt: "family",
		selectorArg: "-family",
		flags:       []string{"dff", "retime"},
		formatFlags: map[string]string{"json": "-json", "edif": "-edif"},
		segments: []segment{
			{run: "begin:flatten", label: domain.CheckpointElaborated},
			{run: "coarse:coarse", label: domain.CheckpointPreMap},
			{run: "map_ram:map_cells", label: domain.CheckpointPostMap},
			{run: "check:"},
		},
	},
	domain.KindSynthGowin: {
		command:     "synth_gowin",
		selectorOpt: "",
		selectorArg: "",
		flags:       nil,
		formatFlags: map[string]string{"json": "-json", "verilog": "-vout"},
		segments: []segment{
			{run: "begin:flatten", label: domain.CheckpointElaborated},
			{run: "coarse:coarse", label: domain.CheckpointPreMap},
			{run: "map_ram:map_cells", label: domain.CheckpointPostMap},
			{run: "check:"},
		},
	},
}

// Default device/family selectors, from the upstream tool's defaults.
var selectorDefaults = map[domain.TaskKind]string{
	domain.KindSynthIce40:   "hx",
	domain.KindSynthXilinx:  "xc7",
	domain.KindSynthLattice: "ecp5",
}
