package domain

// Pass is the normalized name of a yosys pass as it appears in the tool log
// ("Executing SYNTH pass" becomes Pass("synth")). The synthesizer emits the
// expected pass sequence as ordering metadata; the execution engine
// cross-checks it against the log.
type Pass string

// ScriptCommand is one line of a yosys script with the pass it is expected
// to execute. Pass is empty for lines that produce no log marker.
type ScriptCommand struct {
	Text string
	Pass Pass
}

// ScriptFragment is the ordered command sequence synthesized for one task,
// with checkpoint labels at positions where a consistent intermediate design
// state exists and the declared output files the engine may collect.
type ScriptFragment struct {
	Commands []ScriptCommand

	// Checkpoints maps a label to the index in Commands after which the
	// design state is consistent (an insertion point for a snapshot write).
	Checkpoints map[string]int

	// Outputs are the file names, relative to the run directory, that the
	// script writes. The engine collects exactly these and nothing else.
	Outputs []string

	// OutputType is the FileType of the produced fileset.
	OutputType FileType
}

// Lines returns the script text, one command per line.
func (f *ScriptFragment) Lines() []string {
	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = c.Text
	}
	return lines
}

// ExpectedPasses returns the ordered pass markers the tool log must contain.
func (f *ScriptFragment) ExpectedPasses() []Pass {
	var passes []Pass
	for _, c := range f.Commands {
		if c.Pass != "" {
			passes = append(passes, c.Pass)
		}
	}
	return passes
}

// CheckpointRange selects a sub-range of a task's internal pipeline.
// Empty From means "from the beginning"; empty To means "through completion".
type CheckpointRange struct {
	From string
	To   string
}

// IsZero reports whether the range covers the whole pipeline.
func (r CheckpointRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Checkpoint labels recorded by synthesis kinds with a mapping stage.
const (
	// CheckpointElaborated is the state after elaboration, before any
	// structural transformation.
	CheckpointElaborated = "elaborated"
	// CheckpointPreMap is the state after coarse optimization, before
	// technology mapping.
	CheckpointPreMap = "pre-map"
	// CheckpointPostMap is the state after target-specific mapping, before
	// final cleanup and artifact writing.
	CheckpointPostMap = "post-map"
)
