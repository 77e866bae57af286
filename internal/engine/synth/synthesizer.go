// Package synth implements the per-kind script synthesizer.
//
// Each task kind maps to a fixed pass skeleton. The skeletons preserve the
// mandatory relative ordering of yosys passes: elaboration before structural
// transforms, proc before optimization, memory before fsm before generic
// mapping before target mapping, a final cleanup before any artifact write,
// and no write before the mapping its format requires. The emitted
// ScriptFragment carries the expected pass sequence so the execution engine
// can verify the tool honored it.
package synth

import (
	"fmt"
	"strings"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.trai.ch/zerr"
)

// Synthesizer implements ports.Synthesizer.
type Synthesizer struct{}

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{}
}

// script accumulates commands with their pass metadata and checkpoint marks.
type script struct {
	cmds        []domain.ScriptCommand
	checkpoints map[string]int
}

func newScript() *script {
	return &script{checkpoints: make(map[string]int)}
}

func (b *script) add(pass domain.Pass, text string) {
	b.cmds = append(b.cmds, domain.ScriptCommand{Text: text, Pass: pass})
}

// mark records a checkpoint at the current position: the design state after
// the last added command is consistent.
func (b *script) mark(label string) {
	b.checkpoints[label] = len(b.cmds)
}

func (b *script) fragment(outputs []string, outputType domain.FileType) *domain.ScriptFragment {
	return &domain.ScriptFragment{
		Commands:    b.cmds,
		Checkpoints: b.checkpoints,
		Outputs:     outputs,
		OutputType:  outputType,
	}
}

// Synthesize produces the full pipeline script for the task.
func (s *Synthesizer) Synthesize(task *domain.Task, upstream []domain.Fileset) (*domain.ScriptFragment, error) {
	if err := s.Validate(task); err != nil {
		return nil, err
	}

	switch task.Kind {
	case domain.KindSynth:
		return s.synthGeneric(task, upstream), nil
	case domain.KindSynthIce40, domain.KindSynthXilinx, domain.KindSynthLattice, domain.KindSynthGowin:
		return s.synthTarget(task, upstream), nil
	case domain.KindFormalPrepare:
		return s.formalPrepare(task, upstream), nil
	case domain.KindScript:
		return s.userScript(task, upstream), nil
	default:
		return nil, zerr.With(zerr.With(domain.ErrUnknownTaskKind, "task", task.Name.String()), "kind", string(task.Kind))
	}
}

func writeReadCommands(b *script, sources []rtlSource, incdirs []string, formal bool) {
	for _, d := range incdirs {
		b.add("read_verilog", "read_verilog -incdir "+d)
	}
	for _, src := range sources {
		pass, cmd := readCommandFor(src, formal)
		b.add(pass, cmd)
	}
}

var writeBackends = map[string]struct {
	pass domain.Pass
	cmd  string
}{
	"json":    {"write_json", "write_json"},
	"verilog": {"write_verilog", "write_verilog"},
	"blif":    {"write_blif", "write_blif"},
	"edif":    {"write_edif", "write_edif"},
	"rtlil":   {"write_rtlil", "write_rtlil"},
}

// synthGeneric builds the technology-independent pipeline: read, elaborate
// and optimize via the synth macro, map to liberty cells when libraries are
// present, clean up, report, write.
func (s *Synthesizer) synthGeneric(task *domain.Task, upstream []domain.Fileset) *domain.ScriptFragment {
	sources, incdirs, liberty := collectRTL(upstream)
	format := outputFormat(task)
	b := newScript()

	writeReadCommands(b, sources, incdirs, false)
	for _, lib := range liberty {
		b.add("read_liberty", "read_liberty -lib "+lib)
	}

	cmd := "synth -top " + task.Params.String("top")
	for _, flag := range []string{"flatten", "nofsm", "noabc", "retime"} {
		if task.Params.Bool(flag) {
			cmd += " -" + flag
		}
	}
	b.add("synth", cmd)

	if len(liberty) > 0 {
		b.mark(domain.CheckpointPreMap)
		b.add("dfflibmap", "dfflibmap -liberty "+liberty[0])
		b.add("abc", "abc -liberty "+liberty[0])
		b.mark(domain.CheckpointPostMap)
	}

	b.add("opt_clean", "opt_clean")
	if len(liberty) > 0 {
		b.add("stat", "stat -liberty "+liberty[0])
	} else {
		b.add("stat", "stat")
	}

	out := "netlist." + format
	backend := writeBackends[format]
	b.add(backend.pass, backend.cmd+" "+out)

	for _, arg := range task.Params.Strings("args") {
		b.add("", arg)
	}

	return b.fragment([]string{out}, domain.YosysNetlist)
}

// synthTarget builds a device-specific pipeline as consecutive -run slices
// of the target macro. The slice boundaries are the recorded checkpoint
// labels; back-to-back slices are equivalent to one full macro run.
func (s *Synthesizer) synthTarget(task *domain.Task, upstream []domain.Fileset) *domain.ScriptFragment {
	spec := targetSpecs[task.Kind]
	sources, incdirs, _ := collectRTL(upstream)
	format := outputFormat(task)
	b := newScript()

	writeReadCommands(b, sources, incdirs, false)

	base := spec.command
	if spec.selectorArg != "" {
		selector := task.Params.String(spec.selectorOpt)
		if selector == "" {
			selector = selectorDefaults[task.Kind]
		}
		base += " " + spec.selectorArg + " " + selector
	}
	base += " -top " + task.Params.String("top")
	for _, flag := range spec.flags {
		if task.Params.Bool(flag) {
			base += " -" + flag
		}
	}

	out := "netlist." + format
	for i, seg := range spec.segments {
		cmd := base + " -run " + seg.run
		if i == len(spec.segments)-1 {
			cmd += " " + spec.formatFlags[format] + " " + out
		}
		b.add(domain.Pass(spec.command), cmd)
		if seg.label != "" {
			b.mark(seg.label)
		}
	}

	for _, arg := range task.Params.Strings("args") {
		b.add("", arg)
	}

	return b.fragment([]string{out}, domain.YosysNetlist)
}

// formalPrepare builds the formal-verification pipeline ending in an SMT2
// model. The -formal flag enables formal-only constructs in the frontend.
func (s *Synthesizer) formalPrepare(task *domain.Task, upstream []domain.Fileset) *domain.ScriptFragment {
	sources, incdirs, _ := collectRTL(upstream)
	b := newScript()

	writeReadCommands(b, sources, incdirs, true)

	if top := task.Params.String("top"); top != "" {
		b.add("hierarchy", "hierarchy -top "+top)
	} else {
		b.add("hierarchy", "hierarchy -auto-top")
	}
	b.add("proc", "proc")
	b.add("opt", "opt")
	b.add("memory", "memory -nordff -nomap")
	b.add("opt", "opt -fast")

	const out = "model.smt2"
	cmd := "write_smt2"
	for _, flag := range []string{"bv", "mem", "wires"} {
		if task.Params.Bool(flag) {
			cmd += " -" + flag
		}
	}
	b.add("write_smt2", cmd+" "+out)

	for _, arg := range task.Params.Strings("args") {
		b.add("", arg)
	}

	return b.fragment([]string{out}, domain.YosysSMT2)
}

// userScript wraps a user-provided script, optionally prefixed with the
// generated read commands. User lines carry no pass metadata, so no
// ordering is asserted for them.
func (s *Synthesizer) userScript(task *domain.Task, upstream []domain.Fileset) *domain.ScriptFragment {
	b := newScript()

	if task.Params.Bool("read_rtl") {
		sources, incdirs, liberty := collectRTL(upstream)
		writeReadCommands(b, sources, incdirs, false)
		for _, lib := range liberty {
			b.add("read_liberty", "read_liberty -lib "+lib)
		}
	}

	for _, line := range strings.Split(strings.TrimRight(task.Params.String("script"), "\n"), "\n") {
		b.add("", line)
	}

	var outputs []string
	if format := task.Params.String("output_format"); format != "" {
		outputs = []string{"netlist." + format}
	}
	return b.fragment(outputs, domain.YosysNetlist)
}

// SynthesizeRange slices the full pipeline between two checkpoint labels.
// The sliced script loads the from-snapshot in place of the read commands
// and, when a to-label is given, ends by writing a snapshot instead of the
// final artifact. Chaining ranges over the same labels reproduces the
// end-to-end output byte for byte.
func (s *Synthesizer) SynthesizeRange(
	task *domain.Task,
	upstream []domain.Fileset,
	rng domain.CheckpointRange,
	fromPath, toPath string,
) (*domain.ScriptFragment, error) {
	full, err := s.Synthesize(task, upstream)
	if err != nil {
		return nil, err
	}
	if rng.IsZero() {
		return full, nil
	}
	if len(full.Checkpoints) == 0 {
		return nil, zerr.With(zerr.With(domain.ErrCheckpointUnsupported,
			"task", task.Name.String()), "kind", string(task.Kind))
	}

	start := 0
	end := len(full.Commands)

	if rng.From != "" {
		idx, ok := full.Checkpoints[rng.From]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrNoSuchCheckpoint,
				"task", task.Name.String()), "label", rng.From)
		}
		start = idx
	}
	if rng.To != "" {
		idx, ok := full.Checkpoints[rng.To]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrNoSuchCheckpoint,
				"task", task.Name.String()), "label", rng.To)
		}
		end = idx
	}
	if end < start {
		err := zerr.Wrap(domain.ErrInvalidParameterValue,
			fmt.Sprintf("label %q does not precede %q", rng.From, rng.To))
		return nil, zerr.With(zerr.With(err, "task", task.Name.String()), "option", "checkpoint")
	}

	var cmds []domain.ScriptCommand
	if rng.From != "" {
		cmds = append(cmds, domain.ScriptCommand{Text: "read_rtlil " + fromPath, Pass: "read_rtlil"})
	}
	prefix := len(cmds)
	cmds = append(cmds, full.Commands[start:end]...)

	outputs := full.Outputs
	outputType := full.OutputType
	if rng.To != "" {
		cmds = append(cmds, domain.ScriptCommand{Text: "write_rtlil " + toPath, Pass: "write_rtlil"})
		outputs = nil
		outputType = domain.YosysRTLIL
	}

	checkpoints := make(map[string]int)
	for label, idx := range full.Checkpoints {
		if idx >= start && idx <= end {
			checkpoints[label] = idx - start + prefix
		}
	}

	return &domain.ScriptFragment{
		Commands:    cmds,
		Checkpoints: checkpoints,
		Outputs:     outputs,
		OutputType:  outputType,
	}, nil
}
