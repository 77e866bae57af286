package synth

import (
	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.trai.ch/zerr"
)

// Recognized options per task kind. Validation is table-driven: an option
// outside the table, or carrying the wrong value kind, is rejected before
// any tool invocation.
var kindOptions = map[domain.TaskKind]map[string]domain.ParamKind{
	domain.KindFileSet: {},
	domain.KindSynth: {
		"top":           domain.ParamString,
		"output_format": domain.ParamString,
		"flatten":       domain.ParamBool,
		"nofsm":         domain.ParamBool,
		"noabc":         domain.ParamBool,
		"retime":        domain.ParamBool,
		"args":          domain.ParamStrings,
	},
	domain.KindSynthIce40: {
		"top":           domain.ParamString,
		"device":        domain.ParamString,
		"output_format": domain.ParamString,
		"dff":           domain.ParamBool,
		"retime":        domain.ParamBool,
		"nocarry":       domain.ParamBool,
		"nobram":        domain.ParamBool,
		"dsp":           domain.ParamBool,
		"abc9":          domain.ParamBool,
		"args":          domain.ParamStrings,
	},
	domain.KindSynthXilinx: {
		"top":           domain.ParamString,
		"family":        domain.ParamString,
		"output_format": domain.ParamString,
		"flatten":       domain.ParamBool,
		"dff":           domain.ParamBool,
		"retime":        domain.ParamBool,
		"nobram":        domain.ParamBool,
		"nodsp":         domain.ParamBool,
		"noiopad":       domain.ParamBool,
		"noclkbuf":      domain.ParamBool,
		"abc9":          domain.ParamBool,
		"args":          domain.ParamStrings,
	},
	domain.KindSynthLattice: {
		"top":           domain.ParamString,
		"family":        domain.ParamString,
		"output_format": domain.ParamString,
		"dff":           domain.ParamBool,
		"retime":        domain.ParamBool,
		"args":          domain.ParamStrings,
	},
	domain.KindSynthGowin: {
		"top":           domain.ParamString,
		"output_format": domain.ParamString,
		"args":          domain.ParamStrings,
	},
	domain.KindFormalPrepare: {
		"top":   domain.ParamString,
		"bv":    domain.ParamBool,
		"mem":   domain.ParamBool,
		"wires": domain.ParamBool,
		"args":  domain.ParamStrings,
	},
	domain.KindScript: {
		"script":        domain.ParamString,
		"read_rtl":      domain.ParamBool,
		"output_format": domain.ParamString,
		"top":           domain.ParamString,
	},
}

// Options that must be present for the kind to synthesize at all.
var requiredOptions = map[domain.TaskKind][]string{
	domain.KindSynth:        {"top"},
	domain.KindSynthIce40:   {"top"},
	domain.KindSynthXilinx:  {"top"},
	domain.KindSynthLattice: {"top"},
	domain.KindSynthGowin:   {"top"},
	domain.KindScript:       {"script"},
}

// Accepted output_format values per kind, mirroring what the corresponding
// write backends support.
var allowedFormats = map[domain.TaskKind][]string{
	domain.KindSynth:        {"json", "verilog", "blif", "edif", "rtlil"},
	domain.KindSynthIce40:   {"json", "blif", "edif"},
	domain.KindSynthXilinx:  {"json", "edif", "blif"},
	domain.KindSynthLattice: {"json", "edif"},
	domain.KindSynthGowin:   {"json", "verilog"},
	domain.KindScript:       {"json", "verilog", "blif", "edif", "rtlil"},
}

const defaultFormat = "json"

// Validate checks a task's options against its kind's recognized table.
func (s *Synthesizer) Validate(task *domain.Task) error {
	table, ok := kindOptions[task.Kind]
	if !ok {
		return zerr.With(zerr.With(domain.ErrUnknownTaskKind, "task", task.Name.String()), "kind", string(task.Kind))
	}

	for _, key := range task.Params.SortedKeys() {
		expected, known := table[key]
		if !known {
			return optionError(zerr.Wrap(domain.ErrInvalidParameterValue, "unrecognized option"), task, key)
		}
		if task.Params[key].Kind != expected {
			return optionError(zerr.Wrap(domain.ErrInvalidParameterValue, "wrong value type"), task, key)
		}
	}

	for _, req := range requiredOptions[task.Kind] {
		if _, present := task.Params[req]; !present {
			return optionError(domain.ErrMissingParameter, task, req)
		}
	}

	if format := task.Params.String("output_format"); format != "" {
		if !contains(allowedFormats[task.Kind], format) {
			err := zerr.Wrap(domain.ErrInvalidParameterValue, "unsupported output format "+format)
			return optionError(err, task, "output_format")
		}
	}

	return nil
}

func optionError(err error, task *domain.Task, option string) error {
	return zerr.With(zerr.With(err, "task", task.Name.String()), "option", option)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func outputFormat(task *domain.Task) string {
	if f := task.Params.String("output_format"); f != "" {
		return f
	}
	return defaultFormat
}
