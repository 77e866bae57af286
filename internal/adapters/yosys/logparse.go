package yosys

import (
	"regexp"
	"strconv"
	"strings"

	"go.rtlflow.dev/yoke/internal/core/domain"
)

// Pass markers in the tool log. Passes print "Executing NAME pass",
// frontends and backends print "Executing NAME frontend/backend"; all three
// normalize to the lowercase command name the synthesizer used.
var (
	passRe     = regexp.MustCompile(`Executing ([A-Z0-9_]+) pass`)
	frontendRe = regexp.MustCompile(`Executing ([A-Za-z0-9_-]+) frontend`)
	backendRe  = regexp.MustCompile(`Executing ([A-Za-z0-9_]+) backend`)
)

var frontendNames = map[string]domain.Pass{
	"Verilog-2005": "read_verilog",
	"Verilog":      "read_verilog",
	"RTLIL":        "read_rtlil",
	"Liberty":      "read_liberty",
	"JSON":         "read_json",
}

var backendNames = map[string]domain.Pass{
	"JSON":    "write_json",
	"Verilog": "write_verilog",
	"BLIF":    "write_blif",
	"EDIF":    "write_edif",
	"RTLIL":   "write_rtlil",
	"SMT2":    "write_smt2",
}

type diagPattern struct {
	code   string
	substr string
}

// Fatal diagnostics from the taxonomy: referenced module not found,
// duplicate module definition, syntax error, mapping-backend failure.
var fatalPatterns = []diagPattern{
	{"module-not-found", "is not part of the design"},
	{"module-not-found", "referenced in module"},
	{"duplicate-module", "Re-definition of module"},
	{"syntax-error", "syntax error"},
	{"abc-mapping-failed", "ABC: Error"},
	{"abc-mapping-failed", "Can't open ABC output file"},
}

// Non-fatal diagnostics: recorded and surfaced, never failing the task.
var warningPatterns = []diagPattern{
	{"inferred-latch", "Latch inferred"},
	{"inferred-latch", "latch inferred"},
	{"tristate", "tribuf"},
	{"tristate", "tri-state"},
	{"memory-fallback", "list of registers"},
	{"blackbox", "black box"},
	{"blackbox", "blackbox"},
}

func classify(line string, patterns []diagPattern, fallback string) string {
	for _, p := range patterns {
		if strings.Contains(line, p.substr) {
			return p.code
		}
	}
	return fallback
}

// parseLog splits the tool's combined log into executed-pass markers,
// classified diagnostics, and the statistics block (retained verbatim).
func parseLog(log string) ([]domain.Pass, []domain.Diagnostic, domain.Stats) {
	var passes []domain.Pass
	var diags []domain.Diagnostic
	var stats domain.Stats
	var statLines []string
	inStats := false

	for _, line := range strings.Split(log, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := passRe.FindStringSubmatch(line); m != nil {
			passes = append(passes, domain.Pass(strings.ToLower(m[1])))
			inStats = false
			continue
		}
		if m := frontendRe.FindStringSubmatch(line); m != nil {
			if p, ok := frontendNames[m[1]]; ok {
				passes = append(passes, p)
			}
			inStats = false
			continue
		}
		if m := backendRe.FindStringSubmatch(line); m != nil {
			if p, ok := backendNames[m[1]]; ok {
				passes = append(passes, p)
			}
			inStats = false
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "ERROR:"):
			diags = append(diags, domain.Diagnostic{
				Severity: domain.SeverityFatal,
				Code:     classify(trimmed, fatalPatterns, "tool-error"),
				Line:     trimmed,
			})
		case strings.HasPrefix(trimmed, "Warning:"):
			diags = append(diags, domain.Diagnostic{
				Severity: domain.SeverityWarning,
				Code:     classify(trimmed, warningPatterns, "tool-warning"),
				Line:     trimmed,
			})
		case strings.HasPrefix(trimmed, "Printing statistics."):
			inStats = true
			statLines = statLines[:0]
		case inStats:
			statLines = append(statLines, line)
			if n, ok := statCount(trimmed, "Number of cells:"); ok {
				stats.Cells = n
			}
			if n, ok := statCount(trimmed, "Number of wires:"); ok {
				stats.Wires = n
			}
		}
	}

	stats.Raw = strings.Join(statLines, "\n")
	return passes, diags, stats
}

func statCount(line, prefix string) (int, bool) {
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, prefix)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// verifyPassOrder checks that the expected passes appear in the observed
// sequence in the same relative order. The tool interleaves internal passes
// the synthesizer did not assert; those are skipped. A missing or reordered
// expected pass is an orchestrator bug, not a user error.
func verifyPassOrder(expected, observed []domain.Pass) (domain.Pass, bool) {
	i := 0
	for _, got := range observed {
		if i < len(expected) && got == expected[i] {
			i++
		}
	}
	if i < len(expected) {
		return expected[i], false
	}
	return "", true
}
