package synth

import (
	"path/filepath"
	"strings"

	"go.rtlflow.dev/yoke/internal/core/domain"
)

// rtlSource is one design input file with its language flavor.
type rtlSource struct {
	path string
	sv   bool
}

// collectRTL gathers design sources, include directories, and liberty
// libraries from the upstream filesets, preserving fileset order.
func collectRTL(upstream []domain.Fileset) (sources []rtlSource, incdirs, liberty []string) {
	for _, fs := range upstream {
		switch fs.Type {
		case domain.VerilogSource, domain.SystemVerilogSource:
			sv := fs.Type == domain.SystemVerilogSource
			for _, p := range fs.Paths() {
				sources = append(sources, rtlSource{path: p, sv: sv})
			}
			incdirs = append(incdirs, fs.IncludePaths()...)
		case domain.YosysNetlist, domain.YosysRTLIL:
			for _, p := range fs.Paths() {
				sources = append(sources, rtlSource{path: p})
			}
		case domain.VerilogIncDir:
			if len(fs.IncDirs) > 0 {
				incdirs = append(incdirs, fs.IncludePaths()...)
			} else if strings.TrimSpace(fs.BaseDir) != "" {
				incdirs = append(incdirs, fs.BaseDir)
			}
		case domain.VerilogInclude, domain.SystemVerilogInclude:
			incdirs = append(incdirs, fs.IncludePaths()...)
		case domain.LibertyLib:
			liberty = append(liberty, fs.Paths()...)
			if len(fs.Files) == 0 && strings.TrimSpace(fs.BaseDir) != "" {
				liberty = append(liberty, fs.BaseDir)
			}
		}
	}
	return sources, incdirs, liberty
}

// readCommandFor picks the frontend command for a source file. Upstream
// netlists arrive in whatever format their producer wrote; the extension
// decides the reader.
func readCommandFor(src rtlSource, formal bool) (domain.Pass, string) {
	switch filepath.Ext(src.path) {
	case ".il":
		return "read_rtlil", "read_rtlil " + src.path
	case ".json":
		return "read_json", "read_json " + src.path
	default:
		cmd := "read_verilog"
		if formal {
			cmd += " -formal"
		}
		if src.sv {
			cmd += " -sv"
		}
		return "read_verilog", cmd + " " + src.path
	}
}
