// Package yosys provides the execution engine adapter that drives the
// external synthesis tool.
package yosys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// Environment variables honored when invoking the tool.
const (
	// EnvToolBin overrides the path to the yosys binary.
	EnvToolBin = "YOKE_YOSYS_BIN"
	// EnvABCBin overrides the path to the ABC mapping backend; exported to
	// the tool as ABC.
	EnvABCBin = "YOKE_ABC_BIN"
	// EnvNoParallel disables the tool's internal parallelism (exported as
	// YOSYS_NOPARALLEL=1) so it composes with the scheduler's own limit.
	EnvNoParallel = "YOKE_YOSYS_NO_PARALLEL"
)

const (
	scriptName = "synth.ys"
	logName    = "yosys.log"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute writes the fragment into runDir, invokes the tool once, and
// parses the log into an ExecutionResult. Partial outputs of a failed
// invocation are removed so they can never leak downstream or into the cache.
func (e *Executor) Execute(
	ctx context.Context,
	task *domain.Task,
	fragment *domain.ScriptFragment,
	runDir string,
) (*domain.ExecutionResult, error) {
	binary := os.Getenv(EnvToolBin)
	if binary == "" {
		binary = "yosys"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrToolNotFound, err.Error()), "tool", binary)
	}

	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrRunDirNotWritable, err.Error()), "dir", runDir)
	}
	if err := writeScript(filepath.Join(runDir, scriptName), task, fragment); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrRunDirNotWritable, err.Error()), "dir", runDir)
	}

	//nolint:gosec // binary resolved from a documented override or PATH
	cmd := exec.CommandContext(ctx, binary, "-q", "-l", logName, scriptName)
	cmd.Dir = runDir
	cmd.Env = toolEnvironment(os.Environ())

	var combined bytes.Buffer
	stdout, stderr := io.Writer(&combined), io.Writer(&combined)
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdout = io.MultiWriter(&combined, v.Stdout())
		stderr = io.MultiWriter(&combined, v.Stderr())
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logText := combined.String()
	if data, err := os.ReadFile(filepath.Join(runDir, logName)); err == nil && len(data) > 0 {
		// The -l log is authoritative; the console stream may be truncated.
		logText = string(data)
	}

	passes, diags, stats := parseLog(logText)
	result := &domain.ExecutionResult{
		Log:         logText,
		Passes:      passes,
		Diagnostics: diags,
		Stats:       stats,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitStatus = exitErr.ExitCode()
		} else {
			result.ExitStatus = -1
		}
	}

	if fatal := result.FatalDiagnostics(); len(fatal) > 0 || runErr != nil {
		discardOutputs(runDir, fragment.Outputs)
		code := "tool-error"
		if len(fatal) > 0 {
			code = fatal[0].Code
		}
		err := zerr.With(zerr.Wrap(domain.ErrToolFatal, "task invocation failed"), "task", task.Name.String())
		err = zerr.With(err, "code", code)
		return result, zerr.With(err, "exit_status", result.ExitStatus)
	}

	if missing, ok := verifyPassOrder(fragment.ExpectedPasses(), passes); !ok {
		err := zerr.With(zerr.Wrap(domain.ErrPassOrderViolated, "tool log disagrees with script"), "task", task.Name.String())
		return result, zerr.With(err, "pass", string(missing))
	}

	fileset, err := collectOutputs(task, fragment, runDir)
	if err != nil {
		return result, err
	}
	if fileset != nil {
		result.Filesets = []domain.Fileset{*fileset}
	}
	return result, nil
}

// writeScript emits the fragment in the tool's script grammar: one command
// per line, # starts a comment.
func writeScript(path string, task *domain.Task, fragment *domain.ScriptFragment) error {
	var sb strings.Builder
	sb.WriteString("# task " + task.Name.String() + " (" + string(task.Kind) + ")\n")
	for _, line := range fragment.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644) //nolint:gosec // script is not secret
}

// toolEnvironment applies the documented overrides on top of the inherited
// environment. TMPDIR passes through untouched.
func toolEnvironment(env []string) []string {
	if abc := os.Getenv(EnvABCBin); abc != "" {
		env = append(env, "ABC="+abc)
	}
	if os.Getenv(EnvNoParallel) != "" {
		env = append(env, "YOSYS_NOPARALLEL=1")
	}
	return env
}

// collectOutputs packages exactly the declared output paths into a typed
// fileset. A file on disk that was not declared is not collected; a declared
// file that is missing fails the task.
func collectOutputs(task *domain.Task, fragment *domain.ScriptFragment, runDir string) (*domain.Fileset, error) {
	if len(fragment.Outputs) == 0 {
		return nil, nil
	}
	for _, out := range fragment.Outputs {
		if _, err := os.Stat(filepath.Join(runDir, out)); err != nil {
			err := zerr.With(zerr.Wrap(domain.ErrToolFatal, "declared output missing"), "task", task.Name.String())
			return nil, zerr.With(err, "output", out)
		}
	}
	return &domain.Fileset{
		Type:    fragment.OutputType,
		BaseDir: runDir,
		Files:   fragment.Outputs,
	}, nil
}

func discardOutputs(runDir string, outputs []string) {
	for _, out := range outputs {
		_ = os.Remove(filepath.Join(runDir, out))
	}
}
