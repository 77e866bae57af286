// Package config provides the configuration loader for yoke.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.rtlflow.dev/yoke/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Registry *domain.Registry
}

// Load reads a flow file from the given path and returns a domain.Graph.
func (l *FileConfigLoader) Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var flowfile Flowfile
	if err := yaml.Unmarshal(data, &flowfile); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	baseDir := filepath.Dir(path)

	g := domain.NewGraph()
	taskNames := make(map[string]bool)

	// First pass: Collect all task names to verify dependencies later
	for name := range flowfile.Tasks {
		taskNames[name] = true
	}

	// Second pass: Create tasks and add to graph. Map iteration order is
	// random, so insert in sorted order to keep error reporting stable.
	names := make([]string, 0, len(flowfile.Tasks))
	for name := range flowfile.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dto := flowfile.Tasks[name]

		for _, dep := range dto.Needs {
			if !taskNames[dep] {
				return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingDependency, "dependency not declared"), "task", name), "dependency", dep)
			}
		}

		task, err := l.buildTask(name, dto, baseDir)
		if err != nil {
			return nil, err
		}

		if err := g.AddTask(task); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (l *FileConfigLoader) buildTask(name string, dto TaskDTO, baseDir string) (*domain.Task, error) {
	kind, err := domain.ParseTaskKind(dto.Kind)
	if err != nil {
		return nil, zerr.With(err, "task", name)
	}

	params, err := convertParams(name, dto.With)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Name:   domain.NewInternedString(name),
		Kind:   kind,
		Params: params,
		Needs:  internStrings(dto.Needs),
	}

	if kind == domain.KindFileSet {
		if dto.Type == "" {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingParameter, "fileset needs a type"), "task", name), "option", "type")
		}
		ft, err := l.Registry.TypeOf(dto.Type)
		if err != nil {
			return nil, zerr.With(err, "task", name)
		}
		if len(dto.Include) == 0 {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingParameter, "fileset needs include patterns"), "task", name), "option", "include")
		}
		task.Type = ft
		task.BaseDir = resolveBaseDir(baseDir, dto.BaseDir)
		task.Include = dto.Include
	} else if dto.Type != "" || len(dto.Include) > 0 || dto.BaseDir != "" {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, "fileset fields on a non-fileset task"), "task", name), "kind", dto.Kind)
	}

	return task, nil
}

// convertParams maps loosely typed YAML values onto the tagged option
// variant. Scalars keep their YAML type; integers are passed to the tool as
// decimal strings.
func convertParams(taskName string, with map[string]any) (domain.Params, error) {
	if len(with) == 0 {
		return nil, nil
	}

	params := make(domain.Params, len(with))
	for key, raw := range with {
		switch v := raw.(type) {
		case string:
			params[key] = domain.StringParam(v)
		case bool:
			params[key] = domain.BoolParam(v)
		case int:
			params[key] = domain.StringParam(fmt.Sprintf("%d", v))
		case []any:
			strs := make([]string, len(v))
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, "list options hold strings only"), "task", taskName), "option", key)
				}
				strs[i] = s
			}
			params[key] = domain.StringsParam(strs...)
		default:
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidParameterValue, fmt.Sprintf("unsupported value type %T", raw)), "task", taskName), "option", key)
		}
	}
	return params, nil
}

func resolveBaseDir(configDir, dir string) string {
	if dir == "" {
		return configDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(configDir, dir)
}

func internStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}
	res := make([]domain.InternedString, len(strs))
	for i, s := range strs {
		res[i] = domain.NewInternedString(s)
	}
	return res
}
