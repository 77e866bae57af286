package config

// Flowfile represents the structure of the flow.yaml configuration file.
type Flowfile struct {
	Version string             `yaml:"version"`
	Tasks   map[string]TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task declaration in the configuration.
type TaskDTO struct {
	Kind    string         `yaml:"kind"`
	Needs   []string       `yaml:"needs"`
	With    map[string]any `yaml:"with"`
	Type    string         `yaml:"type"`
	BaseDir string         `yaml:"basedir"`
	Include []string       `yaml:"include"`
}
