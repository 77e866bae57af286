package ports

import "go.rtlflow.dev/yoke/internal/core/domain"

// ConfigLoader loads the flow declaration file into a task graph.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the declaration file at path and returns the task graph.
	Load(path string) (*domain.Graph, error)
}
