// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.rtlflow.dev/yoke/internal/adapters/cas"
	_ "go.rtlflow.dev/yoke/internal/adapters/checkpoint"
	_ "go.rtlflow.dev/yoke/internal/adapters/config"
	_ "go.rtlflow.dev/yoke/internal/adapters/fs"
	_ "go.rtlflow.dev/yoke/internal/adapters/logger"
	_ "go.rtlflow.dev/yoke/internal/adapters/telemetry"
	_ "go.rtlflow.dev/yoke/internal/adapters/yosys"
	// Register app and engine nodes.
	_ "go.rtlflow.dev/yoke/internal/app"
	_ "go.rtlflow.dev/yoke/internal/engine/scheduler"
	_ "go.rtlflow.dev/yoke/internal/engine/synth"
)
