package ports

// CheckpointStore owns intermediate design snapshots, keyed by task and label.
//
//go:generate go run go.uber.org/mock/mockgen -source=checkpoint.go -destination=mocks/mock_checkpoint.go -package=mocks
type CheckpointStore interface {
	// PathFor returns the stable path where the snapshot for task+label
	// lives, whether or not it exists yet.
	PathFor(task, label string) string

	// Prepare ensures the task's snapshot directory exists before the tool
	// writes into it.
	Prepare(task string) error

	// Resume returns the snapshot path for task+label, or
	// domain.ErrNoSuchCheckpoint if it was never saved.
	Resume(task, label string) (string, error)
}
