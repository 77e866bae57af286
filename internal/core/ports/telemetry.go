package ports

import (
	"context"
	"io"
)

// Telemetry records per-task progress vertices.
type Telemetry interface {
	// Record starts recording a new vertex for the named task.
	Record(ctx context.Context, name string) (context.Context, Vertex)

	// Close flushes and closes the recording session.
	Close() error
}

// Vertex represents one task's progress recording.
type Vertex interface {
	// Stdout returns a writer capturing the task's standard output stream.
	Stdout() io.Writer

	// Stderr returns a writer capturing the task's error output stream.
	Stderr() io.Writer

	// Complete marks the vertex as finished, successfully or with an error.
	Complete(err error)

	// Cached marks the vertex as a cache hit.
	Cached()
}

type vertexKey struct{}

// ContextWithVertex attaches a vertex to the context.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext retrieves the vertex attached to the context, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
