package pipeline

import (
	"context"
	"time"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// Projector converts raw update items into task records. Implementations may
// perform I/O (filesystem lookups, API calls) and must honor ctx
// cancellation. Items that cannot be converted are skipped, not errored; a
// non-nil error means the whole batch failed and the previous board is kept.
type Projector interface {
	Project(ctx context.Context, items []board.RawItem) ([]board.TaskRecord, error)
}

// ProjectorFunc adapts a plain function to the Projector interface.
type ProjectorFunc func(ctx context.Context, items []board.RawItem) ([]board.TaskRecord, error)

// Project calls f.
func (f ProjectorFunc) Project(ctx context.Context, items []board.RawItem) ([]board.TaskRecord, error) {
	return f(ctx, items)
}

// DefaultProjector performs the in-process record conversion with no I/O.
func DefaultProjector() Projector {
	return ProjectorFunc(func(_ context.Context, items []board.RawItem) ([]board.TaskRecord, error) {
		return board.Records(items), nil
	})
}

// Frame is one complete board handed to a Renderer. A frame always replaces
// whatever the renderer showed before; renderers never receive deltas.
type Frame struct {
	// Buckets in display order.
	Buckets board.Buckets

	// Key is the grouping key the buckets were built from, KeyNone when the
	// board collapsed to the single fallback bucket.
	Key board.Key

	// Source names where Key came from, for diagnostics and footers.
	Source view.SourceName

	// Context is the view context the frame was resolved against. Renderers
	// use it for bucket labels.
	Context view.Context

	// Seq is the admission sequence number of the update that produced this
	// frame. Strictly increasing across committed frames.
	Seq uint64

	// Time the frame was assembled.
	Time time.Time
}

// Records returns the total record count across all buckets.
func (f Frame) Records() int {
	return f.Buckets.TotalRecords()
}

// Renderer consumes frames. Render must be idempotent for a given frame and
// must tolerate being handed an identical board twice in a row. A Renderer
// is only ever called from the pipeline worker, never concurrently.
type Renderer interface {
	Render(ctx context.Context, frame Frame) error
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, frame Frame) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, frame Frame) error {
	return f(ctx, frame)
}
