package taskfile

import (
	"context"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
)

// entryKind is the task file field that marks non-task entries. Task files
// may interleave notes and section markers with tasks; only entries whose
// kind is "task", or that carry no kind at all, belong on the board.
const entryKind = "kind"

// NewProjector returns the projector for task file data: it drops non-task
// entries, then converts the rest to records, skipping any that are
// individually malformed.
func NewProjector() pipeline.Projector {
	return pipeline.ProjectorFunc(func(ctx context.Context, items []board.RawItem) ([]board.TaskRecord, error) {
		kept := make([]board.RawItem, 0, len(items))
		for _, item := range items {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			if kind, ok := item[entryKind].(string); ok && kind != "task" {
				continue
			}
			kept = append(kept, item)
		}
		return board.Records(kept), nil
	})
}
