package render

import (
	"context"
	"errors"

	"github.com/tidemill/boardd/pkg/pipeline"
)

// Multi fans one frame out to several renderers. Every renderer sees every
// frame; errors are collected rather than short-circuiting, so one failing
// sink cannot starve the others.
type Multi struct {
	renderers []pipeline.Renderer
}

// NewMulti combines renderers into one.
func NewMulti(renderers ...pipeline.Renderer) *Multi {
	return &Multi{renderers: renderers}
}

// Render implements pipeline.Renderer.
func (m *Multi) Render(ctx context.Context, frame pipeline.Frame) error {
	var errs []error
	for _, r := range m.renderers {
		if err := r.Render(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
