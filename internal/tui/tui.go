// Package tui implements the interactive full-screen board.
//
// The board is a BubbleTea program fed by the render pipeline: UI satisfies
// pipeline.Renderer, so frames flow into the program the same way they flow
// into the plain-text and JSON renderers. Until the first frame arrives the
// program shows a spinner; after that every frame repaints the columns in
// place.
package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tidemill/boardd/pkg/pipeline"
)

// Options configures the board program.
type Options struct {
	// Source is the display name of the active update source, shown in the
	// waiting screen and the footer.
	Source string

	// Output and Input override the terminal streams, mainly for tests.
	// Nil means the process terminal.
	Output io.Writer
	Input  io.Reader
}

// UI wraps the running BubbleTea program.
type UI struct {
	program *tea.Program
}

// New builds the board program. Run starts it.
func New(opts Options) *UI {
	teaOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Output != nil {
		teaOpts = append(teaOpts, tea.WithOutput(opts.Output))
	}
	if opts.Input != nil {
		teaOpts = append(teaOpts, tea.WithInput(opts.Input))
	}
	return &UI{program: tea.NewProgram(NewModel(opts), teaOpts...)}
}

// Run blocks until the user quits or the program fails.
func (u *UI) Run() error {
	_, err := u.program.Run()
	return err
}

// Quit asks the program to exit. Safe to call from any goroutine.
func (u *UI) Quit() {
	u.program.Quit()
}

// Render implements pipeline.Renderer by delivering the frame to the running
// program. Send is goroutine-safe and does not block on the UI loop.
func (u *UI) Render(ctx context.Context, frame pipeline.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.program.Send(frameMsg(frame))
	return nil
}

// ReportError surfaces a source error in the board header without tearing
// the board down. A subsequent frame clears it.
func (u *UI) ReportError(err error) {
	if err == nil {
		return
	}
	u.program.Send(sourceErrMsg{err: err})
}
