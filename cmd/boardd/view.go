package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tidemill/boardd/internal/tui"
	"github.com/tidemill/boardd/pkg/pipeline"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the board in the terminal",
	Long: `Open the interactive full-screen board. Columns repaint in place as
updates arrive from the configured source; press q to quit.`,
	RunE: runView,
}

func runView(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The TUI owns the terminal; logs would corrupt it.
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// The logger is muted, so absorbed source errors surface as the UI's
	// error banner instead. The ui variable is assigned before the source
	// starts; the callback never fires before then.
	var ui *tui.UI
	src, err := a.newSource(ctx, func(err error) { ui.ReportError(err) })
	if err != nil {
		return err
	}
	defer src.Stop()

	ui = tui.New(tui.Options{Source: src.Name()})

	if err := src.Start(ctx); err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Options{
		Renderer:  ui,
		Projector: a.projector(),
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go pump(runCtx, src, p, a.logger)
	go func() { _ = p.Run(runCtx) }()
	go func() {
		<-runCtx.Done()
		ui.Quit()
	}()

	if err := ui.Run(); err != nil {
		return fmt.Errorf("board ui: %w", err)
	}
	return nil
}
