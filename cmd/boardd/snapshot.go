package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidemill/boardd/internal/render"
	"github.com/tidemill/boardd/pkg/pipeline"
)

var (
	snapshotJSON    bool
	snapshotPretty  bool
	snapshotTimeout time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render the current board once and exit",
	Long: `Wait for the first data-bearing update from the configured source,
render the board to stdout, and exit. Useful in scripts and CI.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "emit JSON instead of columns")
	snapshotCmd.Flags().BoolVar(&snapshotPretty, "pretty", false, "indent JSON output")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 10*time.Second,
		"how long to wait for a data-bearing update")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	src, err := a.newSource(ctx, nil)
	if err != nil {
		return err
	}
	if err := src.Start(ctx); err != nil {
		return err
	}
	defer src.Stop()

	var renderer pipeline.Renderer = render.NewText(os.Stdout)
	if snapshotJSON {
		renderer = render.NewJSON(os.Stdout, snapshotPretty)
	}

	p, err := pipeline.New(pipeline.Options{
		Renderer:  renderer,
		Projector: a.projector(),
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	deadline := time.NewTimer(snapshotTimeout)
	defer deadline.Stop()

	// Empty updates before the first board carry nothing to draw; keep
	// waiting for one with data.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("no data-bearing update from %s within %s", src.Name(), snapshotTimeout)
		case n := <-src.Notifications():
			if st := p.Process(ctx, n.Event, n.Context); st.Rendered() {
				return nil
			}
		}
	}
}
