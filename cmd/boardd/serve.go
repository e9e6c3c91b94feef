package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tidemill/boardd/internal/render"
	"github.com/tidemill/boardd/pkg/pipeline"
	"github.com/tidemill/boardd/pkg/server"
)

var serveFrameLog string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the headless board daemon",
	Long: `Run boardd as a daemon: watch the configured source, keep the board
state current, and serve it over HTTP.

Endpoints:
  GET /health        liveness plus pipeline gate state
  GET /board         the current board as JSON
  GET /board/events  live board frames as Server-Sent Events
  GET /metrics       Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFrameLog, "frame-log", "",
		"append every rendered frame to this file as JSON lines")
}

// serveRenderer combines the HTTP server with an optional JSON frame log.
// The fan-out never short-circuits, so a full disk cannot stop frames from
// reaching SSE subscribers, and vice versa.
func serveRenderer(srv pipeline.Renderer, frameLog string) (pipeline.Renderer, io.Closer, error) {
	if frameLog == "" {
		return srv, nil, nil
	}
	f, err := os.OpenFile(frameLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open frame log: %w", err)
	}
	return render.NewMulti(srv, render.NewJSON(f, false)), f, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("starting boardd",
		zap.Int("port", a.cfg.Server.Port),
		zap.String("source", a.cfg.Source.Kind),
		zap.String("group_by_default", a.cfg.Board.GroupBy))

	// The server doubles as the pipeline's renderer; the status closure is
	// bound after the pipeline exists.
	var p *pipeline.Pipeline
	srv := server.New(server.Options{
		Config: server.Config{
			Port:              a.cfg.Server.Port,
			ShutdownTimeout:   a.cfg.Server.ShutdownTimeout,
			HeartbeatInterval: a.cfg.Server.HeartbeatInterval,
		},
		Logger: a.logger.Named("http"),
		Status: func() server.Status {
			if p == nil {
				return server.Status{}
			}
			return server.Status{Gate: p.GateState(), State: p.State()}
		},
	})

	renderer, frameLog, err := serveRenderer(srv, serveFrameLog)
	if err != nil {
		return err
	}
	if frameLog != nil {
		defer frameLog.Close()
	}

	p, err = pipeline.New(pipeline.Options{
		Renderer:  renderer,
		Projector: a.projector(),
		Logger:    a.logger.Named("pipeline"),
	})
	if err != nil {
		return err
	}

	src, err := a.newSource(ctx, nil)
	if err != nil {
		return err
	}
	if err := src.Start(ctx); err != nil {
		return err
	}
	defer src.Stop()

	a.logger.Info("source started", zap.String("name", src.Name()))

	go pump(ctx, src, p, a.logger)
	go func() { _ = p.Run(ctx) }()

	if err := srv.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
