// Package server exposes the rendered board over HTTP.
//
// The server is itself a pipeline renderer: every frame the pipeline commits
// is stored as the current board and broadcast to subscribers. GET /board
// serves the stored frame, GET /board/events streams frames as Server-Sent
// Events, and GET /metrics serves Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
)

// Config holds HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ShutdownTimeout   time.Duration
	HeartbeatInterval time.Duration
}

// Status is a point-in-time pipeline snapshot for the health endpoint.
type Status struct {
	Gate  pipeline.GateState
	State board.State
}

// StatusFunc supplies the health handler with pipeline state.
type StatusFunc func() Status

// Options configures a Server.
type Options struct {
	Config Config

	// Logger defaults to a nop logger.
	Logger *zap.Logger

	// Status is optional; without it /health reports liveness only.
	Status StatusFunc
}

// Server serves the board over HTTP and SSE.
type Server struct {
	echo    *echo.Echo
	logger  *zap.Logger
	config  Config
	status  StatusFunc
	metrics *HTTPMetrics

	mu      sync.RWMutex
	frame   *pipeline.Frame
	subs    map[uint64]chan pipeline.Frame
	nextSub uint64
}

// New creates the HTTP server. Start runs it.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg.Port == 0 {
		cfg.Port = 8480
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		logger:  logger,
		config:  cfg,
		status:  opts.Status,
		metrics: NewHTTPMetrics(logger),
		subs:    make(map[uint64]chan pipeline.Frame),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	e.Use(s.metrics.Middleware())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/board", s.handleBoard)
	s.echo.GET("/board/events", s.handleEvents)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// requestLogger logs one line per completed request.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Gate     string `json:"gate,omitempty"`
	Seq      uint64 `json:"seq"`
	Rendered bool   `json:"rendered"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.status != nil {
		st := s.status()
		resp.Gate = st.Gate.String()
		resp.Seq = st.State.Seq
		resp.Rendered = st.State.Rendered()
	}
	return c.JSON(http.StatusOK, resp)
}

// BoardResponse is the board envelope served by GET /board and streamed on
// /board/events. It matches the JSON renderer's wire shape.
type BoardResponse struct {
	Seq     uint64          `json:"seq"`
	GroupBy string          `json:"group_by"`
	Source  string          `json:"source"`
	Time    time.Time       `json:"time"`
	Records int             `json:"records"`
	Buckets []BucketPayload `json:"buckets"`
}

// BucketPayload is one column of the board.
type BucketPayload struct {
	Name    string             `json:"name"`
	Label   string             `json:"label,omitempty"`
	Records []board.TaskRecord `json:"records"`
}

func boardResponse(frame pipeline.Frame) BoardResponse {
	resp := BoardResponse{
		Seq:     frame.Seq,
		GroupBy: frame.Key.String(),
		Source:  string(frame.Source),
		Time:    frame.Time,
		Records: frame.Records(),
		Buckets: make([]BucketPayload, 0, len(frame.Buckets)),
	}
	for _, bucket := range frame.Buckets {
		bp := BucketPayload{
			Name:    bucket.Name,
			Records: bucket.Records,
		}
		if label := frame.Context.Label(bucket.Name); label != bucket.Name {
			bp.Label = label
		}
		resp.Buckets = append(resp.Buckets, bp)
	}
	return resp
}

func (s *Server) handleBoard(c echo.Context) error {
	frame, ok := s.latest()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no board rendered yet")
	}
	return c.JSON(http.StatusOK, boardResponse(frame))
}

// Render implements pipeline.Renderer: the frame becomes the current board
// and is fanned out to SSE subscribers. Subscriber channels hold one frame;
// a fresh frame displaces an unconsumed stale one, so a slow client never
// blocks the pipeline.
func (s *Server) Render(_ context.Context, frame pipeline.Frame) error {
	s.mu.Lock()
	s.frame = &frame
	subs := make([]chan pipeline.Frame, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
	return nil
}

// latest returns the current board, if one has been rendered.
func (s *Server) latest() (pipeline.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return pipeline.Frame{}, false
	}
	return *s.frame, true
}

func (s *Server) subscribe() (uint64, chan pipeline.Frame) {
	ch := make(chan pipeline.Frame, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	return id, ch
}

func (s *Server) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Echo returns the underlying Echo instance, mainly for tests and for
// registering additional routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server and blocks until the context is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown, or any other error
// encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down http server")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}
