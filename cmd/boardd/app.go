package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tidemill/boardd/internal/config"
	"github.com/tidemill/boardd/internal/logging"
	"github.com/tidemill/boardd/internal/telemetry"
	"github.com/tidemill/boardd/pkg/pipeline"
	"github.com/tidemill/boardd/pkg/source"
	"github.com/tidemill/boardd/pkg/taskfile"
	"github.com/tidemill/boardd/pkg/view"
)

// userDefinitionFile is the per-user view definition, looked up under the
// config directory.
const userDefinitionFile = "view.toml"

// app holds the pieces every command wires the same way: configuration, the
// logger, telemetry, and the base view context.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	tel    *telemetry.Telemetry
	vctx   view.Context
}

// newApp loads configuration and initializes the ambient stack. quiet swaps
// the logger for a no-op one, for commands that own the terminal.
func newApp(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if !quiet {
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
	}

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Observability))
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	if health := tel.Health(); health.Degraded {
		logger.Warn("telemetry degraded", zap.String("reason", health.Reason))
	}

	vctx, err := baseContext(cfg)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, tel: tel, vctx: vctx}, nil
}

// Close flushes telemetry and the logger. Errors are swallowed; shutdown is
// best effort.
func (a *app) Close() {
	if a.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.tel.Shutdown(ctx)
	}
	_ = logging.Sync(a.logger)
}

// baseContext assembles the view context candidates that do not travel with
// individual updates: the view definition files and the application config
// default. Source-level candidates (a task file's group_by hint, a query's
// grouping mode) are folded in per notification by the source itself.
func baseContext(cfg *config.Config) (view.Context, error) {
	base := view.Context{
		Config: cfg.Board.GroupBy,
		Labels: cfg.Board.Labels,
	}

	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = ""
	}
	userPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		userPath = filepath.Join(home, ".config", "boardd", userDefinitionFile)
	}

	def, err := view.LoadDefinitions(projectDir, userPath)
	if err != nil {
		return view.Context{}, fmt.Errorf("load view definitions: %w", err)
	}
	return def.Context(base), nil
}

// newSource builds the update source selected by the configuration. onError
// receives errors the source absorbs while it keeps running; nil means logs
// only.
func (a *app) newSource(ctx context.Context, onError func(error)) (source.Source, error) {
	sc := a.cfg.Source
	switch sc.Kind {
	case config.SourceFile:
		return source.NewFileSource(source.FileOptions{
			Path:     sc.FilePath,
			Base:     a.vctx,
			Debounce: sc.Debounce,
			Logger:   a.logger.Named("source"),
			OnError:  onError,
		})
	case config.SourceGitHub:
		return source.NewGitHubSource(ctx, source.GitHubOptions{
			Owner:    sc.GitHubOwner,
			Repo:     sc.GitHubRepo,
			Token:    sc.GitHubToken.Value(),
			Base:     a.vctx,
			Interval: sc.GitHubInterval,
			Logger:   a.logger.Named("source"),
			OnError:  onError,
		})
	case config.SourceNATS:
		return source.NewNATSSource(source.NATSOptions{
			URL:     sc.NATSURL,
			Subject: sc.NATSSubject,
			Base:    a.vctx,
			Logger:  a.logger.Named("source"),
			OnError: onError,
		})
	default:
		return nil, fmt.Errorf("unknown source kind: %q", sc.Kind)
	}
}

// projector picks the record projector matching the configured source. Task
// files interleave notes with tasks, so the file source gets the
// kind-filtering projector; other sources emit task items only and use the
// pipeline default.
func (a *app) projector() pipeline.Projector {
	if a.cfg.Source.Kind == config.SourceFile {
		return taskfile.NewProjector()
	}
	return nil
}

// pump forwards source notifications into the pipeline until ctx is done.
func pump(ctx context.Context, src source.Source, p *pipeline.Pipeline, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-src.Notifications():
			seq := p.Notify(n.Event, n.Context)
			logger.Debug("update admitted",
				zap.String("notification_id", n.ID),
				zap.String("source", n.Source),
				zap.Uint64("seq", seq))
		}
	}
}
