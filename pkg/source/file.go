package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tidemill/boardd/pkg/taskfile"
	"github.com/tidemill/boardd/pkg/view"
)

// ErrWatcherFailed indicates the filesystem watcher could not be created.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce coalesces editor write bursts into one reload.
const DefaultDebounce = 100 * time.Millisecond

// FileSource watches a task file and emits a notification whenever its
// contents change. The file's own group_by hint is folded into the view
// context of every notification it produces.
type FileSource struct {
	path     string
	base     view.Context
	debounce time.Duration
	logger   *zap.Logger
	onError  func(error)

	watcher *fsnotify.Watcher
	notifs  chan Notification
	stop    chan struct{}
}

// FileOptions configures a FileSource.
type FileOptions struct {
	// Path of the task file to watch. Required.
	Path string

	// Base view context merged into every notification.
	Base view.Context

	// Debounce window for write bursts. Defaults to DefaultDebounce.
	Debounce time.Duration

	// Logger for watch diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnError is called with errors the source absorbs while it keeps
	// watching, so a frontend can surface them. Optional; must not block.
	OnError func(error)
}

// NewFileSource creates a source watching the task file at opts.Path. The
// file does not have to exist yet; a notification is emitted once it appears.
func NewFileSource(opts FileOptions) (*FileSource, error) {
	if opts.Path == "" {
		return nil, errors.New("file source: path is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	abs, err := filepath.Abs(opts.Path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve task file path: %w", err)
	}

	return &FileSource{
		path:     abs,
		base:     opts.Base,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onError:  opts.OnError,
		watcher:  watcher,
		notifs:   make(chan Notification, 10),
		stop:     make(chan struct{}),
	}, nil
}

// Name implements Source.
func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.path)
}

// Path returns the absolute path of the watched file.
func (s *FileSource) Path() string {
	return s.path
}

// Start implements Source. It performs one immediate read so the board has
// data without waiting for the first change, then watches for changes.
func (s *FileSource) Start(ctx context.Context) error {
	// Editors replace files on save, which breaks a watch on the file
	// itself; watch the directory and filter by name.
	dir := filepath.Dir(s.path)
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	if _, err := os.Stat(s.path); err == nil {
		s.emit(ctx)
	} else {
		s.logger.Info("task file not present yet, waiting for it",
			zap.String("path", s.path))
	}

	go s.processEvents(ctx)
	return nil
}

// Stop implements Source.
func (s *FileSource) Stop() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
		_ = s.watcher.Close()
	}
}

// Notifications implements Source.
func (s *FileSource) Notifications() <-chan Notification {
	return s.notifs
}

func (s *FileSource) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *FileSource) processEvents(ctx context.Context) {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			s.emit(ctx)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error, continuing", zap.Error(err))
			s.report(err)
		}
	}
}

// emit loads the file and sends a notification. A file that vanished or no
// longer parses is skipped; the board keeps showing its last state.
func (s *FileSource) emit(_ context.Context) {
	f, err := taskfile.Load(s.path)
	if err != nil {
		s.logger.Warn("task file unreadable, keeping last board",
			zap.String("path", s.path),
			zap.Error(err))
		s.report(err)
		return
	}

	n := newNotification(s.Name(), f.Event, f.Context(s.base))
	select {
	case s.notifs <- n:
		s.logger.Debug("task file change emitted",
			zap.String("notification_id", n.ID),
			zap.String("shape", f.Event.Shape.String()))
	default:
		s.logger.Debug("notification channel full, dropping",
			zap.String("notification_id", n.ID))
	}
}
