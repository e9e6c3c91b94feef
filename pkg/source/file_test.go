package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/taskfile"
	"github.com/tidemill/boardd/pkg/view"
)

// waitNotification blocks until src emits or the test deadline passes.
func waitNotification(t *testing.T, src Source) Notification {
	t.Helper()
	select {
	case n := <-src.Notifications():
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
		return Notification{}
	}
}

func TestNewFileSourceRequiresPath(t *testing.T) {
	_, err := NewFileSource(FileOptions{})
	require.Error(t, err)
}

func TestFileSourceInitialRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 1\n    status: todo\n"), 0644))

	src, err := NewFileSource(FileOptions{Path: path, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	n := waitNotification(t, src)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, src.Name(), n.Source)
	assert.Equal(t, board.ShapeFlat, n.Event.Shape)
	require.Len(t, board.Extract(n.Event), 1)
}

func TestFileSourceEmitsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 1\n"), 0644))

	src, err := NewFileSource(FileOptions{
		Path:     path,
		Base:     view.Context{Config: "status"},
		Debounce: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	// Swallow the initial read.
	waitNotification(t, src)

	time.Sleep(50 * time.Millisecond)
	updated := []byte("group_by: assignee\ntasks:\n  - id: 2\n    assignee: mara\n")
	require.NoError(t, os.WriteFile(path, updated, 0644))

	n := waitNotification(t, src)
	items := board.Extract(n.Event)
	require.Len(t, items, 1)

	// The file's own hint lands at query level; configured context survives
	// underneath it.
	assert.Equal(t, "assignee", n.Context.Query)
	assert.Equal(t, "status", n.Context.Config)
}

func TestFileSourceWaitsForFileToAppear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")

	src, err := NewFileSource(FileOptions{Path: path, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 9\n"), 0644))

	n := waitNotification(t, src)
	require.Len(t, board.Extract(n.Event), 1)
}

func TestFileSourceSkipsUnparsableWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 1\n"), 0644))

	src, err := NewFileSource(FileOptions{Path: path, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))
	waitNotification(t, src)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tasks: [unclosed"), 0644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 3\n"), 0644))

	// The broken intermediate write produced nothing; the next notification
	// carries the repaired file.
	n := waitNotification(t, src)
	items := board.Extract(n.Event)
	require.Len(t, items, 1)
	rec, ok := board.Record(items[0])
	require.True(t, ok)
	assert.Equal(t, "3", rec.ID)
}

func TestFileSourceReportsAbsorbedErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  - id: 1\n"), 0644))

	errs := make(chan error, 1)
	src, err := NewFileSource(FileOptions{
		Path:     path,
		Debounce: 10 * time.Millisecond,
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer src.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))
	waitNotification(t, src)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("tasks: [unclosed"), 0644))

	// The broken write is absorbed (no notification), but not silent.
	select {
	case err := <-errs:
		require.ErrorIs(t, err, taskfile.ErrMalformed)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for absorbed error report")
	}
}

func TestFileSourceName(t *testing.T) {
	dir := t.TempDir()
	src, err := NewFileSource(FileOptions{Path: filepath.Join(dir, "board.yaml")})
	require.NoError(t, err)
	defer src.Stop()

	assert.Equal(t, "file:board.yaml", src.Name())
}
