package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
	"github.com/tidemill/boardd/pkg/view"
)

func TestServeRendererWithoutFrameLog(t *testing.T) {
	calls := 0
	srv := pipeline.RendererFunc(func(context.Context, pipeline.Frame) error {
		calls++
		return nil
	})

	r, closer, err := serveRenderer(srv, "")
	require.NoError(t, err)
	require.Nil(t, closer)

	require.NoError(t, r.Render(context.Background(), pipeline.Frame{Seq: 1}))
	assert.Equal(t, 1, calls)
}

func TestServeRendererTeesFramesToLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	calls := 0
	srv := pipeline.RendererFunc(func(context.Context, pipeline.Frame) error {
		calls++
		return nil
	})

	r, closer, err := serveRenderer(srv, path)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	records := board.Records([]board.RawItem{{"id": 1, "status": "todo"}})
	frame := pipeline.Frame{
		Buckets: board.Assign(records, "status"),
		Key:     "status",
		Source:  view.SourceView,
		Seq:     3,
		Time:    time.Now(),
	}
	require.NoError(t, r.Render(context.Background(), frame))

	// Both sinks saw the frame: the server renderer and the log file.
	assert.Equal(t, 1, calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var env struct {
		Seq     uint64 `json:"seq"`
		GroupBy string `json:"group_by"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, uint64(3), env.Seq)
	assert.Equal(t, "status", env.GroupBy)
}

func TestServeRendererUnwritableLogPath(t *testing.T) {
	srv := pipeline.RendererFunc(func(context.Context, pipeline.Frame) error { return nil })

	// A directory is not a writable log file.
	_, _, err := serveRenderer(srv, t.TempDir())
	require.Error(t, err)
}
