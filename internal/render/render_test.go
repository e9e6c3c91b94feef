package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
	"github.com/tidemill/boardd/pkg/view"
)

func testFrame() pipeline.Frame {
	records := board.Records([]board.RawItem{
		{"id": 1, "title": "Fix watcher shutdown", "status": "todo"},
		{"id": 2, "title": "Wire SSE heartbeat", "status": "done"},
		{"id": 3, "title": "Untriaged"},
	})
	vctx := view.Context{
		View:   "status",
		Labels: map[string]string{"todo": "To Do"},
	}
	return pipeline.Frame{
		Buckets: board.Assign(records, "status"),
		Key:     "status",
		Source:  view.SourceView,
		Context: vctx,
		Seq:     4,
		Time:    time.Now(),
	}
}

func TestTextRenderFullBoard(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	require.NoError(t, r.Render(context.Background(), testFrame()))

	out := buf.String()
	assert.Contains(t, out, "boardd")
	assert.Contains(t, out, "grouped by status")
	assert.Contains(t, out, "To Do (1)")
	assert.Contains(t, out, "done (1)")
	assert.Contains(t, out, "none (1)")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Fix watcher shutdown")
}

func TestTextRenderEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	frame := pipeline.Frame{Key: board.KeyNone, Source: view.SourceNone, Seq: 1}
	require.NoError(t, r.Render(context.Background(), frame))

	assert.Contains(t, buf.String(), "no tasks")
}

func TestTextRenderReplacesNotAppends(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	frame := testFrame()

	require.NoError(t, r.Render(context.Background(), frame))
	first := buf.String()
	buf.Reset()
	require.NoError(t, r.Render(context.Background(), frame))

	// Identical frame renders identically; the writer target decides what
	// replacement means.
	assert.Equal(t, first, buf.String())
}

func TestTextCardTruncatesOnRuneBoundary(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	got := r.card("1", strings.Repeat("ü", 40))

	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "ü…")
	assert.NotContains(t, got, "�")
}

func TestJSONRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSON(&buf, false)

	require.NoError(t, r.Render(context.Background(), testFrame()))

	var env struct {
		Seq     uint64 `json:"seq"`
		GroupBy string `json:"group_by"`
		Source  string `json:"source"`
		Records int    `json:"records"`
		Buckets []struct {
			Name    string `json:"name"`
			Label   string `json:"label"`
			Records []struct {
				ID string `json:"id"`
			} `json:"records"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.Equal(t, uint64(4), env.Seq)
	assert.Equal(t, "status", env.GroupBy)
	assert.Equal(t, "view", env.Source)
	assert.Equal(t, 3, env.Records)

	require.Len(t, env.Buckets, 3)
	assert.Equal(t, "todo", env.Buckets[0].Name)
	assert.Equal(t, "To Do", env.Buckets[0].Label)
	assert.Equal(t, "done", env.Buckets[1].Name)
	assert.Equal(t, "none", env.Buckets[2].Name)
	require.Len(t, env.Buckets[0].Records, 1)
	assert.Equal(t, "1", env.Buckets[0].Records[0].ID)
}

func TestMultiRendersAllEvenOnFailure(t *testing.T) {
	boom := errors.New("sink unavailable")
	var calls int
	failing := pipeline.RendererFunc(func(context.Context, pipeline.Frame) error {
		calls++
		return boom
	})
	counting := pipeline.RendererFunc(func(context.Context, pipeline.Frame) error {
		calls++
		return nil
	})

	m := NewMulti(failing, counting)
	err := m.Render(context.Background(), testFrame())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
