package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
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

func TestNewModel(t *testing.T) {
	model := NewModel(Options{Source: "file:board.yaml"})

	assert.Equal(t, "file:board.yaml", model.source)
	assert.Nil(t, model.frame)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	model := NewModel(Options{Source: "file:board.yaml"})

	// Init starts the spinner tick
	assert.NotNil(t, model.Init())
}

func TestModel_Update_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		t.Run(key, func(t *testing.T) {
			model := NewModel(Options{})

			var msg tea.Msg
			switch key {
			case "ctrl+c":
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			default:
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			}

			updated, cmd := model.Update(msg)

			m := updated.(Model)
			assert.True(t, m.quitting)
			assert.NotNil(t, cmd) // tea.Quit
		})
	}
}

func TestModel_Update_Frame(t *testing.T) {
	model := NewModel(Options{Source: "file:board.yaml"})
	model.lastErr = errors.New("stale failure")

	updated, cmd := model.Update(frameMsg(testFrame()))

	m := updated.(Model)
	require.NotNil(t, m.frame)
	assert.Equal(t, 3, m.frame.Records())
	assert.False(t, m.lastUpdate.IsZero())
	assert.Nil(t, m.lastErr, "a good frame clears the error banner")
	assert.Equal(t, []float64{3}, m.taskHistory)
	assert.Nil(t, cmd)
}

func TestModel_Update_FrameHistoryIsBounded(t *testing.T) {
	model := NewModel(Options{})

	var m tea.Model = model
	for i := 0; i < historySize+10; i++ {
		m, _ = m.(Model).Update(frameMsg(testFrame()))
	}

	assert.Len(t, m.(Model).taskHistory, historySize)
}

func TestModel_Update_SourceError(t *testing.T) {
	model := NewModel(Options{})

	updated, cmd := model.Update(sourceErrMsg{err: errors.New("connection refused")})

	m := updated.(Model)
	require.NotNil(t, m.lastErr)
	assert.Contains(t, m.lastErr.Error(), "connection refused")
	assert.Nil(t, cmd)
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(Options{})

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m := updated.(Model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestModel_View_Waiting(t *testing.T) {
	model := NewModel(Options{Source: "nats:boardd.updates"})

	got := model.View()

	assert.Contains(t, got, "boardd")
	assert.Contains(t, got, "waiting for board data")
	assert.Contains(t, got, "nats:boardd.updates")
	assert.Contains(t, got, "[q]")
}

func TestModel_View_WaitingWithError(t *testing.T) {
	model := NewModel(Options{Source: "file:board.yaml"})
	model.lastErr = errors.New("board.yaml: permission denied")

	got := model.View()

	assert.Contains(t, got, "waiting for board data")
	assert.Contains(t, got, "permission denied")
}

func TestModel_View_Board(t *testing.T) {
	model := NewModel(Options{Source: "file:board.yaml"})
	updated, _ := model.Update(frameMsg(testFrame()))

	got := updated.(Model).View()

	assert.Contains(t, got, "grouped by status")
	assert.Contains(t, got, "To Do (1)")
	assert.Contains(t, got, "done (1)")
	assert.Contains(t, got, "none (1)")
	assert.Contains(t, got, "#1")
	assert.Contains(t, got, "Fix watcher shutdown")
	assert.Contains(t, got, "Tasks:")
	assert.Contains(t, got, "Coverage:")
	assert.Contains(t, got, "#4") // update seq
	assert.NotContains(t, got, "waiting for board data")
}

func TestModel_View_BoardWithSourceError(t *testing.T) {
	model := NewModel(Options{})
	updated, _ := model.Update(frameMsg(testFrame()))
	updated, _ = updated.(Model).Update(sourceErrMsg{err: errors.New("poll failed")})

	got := updated.(Model).View()

	// The board stays up; the error is a banner, not a teardown
	assert.Contains(t, got, "To Do (1)")
	assert.Contains(t, got, "poll failed")
}

func TestModel_View_EmptyBoard(t *testing.T) {
	model := NewModel(Options{})
	frame := pipeline.Frame{Key: board.KeyNone, Source: view.SourceNone, Seq: 1, Time: time.Now()}
	updated, _ := model.Update(frameMsg(frame))

	got := updated.(Model).View()

	assert.Contains(t, got, "no tasks")
}

func TestModel_View_UngroupedBoardHidesCoverage(t *testing.T) {
	records := board.Records([]board.RawItem{
		{"id": 1, "title": "Solo task"},
	})
	frame := pipeline.Frame{
		Buckets: board.Assign(records, board.KeyNone),
		Key:     board.KeyNone,
		Source:  view.SourceNone,
		Seq:     2,
		Time:    time.Now(),
	}

	model := NewModel(Options{})
	updated, _ := model.Update(frameMsg(frame))

	got := updated.(Model).View()

	// Coverage measures grouping-key presence; without a key it means nothing
	assert.NotContains(t, got, "Coverage:")
	assert.Contains(t, got, "Tasks:")
}

func TestModel_View_Quitting(t *testing.T) {
	model := NewModel(Options{})
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.Empty(t, updated.(Model).View())
}

func TestGroupCoverage(t *testing.T) {
	tests := []struct {
		name  string
		items []board.RawItem
		want  float64
	}{
		{
			name: "all grouped",
			items: []board.RawItem{
				{"id": 1, "status": "todo"},
				{"id": 2, "status": "done"},
			},
			want: 1.0,
		},
		{
			name: "half grouped",
			items: []board.RawItem{
				{"id": 1, "status": "todo"},
				{"id": 2},
			},
			want: 0.5,
		},
		{
			name:  "no records",
			items: nil,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := pipeline.Frame{
				Buckets: board.Assign(board.Records(tt.items), "status"),
				Key:     "status",
			}
			assert.Equal(t, tt.want, groupCoverage(frame))
		})
	}
}

func TestColumnWidth(t *testing.T) {
	model := NewModel(Options{})

	// No window size yet: default
	assert.Equal(t, maxColumnWidth, model.columnWidth(3))

	model.width = 120
	assert.Equal(t, maxColumnWidth, model.columnWidth(3)) // plenty of room

	model.width = 70
	w := model.columnWidth(3)
	assert.GreaterOrEqual(t, w, minColumnWidth)
	assert.Less(t, w, maxColumnWidth)

	model.width = 20
	assert.Equal(t, minColumnWidth, model.columnWidth(4)) // clamped
}
