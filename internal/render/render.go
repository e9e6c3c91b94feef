// Package render holds the built-in renderers: plain-text lipgloss columns
// for terminals and one-shot output, a JSON stream for piping, and a fan-out
// combinator. The interactive board lives in internal/tui; these renderers
// are for everything that is not a full-screen program.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
)

const defaultColumnWidth = 28

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	fallbackTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Bold(true)

	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Text renders the whole board as bordered lipgloss columns. Every call
// writes a complete board; nothing is diffed against the previous call.
type Text struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

// NewText creates a text renderer writing to out.
func NewText(out io.Writer) *Text {
	return &Text{out: out, width: defaultColumnWidth}
}

// Render implements pipeline.Renderer.
func (r *Text) Render(_ context.Context, frame pipeline.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.out, r.board(frame)+"\n")
	return err
}

func (r *Text) board(frame pipeline.Frame) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("boardd"))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d tasks, grouped by %s (%s)",
		frame.Records(), frame.Key, frame.Source)))
	b.WriteString("\n")

	if len(frame.Buckets) == 0 {
		b.WriteString(dimStyle.Render("no tasks"))
		return b.String()
	}

	columns := make([]string, 0, len(frame.Buckets))
	for _, bucket := range frame.Buckets {
		columns = append(columns, r.column(frame, bucket.Name))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	return b.String()
}

func (r *Text) column(frame pipeline.Frame, name string) string {
	bucket, _ := frame.Buckets.Get(name)

	style := titleStyle
	if bucket.Name == board.FallbackBucket {
		style = fallbackTitleStyle
	}
	title := style.Render(fmt.Sprintf("%s (%d)", frame.Context.Label(bucket.Name), len(bucket.Records)))

	lines := make([]string, 0, len(bucket.Records)+1)
	lines = append(lines, title)
	for _, rec := range bucket.Records {
		lines = append(lines, r.card(rec.ID, rec.Title))
	}

	return columnStyle.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Text) card(id, title string) string {
	text := title
	if text == "" {
		text = "(untitled)"
	}
	// Truncate by runes, not bytes; a multi-byte title must never be cut
	// mid-character.
	max := r.width - len(id) - 5
	if runes := []rune(text); max > 0 && len(runes) > max {
		if max == 1 {
			text = "…"
		} else {
			text = string(runes[:max-1]) + "…"
		}
	}
	return idStyle.Render("#"+id) + " " + cardStyle.Render(text)
}
