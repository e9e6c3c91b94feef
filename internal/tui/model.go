package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/pipeline"
)

const (
	historySize     = 40
	sparklineWidth  = 24
	sparklineHeight = 2
	minColumnWidth  = 18
	maxColumnWidth  = 30
)

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	columnTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("51")).
				Bold(true)

	fallbackTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Bold(true)

	cardIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)
)

// Message types
type frameMsg pipeline.Frame
type sourceErrMsg struct{ err error }

// Model is the BubbleTea model for the board.
//
// It holds the last rendered frame; nothing is recomputed here. Grouping,
// bucket order, and labels all arrive decided inside the frame.
type Model struct {
	source     string
	frame      *pipeline.Frame
	lastUpdate time.Time
	lastErr    error
	quitting   bool

	width  int
	height int

	spin     spinner.Model
	coverage progress.Model

	// Total task count per frame, for the volume sparkline
	taskHistory []float64
}

// NewModel creates the board model.
func NewModel(opts Options) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(spinnerStyle),
	)

	cov := progress.New(
		progress.WithGradient("#00ffff", "#00ff00"),
		progress.WithWidth(30),
	)

	return Model{
		source:      opts.Source,
		spin:        sp,
		coverage:    cov,
		taskHistory: make([]float64, 0, historySize),
	}
}

// Init starts the waiting spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		frame := pipeline.Frame(msg)
		m.frame = &frame
		m.lastUpdate = frame.Time
		if m.lastUpdate.IsZero() {
			m.lastUpdate = time.Now()
		}
		m.lastErr = nil
		m.taskHistory = appendToHistory(m.taskHistory, float64(frame.Records()))
		return m, nil

	case sourceErrMsg:
		m.lastErr = msg.err
		return m, nil

	case spinner.TickMsg:
		// The spinner only runs while there is no board yet
		if m.frame != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the board
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.frame == nil {
		return m.renderWaiting()
	}
	return m.renderBoard()
}

// renderWaiting is shown until the first frame arrives. An empty update with
// nothing rendered before it keeps us here; that is the signal that there is
// no data yet, not a board with zero tasks.
func (m Model) renderWaiting() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(" boardd "))
	b.WriteString("\n\n")
	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(dimStyle.Render("waiting for board data"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Source: "))
	b.WriteString(valueStyle.Render(m.source))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("⚠ " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

// renderBoard renders columns plus the stats section.
func (m Model) renderBoard() string {
	frame := *m.frame
	var b strings.Builder

	header := headerStyle.Render(" boardd ")
	grouping := fmt.Sprintf("grouped by %s (%s)", frame.Key, frame.Source)
	headerLine := fmt.Sprintf("%s   %s   %s",
		header,
		valueStyle.Render(grouping),
		dimStyle.Render(FormatAge(m.lastUpdate, time.Now())))
	b.WriteString(headerLine)
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("⚠ source: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	if len(frame.Buckets) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("no tasks"))
		b.WriteString("\n")
	} else {
		width := m.columnWidth(len(frame.Buckets))
		columns := make([]string, 0, len(frame.Buckets))
		for _, bucket := range frame.Buckets {
			columns = append(columns, m.renderColumn(frame, bucket, width))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStats(frame))
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderColumn(frame pipeline.Frame, bucket board.Bucket, width int) string {
	style := columnTitleStyle
	if bucket.Name == board.FallbackBucket {
		style = fallbackTitleStyle
	}
	title := style.Render(fmt.Sprintf("%s (%d)", frame.Context.Label(bucket.Name), len(bucket.Records)))

	lines := make([]string, 0, len(bucket.Records)+1)
	lines = append(lines, title)
	for _, rec := range bucket.Records {
		lines = append(lines, m.renderCard(rec, width))
	}

	return columnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCard(rec board.TaskRecord, width int) string {
	title := rec.Title
	if title == "" {
		title = "(untitled)"
	}
	title = truncate(title, width-len(rec.ID)-5)
	return cardIDStyle.Render("#"+rec.ID) + " " + title
}

// renderStats renders the totals line, the coverage bar, and the volume
// sparkline. Coverage is the share of tasks that carry a value for the
// grouping key; everything else fell into the fallback bucket.
func (m Model) renderStats(frame pipeline.Frame) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ Board"))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("  Tasks: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", frame.Records())))
	b.WriteString("   ")
	b.WriteString(renderSparkline(m.taskHistory))
	b.WriteString("\n")

	if !frame.Key.IsNone() {
		ratio := groupCoverage(frame)
		b.WriteString(labelStyle.Render("  Coverage: "))
		b.WriteString(m.coverage.ViewAs(ratio))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%.0f%%", ratio*100)))
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("  Update: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("#%d", frame.Seq)))
	b.WriteString(dimStyle.Render("  " + m.source))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderFooter() string {
	return "\n" + footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerStyle.Render("auto-updates on")
}

// columnWidth fits n columns into the window, clamped to a readable range.
func (m Model) columnWidth(n int) int {
	if m.width <= 0 || n <= 0 {
		return maxColumnWidth
	}
	w := m.width/n - 4
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	if w < minColumnWidth {
		w = minColumnWidth
	}
	return w
}

// groupCoverage returns the share of records outside the fallback bucket.
func groupCoverage(frame pipeline.Frame) float64 {
	total := frame.Records()
	if total == 0 {
		return 0
	}
	fallback := 0
	if bucket, ok := frame.Buckets.Get(board.FallbackBucket); ok {
		fallback = len(bucket.Records)
	}
	return float64(total-fallback) / float64(total)
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// renderSparkline renders historical data as a small chart.
func renderSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}
