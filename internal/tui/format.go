package tui

import (
	"fmt"
	"time"
)

// FormatAge formats how long ago an update arrived, coarsely.
func FormatAge(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	age := now.Sub(at)
	switch {
	case age < 2*time.Second:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm ago", int(age.Hours()), int(age.Minutes())%60)
	}
}

// truncate shortens s to at most max runes, ellipsized. Non-positive max
// leaves s alone; a column too narrow to truncate into is a layout problem,
// not a text problem.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
