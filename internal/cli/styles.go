package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	streakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(24)
)

func success(format string, args ...interface{}) string {
	return successStyle.Render("✓ " + fmt.Sprintf(format, args...))
}

func warning(format string, args ...interface{}) string {
	return warningStyle.Render("⚠️  " + fmt.Sprintf(format, args...))
}

func field(label string, value interface{}) string {
	return labelStyle.Render(label+":") + fmt.Sprint(value)
}

// progressBar renders ratio (0..1) as a fixed-width bar.
func progressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return successStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func humanSize(n int64) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024.0)
}
