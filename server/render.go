package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	columnStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5f9fb0")).
		Padding(0, 1).
		Width(28)
	columnTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f39c12"))
	doneTaskStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#6c757d"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
)

// renderBoard lays the columns out side by side. Completed tasks are struck
// through.
func renderBoard(title string, board []BoardColumn) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
		b.WriteString("\n")
	}
	if len(board) == 0 {
		b.WriteString(mutedStyle.Render("(no columns)"))
		b.WriteString("\n")
		return b.String()
	}
	blocks := make([]string, 0, len(board))
	for _, c := range board {
		blocks = append(blocks, renderColumn(c))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	b.WriteString("\n")
	return b.String()
}

func renderColumn(c BoardColumn) string {
	lines := []string{columnTitleStyle.Render(fmt.Sprintf("%s (%d)", c.Title, len(c.Tasks)))}
	if len(c.Tasks) == 0 {
		lines = append(lines, mutedStyle.Render("empty"))
	}
	for _, t := range c.Tasks {
		line := fmt.Sprintf("%d. %s", t.Position, t.Title)
		if t.Completed {
			line = doneTaskStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
