package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// CoresPerRow is how many core boxes share a line.
const CoresPerRow = 4

// RenderCores draws n boxes, CoresPerRow to a line.
func RenderCores(n int) string {
	if n <= 0 {
		return ""
	}
	var rows []string
	for left := n; left > 0; left -= CoresPerRow {
		boxes := make([]string, min(left, CoresPerRow))
		for i := range boxes {
			boxes[i] = coreBox.Render("")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
