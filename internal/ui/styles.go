package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	memoryMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	cpuMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	coreBox     = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("60")).
			Width(2).
			MarginRight(2)
)
