package repl

import "github.com/charmbracelet/lipgloss"

var (
	aiLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000")).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF00"))
)
