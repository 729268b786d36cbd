package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#F2A541")
	colorInfo    = lipgloss.Color("#5BC0EB")
	colorSuccess = lipgloss.Color("#39D353")
	colorWarning = lipgloss.Color("#FFB000")
	colorError   = lipgloss.Color("#FF4D4D")
	colorDim     = lipgloss.Color("#8A8A8A")

	logoStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2)

	labelStyle     = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	barStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// Cyan, Yellow, Red, Green, Magenta and Dim render text with the matching
// status style
func Cyan(s string) string    { return labelStyle.Render(s) }
func Yellow(s string) string  { return valueStyle.Render(s) }
func Red(s string) string     { return errorStyle.Render(s) }
func Green(s string) string   { return successStyle.Render(s) }
func Magenta(s string) string { return highlightStyle.Render(s) }
func Dim(s string) string     { return dimStyle.Render(s) }
