package tui

import "github.com/charmbracelet/lipgloss"

const buttonWidth = 7

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	expressionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	previewStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	buttonStyle = lipgloss.NewStyle().
			Width(buttonWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("237")).
			MarginRight(1)
	operatorButtonStyle = buttonStyle.Foreground(lipgloss.Color("214"))
	controlButtonStyle  = buttonStyle.Foreground(lipgloss.Color("203"))
	equalsButtonStyle   = buttonStyle.Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214"))
	activeButtonStyle   = buttonStyle.Bold(true).Foreground(lipgloss.Color("235")).Background(lipgloss.Color("205"))
)
