package app

import "github.com/charmbracelet/lipgloss"

var (
	chromeBG        = lipgloss.Color("#0B0F14")
	panelBorder     = lipgloss.Color("#3B4B63")
	accentPrimary   = lipgloss.Color("#8B5CF6")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#8CA1AE")
	warningText     = lipgloss.Color("#FF6B6B")
	successText     = lipgloss.Color("#34D399")
	infoText        = lipgloss.Color("#60A5FA")

	historicalSeriesColor = lipgloss.Color("#a78bfa")
	forecastSeriesColor   = lipgloss.Color("#6366f1")
	perceivedSeriesColor  = lipgloss.Color("#ec4899")
	distSeriesColor       = lipgloss.Color("#4299e1")
	byMonthSeriesColor    = lipgloss.Color("#6366f1")
	byDaySeriesColor      = lipgloss.Color("#a78bfa")
	byHourSeriesColor     = lipgloss.Color("#ec4899")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	navStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true).
			Underline(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(mutedText)

	statCardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(accentPrimary).
				Bold(true)

	flashInfoStyle = lipgloss.NewStyle().
			Foreground(infoText)

	flashSuccessStyle = lipgloss.NewStyle().
				Foreground(successText)

	flashDangerStyle = lipgloss.NewStyle().
				Foreground(warningText)
)

func mutedTextStyle(text string) string {
	return lipgloss.NewStyle().Foreground(mutedText).Render(text)
}
