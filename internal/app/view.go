package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manishw7/air-quality-intelligence/internal/api"
	"github.com/manishw7/air-quality-intelligence/internal/aqi"
)

func (m Model) View() string {
	if !m.ready {
		return "Starting air quality dashboard..."
	}

	innerWidth := maxInt(70, m.width-2)
	innerHeight := maxInt(20, m.height-1)

	parts := []string{m.renderHeader(innerWidth)}
	parts = append(parts, m.renderFlashes()...)
	parts = append(parts, m.renderStatusLine())

	switch m.screen {
	case screenLogin:
		parts = append(parts, m.renderCredentialsScreen("Log In", "enter submit | tab next field | esc back"))
	case screenRegister:
		parts = append(parts, m.renderCredentialsScreen("Create Account", "enter submit | tab next field | esc back"))
	case screenProfile:
		parts = append(parts, m.renderProfileScreen())
	default:
		if m.edaOpen {
			parts = append(parts, m.renderEdaModal())
		} else {
			parts = append(parts, m.renderDashboard()...)
		}
	}

	body := fitTextHeight(strings.Join(parts, "\n"), innerHeight)
	return lipgloss.NewStyle().
		Background(chromeBG).
		Foreground(lipgloss.Color("#E8F0F2")).
		Width(innerWidth).
		Height(innerHeight).
		Padding(0, 1).
		Render(body)
}

func (m Model) renderHeader(width int) string {
	title := headerStyle.Render("AirSense · Air Quality Intelligence")
	var nav string
	if m.session.LoggedIn {
		nav = navStyle.Render("signed in as " + m.session.DisplayName() + " | u profile | x logout")
	} else {
		nav = navStyle.Render("guest | l login | r register")
	}
	gap := width - lipgloss.Width(title) - lipgloss.Width(nav) - 2
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + nav
}

func (m Model) renderFlashes() []string {
	lines := make([]string, 0, len(m.flashes))
	for _, entry := range m.flashes {
		switch entry.level {
		case flashSuccess:
			lines = append(lines, flashSuccessStyle.Render("✓ "+entry.text))
		case flashWarning:
			lines = append(lines, flashDangerStyle.Render("! "+entry.text))
		case flashDanger:
			lines = append(lines, flashDangerStyle.Render("✗ "+entry.text))
		default:
			lines = append(lines, flashInfoStyle.Render("ℹ "+entry.text))
		}
	}
	return lines
}

func (m Model) renderStatusLine() string {
	if m.errorText != "" {
		return errorStyle.Render(m.errorText)
	}
	status := m.statusText
	if m.anyBusy() {
		status = m.spinner.View() + " " + status
	}
	return statusStyle.Render(status)
}

func (m Model) renderDashboard() []string {
	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel("Current Prediction", m.renderPredictionBody(), m.leftW, m.topH, false),
		renderPanel("AQI Time Series", m.renderMainChartBody(), m.rightW, m.topH, false),
	)
	manualFocused := m.focusIndex >= 0 && m.focusIndex < len(m.manualInputs)
	hoursFocused := m.focusIndex == len(m.manualInputs)
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel("Manual Prediction", m.renderManualBody(), m.leftW, m.bottomH, manualFocused),
		renderPanel("Forecast", m.renderForecastBody(), m.rightW, m.bottomH, hoursFocused),
	)

	parts := []string{topRow, bottomRow}
	if m.showHelp {
		parts = append(parts, helpStyle.Render("f fetch & predict | p manual predict | g forecast | e analysis | tab focus inputs | ? help | q quit"))
	}
	return parts
}

func (m Model) renderPredictionBody() string {
	if m.prediction == nil {
		return mutedTextStyle("No prediction yet.\nPress f to fetch live conditions and predict.")
	}
	p := m.prediction

	color := aqi.Color(p.Category)
	if strings.TrimSpace(p.Color) != "" {
		color = lipgloss.Color(p.Color)
	}
	valueStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	lines := []string{
		valueStyle.Render(strings.TrimSpace(p.Emoji + " " + api.RoundedAQI(p.PredictedAQI))),
		"Category: " + valueStyle.Render(p.Category),
		p.Advice,
	}
	if m.session.LoggedIn && p.PerceivedAQI != nil {
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(perceivedSeriesColor).Bold(true).
				Render("Feels like "+api.RoundedAQI(*p.PerceivedAQI)+" for you"))
		if p.PersonalAdvice != nil {
			lines = append(lines, *p.PersonalAdvice)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMainChartBody() string {
	if len(m.historical) == 0 && len(m.forecasted) == 0 {
		return mutedTextStyle("Waiting for the historical series...")
	}
	return m.renderSlot(mainChartSlot, m.chartInW)
}

func (m Model) renderManualBody() string {
	if len(m.manualFeatures) == 0 {
		return mutedTextStyle("Manual prediction is unavailable:\nthe service reported no input features.")
	}
	lines := make([]string, 0, len(m.manualFeatures)+1)
	for idx, feature := range m.manualFeatures {
		lines = append(lines, fmt.Sprintf("%-18s %s", truncateLabel(feature, 18), m.manualInputs[idx].View()))
	}
	lines = append(lines, helpStyle.Render("tab cycle fields | enter predict"))
	return strings.Join(lines, "\n")
}

func (m Model) renderForecastBody() string {
	header := fmt.Sprintf("Horizon (1-%d hours): %s", m.maxForecastHours, m.hoursInput.View())
	return header + "\n" + m.forecastTable.View()
}

func (m Model) renderSlot(slot string, width int) string {
	handle := m.charts.Get(slot)
	if handle == nil || handle.Disposed() {
		return mutedTextStyle("no chart")
	}
	return handle.Render(width)
}

func (m Model) renderEdaModal() string {
	header := fmt.Sprintf("From %s  To %s   %s",
		m.edaStartInput.View(), m.edaEndInput.View(),
		helpStyle.Render("a run analysis | tab edit dates | esc close"))

	tabs := []string{"1 Time Series", "2 Trends", "3 Data Table"}
	rendered := make([]string, len(tabs))
	for idx, label := range tabs {
		if edaTab(idx) == m.edaTab {
			rendered[idx] = activeTabStyle.Render(label)
		} else {
			rendered[idx] = inactiveTabStyle.Render(label)
		}
	}

	var content string
	switch {
	case m.edaLoading:
		content = m.spinner.View() + " Crunching the numbers..."
	case m.edaError != "":
		content = errorStyle.Render("Analysis failed: " + m.edaError)
	case m.edaBundle == nil:
		content = mutedTextStyle("Pick a date range and press a to analyze.")
	default:
		content = m.renderEdaTabContent()
	}

	sections := []string{header, strings.Join(rendered, "  "), "", content}
	if history := m.renderHistory(); history != "" {
		sections = append(sections, "", history)
	}
	return renderPanel("Exploratory Analysis", strings.Join(sections, "\n"), m.modalW, m.modalH, true)
}

func (m Model) renderEdaTabContent() string {
	chartW := maxInt(30, m.modalW-8)
	switch m.edaTab {
	case tabTrends:
		return strings.Join([]string{
			panelTitleStyle.Render("Average AQI by Month"),
			m.renderSlot(edaSlotPrefix+"by-month", chartW),
			"",
			panelTitleStyle.Render("Average AQI by Day of Week"),
			m.renderSlot(edaSlotPrefix+"by-day", chartW),
			"",
			panelTitleStyle.Render("Average AQI by Hour"),
			m.renderSlot(edaSlotPrefix+"by-hour", chartW),
		}, "\n")
	case tabDataTable:
		return m.edaTable.View()
	default:
		stats := m.edaBundle.TimeSeries.Stats
		cards := lipgloss.JoinHorizontal(lipgloss.Top,
			statCard("Mean", stats.Mean),
			statCard("Median", stats.Median),
			statCard("Max", stats.Max),
			statCard("Min", stats.Min),
		)
		return strings.Join([]string{
			cards,
			panelTitleStyle.Render("AQI Over Time"),
			m.renderSlot(edaSlotPrefix+"aqi-over-time", chartW),
			"",
			panelTitleStyle.Render("Category Share"),
			m.renderSlot(edaSlotPrefix+"categories", chartW),
			"",
			panelTitleStyle.Render("AQI Distribution"),
			m.renderSlot(edaSlotPrefix+"dist", chartW),
		}, "\n")
	}
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return ""
	}
	lines := []string{helpStyle.Render("Saved snapshots: [ and ] select, o open")}
	start := clampInt(m.historyCursor-2, 0, maxInt(0, len(m.history)-5))
	end := minInt(len(m.history), start+5)
	for idx := start; idx < end; idx++ {
		item := m.history[idx]
		mean := "N/A"
		if item.MeanAQI != nil {
			mean = fmt.Sprintf("%.1f", *item.MeanAQI)
		}
		line := fmt.Sprintf("%s to %s · mean %s · saved %s", item.Start, item.End, mean, item.SavedAt)
		if idx == m.historyCursor {
			line = selectedRowStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCredentialsScreen(title, help string) string {
	body := strings.Join([]string{
		"Username:",
		m.usernameInput.View(),
		"",
		"Password:",
		m.passwordInput.View(),
		"",
		helpStyle.Render(help),
	}, "\n")
	return renderPanel(title, body, clampInt(m.width-10, 44, 70), 11, true)
}

func (m Model) renderProfileScreen() string {
	name := m.session.DisplayName()
	if name == "" {
		name = "unknown"
	}
	body := strings.Join([]string{
		"Profile for " + name,
		"",
		"Age:",
		m.ageInput.View(),
		"",
		"Health conditions:",
		m.conditionsInput.View(),
		"",
		helpStyle.Render("enter save | tab next field | esc back"),
	}, "\n")
	return renderPanel("Your Profile", body, clampInt(m.width-10, 48, 76), 13, true)
}

func statCard(label string, value *float64) string {
	text := "N/A"
	if value != nil {
		text = fmt.Sprintf("%.1f", *value)
	}
	return statCardStyle.Render(helpStyle.Render(label) + "\n" + statusStyle.Render(text))
}

func renderPanel(title, body string, width, height int, focused bool) string {
	borderColor := panelBorder
	if focused {
		borderColor = accentSecondary
	}
	style := panelStyle.Copy().
		BorderForeground(borderColor).
		Width(width).
		Height(height)

	titleLine := panelTitleStyle.Render(title)
	return style.Render(titleLine + "\n" + fitTextHeight(body, maxInt(1, height-1)))
}

func truncateLabel(raw string, maxLen int) string {
	runes := []rune(raw)
	if len(runes) <= maxLen {
		return raw
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
