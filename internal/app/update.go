package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manishw7/air-quality-intelligence/internal/api"
	"github.com/manishw7/air-quality-intelligence/internal/aqi"
	"github.com/manishw7/air-quality-intelligence/internal/chart"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizePanels()
		return m, nil

	case spinner.TickMsg:
		if !m.anyBusy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case flashTickMsg:
		m.pruneFlashes(msg.at)
		if len(m.flashes) > 0 {
			return m, flashTickCmd()
		}
		return m, nil

	case sessionHydratedMsg:
		return m.handleSessionHydrated(msg)

	case historicalLoadedMsg:
		if msg.err != nil {
			return m, m.flash(flashDanger, "Could not load historical data: "+msg.err.Error())
		}
		m.historical = msg.points
		m.refreshMainChart()
		return m, nil

	case conditionsFetchedMsg:
		return m.handleConditionsFetched(msg)

	case predictionMsg:
		return m.handlePrediction(msg)

	case forecastMsg:
		return m.handleForecast(msg)

	case analysisMsg:
		return m.handleAnalysis(msg)

	case loginMsg:
		return m.handleLogin(msg)

	case registerMsg:
		return m.handleRegister(msg)

	case logoutMsg:
		return m.handleLogout(msg)

	case profileSavedMsg:
		return m.handleProfileSaved(msg)

	case snapshotSavedMsg:
		if msg.err != nil {
			return m, m.flash(flashWarning, "Could not save analysis snapshot: "+msg.err.Error())
		}
		return m, listSnapshotsCmd(m.store)

	case snapshotsListedMsg:
		if msg.err != nil {
			return m, m.flash(flashWarning, "Could not list snapshots: "+msg.err.Error())
		}
		m.history = msg.items
		m.historyCursor = clampInt(m.historyCursor, 0, maxInt(0, len(m.history)-1))
		return m, nil

	case snapshotLoadedMsg:
		return m.handleSnapshotLoaded(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleSessionHydrated(msg sessionHydratedMsg) (tea.Model, tea.Cmd) {
	m.session.HydrateFrom(msg.status, msg.err)
	m.rebuildManualInputs()
	m.refreshMainChart()
	m.refreshForecastTable()

	cmds := []tea.Cmd{loadHistoricalCmd(m.client)}
	switch {
	case msg.err != nil:
		m.statusText = "Session unavailable; continuing as guest."
		cmds = append(cmds, m.flash(flashWarning, "Could not check session: "+msg.err.Error()))
	case m.session.LoggedIn:
		m.statusText = "Welcome back, " + m.session.DisplayName() + "."
	default:
		m.statusText = "Browsing as guest. Press l to log in."
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleConditionsFetched(msg conditionsFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.predictSeq || m.predictPhase != predictFetching {
		return m, nil
	}
	if msg.err != nil {
		m.predictPhase = predictIdle
		m.prediction = nil
		m.statusText = ""
		m.errorText = "Error: " + msg.err.Error()
		return m, m.flash(flashDanger, msg.err.Error())
	}
	filtered := m.session.FilterReadings(msg.readings)
	m.fillManualInputs(filtered)
	m.predictPhase = predictRunning
	m.statusText = "Predicting with live data..."
	return m, predictCmd(m.client, m.predictSeq, filtered)
}

func (m Model) handlePrediction(msg predictionMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.predictSeq || m.predictPhase != predictRunning {
		return m, nil
	}
	m.predictPhase = predictIdle
	if msg.err != nil {
		m.prediction = nil
		m.statusText = ""
		m.errorText = "Error: " + msg.err.Error()
		return m, m.flash(flashDanger, msg.err.Error())
	}
	m.errorText = ""
	m.prediction = msg.result
	if m.predictLive {
		m.statusText = "Live prediction complete!"
		return m, nil
	}
	m.statusText = "Prediction complete."
	return m, m.flash(flashSuccess, "Manual prediction successful!")
}

func (m Model) handleForecast(msg forecastMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.forecastSeq {
		return m, nil
	}
	m.forecastLoading = false
	if msg.err != nil {
		return m, m.flash(flashDanger, "Forecast failed: "+msg.err.Error())
	}
	m.historical = msg.resp.Historical
	m.forecasted = msg.resp.Forecast
	m.refreshMainChart()
	m.refreshForecastTable()
	return m, m.flash(flashSuccess, "Forecast updated.")
}

func (m Model) handleAnalysis(msg analysisMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.edaSeq {
		return m, nil
	}
	m.edaLoading = false
	if msg.err != nil {
		m.edaError = msg.err.Error()
		m.edaBundle = nil
		return m, nil
	}
	m.edaError = ""
	m.edaBundle = msg.bundle
	m.buildEdaCharts(msg.bundle)
	m.refreshEdaTable(msg.bundle)
	if m.store == nil {
		return m, nil
	}
	return m, saveSnapshotCmd(m.store, msg.start, msg.end, *msg.bundle)
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.authBusy = false
	if msg.err != nil {
		return m, m.flash(flashDanger, msg.err.Error())
	}
	if !msg.result.Success {
		return m, m.flash(flashDanger, orDefault(msg.result.Message, "Login failed."))
	}
	m.screen = screenDashboard
	m.passwordInput.SetValue("")
	return m, tea.Batch(
		m.flash(flashSuccess, orDefault(msg.result.Message, "Login successful!")),
		hydrateSessionCmd(m.client),
	)
}

func (m Model) handleRegister(msg registerMsg) (tea.Model, tea.Cmd) {
	m.authBusy = false
	if msg.err != nil {
		return m, m.flash(flashDanger, msg.err.Error())
	}
	if !msg.result.Success {
		return m, m.flash(flashDanger, orDefault(msg.result.Message, "Registration failed."))
	}
	m.screen = screenLogin
	m.passwordInput.SetValue("")
	m.authFocusIndex = 0
	m.applyAuthFocus()
	return m, m.flash(flashSuccess, orDefault(msg.result.Message, "Registration successful! Please log in."))
}

func (m Model) handleLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	m.authBusy = false
	if msg.err != nil {
		return m, m.flash(flashDanger, "Logout failed: "+msg.err.Error())
	}
	m.session.ClearUser()
	m.refreshMainChart()
	m.refreshForecastTable()
	return m, m.flash(flashSuccess, "You have been logged out.")
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (tea.Model, tea.Cmd) {
	m.authBusy = false
	if msg.err != nil {
		return m, m.flash(flashDanger, msg.err.Error())
	}
	if !msg.result.Success {
		return m, m.flash(flashDanger, orDefault(msg.result.Message, "Profile update failed."))
	}
	m.session.ApplyProfileUpdate(msg.result.User)
	m.screen = screenDashboard
	return m, m.flash(flashSuccess, orDefault(msg.result.Message, "Profile updated."))
}

func (m Model) handleSnapshotLoaded(msg snapshotLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.flash(flashDanger, "Could not load snapshot: "+msg.err.Error())
	}
	m.edaLoading = false
	m.edaError = ""
	m.edaBundle = &msg.snapshot.Bundle
	m.edaStartInput.SetValue(msg.snapshot.Summary.Start)
	m.edaEndInput.SetValue(msg.snapshot.Summary.End)
	m.buildEdaCharts(m.edaBundle)
	m.refreshEdaTable(m.edaBundle)
	return m, m.flash(flashInfo, fmt.Sprintf("Loaded snapshot %s to %s.", msg.snapshot.Summary.Start, msg.snapshot.Summary.End))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.screen {
	case screenLogin, screenRegister, screenProfile:
		return m.updateAuthKey(msg)
	default:
		if m.edaOpen {
			return m.updateEdaKey(msg)
		}
		return m.updateDashboardKey(msg)
	}
}

func (m Model) updateDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.focusIndex >= 0 {
		switch key {
		case "esc":
			m.focusIndex = -1
			m.applyDashboardFocus()
			return m, nil
		case "tab":
			m.focusIndex = (m.focusIndex + 1) % m.dashboardInputCount()
			m.applyDashboardFocus()
			return m, nil
		case "shift+tab":
			m.focusIndex = (m.focusIndex - 1 + m.dashboardInputCount()) % m.dashboardInputCount()
			m.applyDashboardFocus()
			return m, nil
		case "enter":
			if m.focusIndex == len(m.manualInputs) {
				return m.startForecast()
			}
			return m.submitManualPredict()
		default:
			var cmd tea.Cmd
			if m.focusIndex < len(m.manualInputs) {
				m.manualInputs[m.focusIndex], cmd = m.manualInputs[m.focusIndex].Update(msg)
			} else {
				m.hoursInput, cmd = m.hoursInput.Update(msg)
			}
			return m, cmd
		}
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "tab":
		if m.dashboardInputCount() > 0 {
			m.focusIndex = 0
			m.applyDashboardFocus()
		}
		return m, nil
	case "f":
		return m.startLivePredict()
	case "p":
		return m.submitManualPredict()
	case "g":
		return m.startForecast()
	case "e":
		m.edaOpen = true
		m.edaFocusIndex = -1
		m.applyEdaFocus()
		if m.store == nil {
			return m, nil
		}
		return m, listSnapshotsCmd(m.store)
	case "l":
		if !m.session.LoggedIn {
			return m.openAuthScreen(screenLogin), nil
		}
		return m, nil
	case "r":
		if !m.session.LoggedIn {
			return m.openAuthScreen(screenRegister), nil
		}
		return m, nil
	case "u":
		if m.session.LoggedIn {
			return m.openProfileScreen(), nil
		}
		return m, nil
	case "x":
		if m.session.LoggedIn && !m.authBusy {
			m.authBusy = true
			return m, tea.Batch(logoutCmd(m.client), m.spinner.Tick)
		}
		return m, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.forecastTable, cmd = m.forecastTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateEdaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.edaFocusIndex >= 0 {
		switch key {
		case "esc":
			m.edaFocusIndex = -1
			m.applyEdaFocus()
			return m, nil
		case "tab", "shift+tab":
			m.edaFocusIndex = 1 - m.edaFocusIndex
			m.applyEdaFocus()
			return m, nil
		case "enter":
			return m.startAnalysis()
		default:
			var cmd tea.Cmd
			if m.edaFocusIndex == 0 {
				m.edaStartInput, cmd = m.edaStartInput.Update(msg)
			} else {
				m.edaEndInput, cmd = m.edaEndInput.Update(msg)
			}
			return m, cmd
		}
	}

	switch key {
	case "esc":
		m.edaOpen = false
		return m, nil
	case "q":
		return m, tea.Quit
	case "tab":
		m.edaFocusIndex = 0
		m.applyEdaFocus()
		return m, nil
	case "1":
		m.edaTab = tabTimeSeries
		return m, nil
	case "2":
		m.edaTab = tabTrends
		return m, nil
	case "3":
		m.edaTab = tabDataTable
		return m, nil
	case "left":
		m.edaTab = prevEdaTab(m.edaTab)
		return m, nil
	case "right":
		m.edaTab = nextEdaTab(m.edaTab)
		return m, nil
	case "a", "enter":
		return m.startAnalysis()
	case "[":
		if len(m.history) > 0 {
			m.historyCursor = clampInt(m.historyCursor-1, 0, len(m.history)-1)
		}
		return m, nil
	case "]":
		if len(m.history) > 0 {
			m.historyCursor = clampInt(m.historyCursor+1, 0, len(m.history)-1)
		}
		return m, nil
	case "o":
		if len(m.history) == 0 || m.store == nil {
			return m, nil
		}
		return m, loadSnapshotCmd(m.store, m.history[m.historyCursor].Directory)
	case "up", "down", "pgup", "pgdown":
		if m.edaTab == tabDataTable {
			var cmd tea.Cmd
			m.edaTable, cmd = m.edaTable.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		m.screen = screenDashboard
		m.authFocusIndex = -1
		m.applyAuthFocus()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.authFocusIndex = 1 - clampInt(m.authFocusIndex, 0, 1)
		m.applyAuthFocus()
		return m, nil
	case "enter":
		switch m.screen {
		case screenProfile:
			return m.submitProfile()
		case screenRegister:
			return m.submitRegister()
		default:
			return m.submitLogin()
		}
	default:
		first, second := m.authScreenInputs()
		var cmd tea.Cmd
		if m.authFocusIndex == 1 {
			*second, cmd = second.Update(msg)
		} else {
			*first, cmd = first.Update(msg)
		}
		return m, cmd
	}
}

func (m Model) openAuthScreen(target screen) Model {
	m.screen = target
	m.usernameInput.SetValue("")
	m.passwordInput.SetValue("")
	m.authFocusIndex = 0
	m.applyAuthFocus()
	return m
}

func (m Model) openProfileScreen() Model {
	m.screen = screenProfile
	m.ageInput.SetValue("")
	m.conditionsInput.SetValue("")
	if user := m.session.User; user != nil {
		if user.Age != nil {
			m.ageInput.SetValue(strconv.Itoa(*user.Age))
		}
		if user.Conditions != nil {
			m.conditionsInput.SetValue(*user.Conditions)
		}
	}
	m.authFocusIndex = 0
	m.applyAuthFocus()
	return m
}

func (m Model) startLivePredict() (tea.Model, tea.Cmd) {
	if m.predictPhase != predictIdle {
		return m, nil
	}
	m.predictSeq++
	m.predictLive = true
	m.predictPhase = predictFetching
	m.statusText = "Fetching live conditions..."
	m.errorText = ""
	return m, tea.Batch(fetchConditionsCmd(m.client, m.predictSeq), m.spinner.Tick)
}

func (m Model) submitManualPredict() (tea.Model, tea.Cmd) {
	if m.predictPhase != predictIdle {
		return m, nil
	}
	if len(m.manualFeatures) == 0 {
		return m, m.flash(flashDanger, "Manual prediction is unavailable: the service reported no input features.")
	}
	features := make(map[string]float64, len(m.manualFeatures))
	for idx, feature := range m.manualFeatures {
		raw := strings.TrimSpace(m.manualInputs[idx].Value())
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return m, m.flash(flashDanger, fmt.Sprintf("Please enter a valid number for %s.", feature))
		}
		features[feature] = value
	}
	m.predictSeq++
	m.predictLive = false
	m.predictPhase = predictRunning
	m.statusText = "Predicting..."
	m.errorText = ""
	return m, tea.Batch(predictCmd(m.client, m.predictSeq, features), m.spinner.Tick)
}

func (m Model) startForecast() (tea.Model, tea.Cmd) {
	if m.forecastLoading {
		return m, nil
	}
	hours, err := strconv.Atoi(strings.TrimSpace(m.hoursInput.Value()))
	if err != nil || hours < 1 || hours > m.maxForecastHours {
		return m, m.flash(flashDanger, fmt.Sprintf("Please enter a forecast horizon between 1 and %d hours.", m.maxForecastHours))
	}
	m.forecastSeq++
	m.forecastLoading = true
	return m, tea.Batch(
		forecastCmd(m.client, m.forecastSeq, hours),
		m.spinner.Tick,
		m.flash(flashInfo, "Generating forecast..."),
	)
}

func (m Model) startAnalysis() (tea.Model, tea.Cmd) {
	if m.edaLoading {
		return m, nil
	}
	start := strings.TrimSpace(m.edaStartInput.Value())
	end := strings.TrimSpace(m.edaEndInput.Value())
	if start == "" || end == "" {
		return m, m.flash(flashDanger, "Please select both a start and end date.")
	}
	if !validAnalysisDate(start) || !validAnalysisDate(end) {
		return m, m.flash(flashDanger, "Dates must be formatted YYYY-MM-DD.")
	}
	if start > end {
		return m, m.flash(flashDanger, "Start date must not be after end date.")
	}
	m.edaSeq++
	m.edaLoading = true
	m.edaError = ""
	m.edaBundle = nil
	m.charts.DisposeGroup(edaSlotPrefix)
	return m, tea.Batch(analysisCmd(m.client, m.edaSeq, start, end), m.spinner.Tick)
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}
	username := strings.TrimSpace(m.usernameInput.Value())
	password := m.passwordInput.Value()
	if username == "" || password == "" {
		return m, m.flash(flashDanger, "Username and password are required.")
	}
	m.authBusy = true
	return m, tea.Batch(loginCmd(m.client, username, password), m.spinner.Tick)
}

func (m Model) submitRegister() (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}
	username := strings.TrimSpace(m.usernameInput.Value())
	password := m.passwordInput.Value()
	if username == "" || password == "" {
		return m, m.flash(flashDanger, "Username and password are required.")
	}
	m.authBusy = true
	return m, tea.Batch(registerCmd(m.client, username, password), m.spinner.Tick)
}

func (m Model) submitProfile() (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}
	age := strings.TrimSpace(m.ageInput.Value())
	if age != "" {
		if _, err := strconv.Atoi(age); err != nil {
			return m, m.flash(flashDanger, "Age must be a whole number.")
		}
	}
	conditions := strings.TrimSpace(m.conditionsInput.Value())
	m.authBusy = true
	return m, tea.Batch(saveProfileCmd(m.client, age, conditions), m.spinner.Tick)
}

func nextEdaTab(current edaTab) edaTab {
	switch current {
	case tabTimeSeries:
		return tabTrends
	case tabTrends:
		return tabDataTable
	default:
		return tabTimeSeries
	}
}

func prevEdaTab(current edaTab) edaTab {
	switch current {
	case tabTimeSeries:
		return tabDataTable
	case tabTrends:
		return tabTimeSeries
	default:
		return tabTrends
	}
}

// buildEdaCharts replaces the modal's run-group of chart handles. The group
// is disposed wholesale first so repeated runs keep the live-handle count
// flat.
func (m *Model) buildEdaCharts(bundle *api.EdaBundle) {
	m.charts.DisposeGroup(edaSlotPrefix)

	line := chart.New(chart.Line)
	line.SetData(bundle.TimeSeries.AqiOverTime.Labels, []chart.Dataset{{
		Label:  "AQI over time",
		Values: bundle.TimeSeries.AqiOverTime.Values,
		Color:  historicalSeriesColor,
	}})
	m.charts.Replace(edaSlotPrefix+"aqi-over-time", line)

	categories := bundle.TimeSeries.Categories
	pieColors := make([]lipgloss.Color, len(categories.Labels))
	for idx, label := range categories.Labels {
		pieColors[idx] = aqi.Color(label)
	}
	pie := chart.New(chart.Pie)
	pie.SetData(categories.Labels, []chart.Dataset{{
		Label:     "Category share",
		Values:    categories.Values,
		Color:     distSeriesColor,
		PieColors: pieColors,
	}})
	m.charts.Replace(edaSlotPrefix+"categories", pie)

	m.charts.Replace(edaSlotPrefix+"dist", barChart("AQI distribution", bundle.TimeSeries.Dist, distSeriesColor))
	m.charts.Replace(edaSlotPrefix+"by-month", barChart("Average AQI by month", bundle.DeepDive.ByMonth, byMonthSeriesColor))
	m.charts.Replace(edaSlotPrefix+"by-day", barChart("Average AQI by day of week", bundle.DeepDive.ByDayOfWeek, byDaySeriesColor))
	m.charts.Replace(edaSlotPrefix+"by-hour", barChart("Average AQI by hour", bundle.DeepDive.ByHour, byHourSeriesColor))
}

func barChart(label string, series api.Series, color lipgloss.Color) *chart.Handle {
	handle := chart.New(chart.Bar)
	handle.SetData(series.Labels, []chart.Dataset{{Label: label, Values: series.Values, Color: color}})
	return handle
}

func (m *Model) refreshEdaTable(bundle *api.EdaBundle) {
	columns := bundle.TableData.Columns
	rows := bundle.TableData.Rows
	if len(columns) == 0 || len(rows) == 0 {
		m.edaTable.SetContent("No records in the selected range.")
		return
	}

	cells := make([]string, len(columns))
	for idx, column := range columns {
		cells[idx] = fmt.Sprintf("%-14s", column)
	}
	lines := make([]string, 0, minInt(len(rows), maxTableRows)+2)
	lines = append(lines, panelTitleStyle.Render(strings.Join(cells, " ")))

	shown := minInt(len(rows), maxTableRows)
	for _, row := range rows[:shown] {
		for idx, column := range columns {
			cells[idx] = fmt.Sprintf("%-14s", formatCell(row[column]))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	if shown < len(rows) {
		lines = append(lines, mutedTextStyle(fmt.Sprintf("Showing first %d of %d records.", shown, len(rows))))
	}
	m.edaTable.SetContent(strings.Join(lines, "\n"))
	m.edaTable.GotoTop()
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', 1, 64)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func orDefault(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}

func (m *Model) resizePanels() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	usableW := maxInt(70, m.width-10)
	innerH := maxInt(20, m.height-2)

	m.leftW = clampInt(usableW*2/5, 36, usableW-30)
	m.rightW = usableW - m.leftW

	rowsBudget := maxInt(16, innerH-7)
	m.topH = clampInt(rowsBudget*55/100, 10, rowsBudget-8)
	m.bottomH = rowsBudget - m.topH

	m.chartInW = maxInt(24, m.rightW-6)
	m.forecastTable.Width = maxInt(30, m.rightW-6)
	m.forecastTable.Height = maxInt(4, m.bottomH-4)

	m.modalW = clampInt(usableW-4, 60, 120)
	m.modalH = maxInt(18, innerH-2)
	m.edaTable.Width = maxInt(40, m.modalW-6)
	m.edaTable.Height = maxInt(6, m.modalH-14)
}
