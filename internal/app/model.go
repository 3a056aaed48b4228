// Package app is the terminal dashboard: one bubbletea model owning the
// session, the notifier queue, the prediction/forecast/analysis flows, and
// the chart registry that backs every drawn panel.
package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manishw7/air-quality-intelligence/internal/api"
	"github.com/manishw7/air-quality-intelligence/internal/aqi"
	"github.com/manishw7/air-quality-intelligence/internal/chart"
	"github.com/manishw7/air-quality-intelligence/internal/config"
	"github.com/manishw7/air-quality-intelligence/internal/session"
	"github.com/manishw7/air-quality-intelligence/internal/storage"
)

type sessionHydratedMsg struct {
	status *api.SessionStatus
	err    error
}

type historicalLoadedMsg struct {
	points []api.TimeSeriesPoint
	err    error
}

type conditionsFetchedMsg struct {
	seq      int64
	readings map[string]float64
	err      error
}

type predictionMsg struct {
	seq    int64
	result *api.PredictionResult
	err    error
}

type forecastMsg struct {
	seq  int64
	resp *api.ForecastResponse
	err  error
}

type analysisMsg struct {
	seq    int64
	start  string
	end    string
	bundle *api.EdaBundle
	err    error
}

type loginMsg struct {
	result *api.AuthResult
	err    error
}

type registerMsg struct {
	result *api.AuthResult
	err    error
}

type logoutMsg struct {
	err error
}

type profileSavedMsg struct {
	result *api.AuthResult
	err    error
}

type snapshotSavedMsg struct {
	summary storage.SnapshotSummary
	err     error
}

type snapshotsListedMsg struct {
	items []storage.SnapshotSummary
	err   error
}

type snapshotLoadedMsg struct {
	snapshot *storage.Snapshot
	err      error
}

type flashTickMsg struct {
	at time.Time
}

type flashLevel int

const (
	flashInfo flashLevel = iota
	flashSuccess
	flashWarning
	flashDanger
)

type flashEntry struct {
	text      string
	level     flashLevel
	expiresAt time.Time
}

type screen int

const (
	screenDashboard screen = iota
	screenLogin
	screenRegister
	screenProfile
)

type edaTab int

const (
	tabTimeSeries edaTab = iota
	tabTrends
	tabDataTable
)

type predictionPhase int

const (
	predictIdle predictionPhase = iota
	predictFetching
	predictRunning
)

const (
	mainChartSlot = "main"
	edaSlotPrefix = "eda/"

	flashLifetime     = 4500 * time.Millisecond
	flashTickInterval = 250 * time.Millisecond
	maxVisibleFlashes = 5

	quickCallTimeout = 8 * time.Second
	dataCallTimeout  = 20 * time.Second
	modelCallTimeout = 45 * time.Second

	maxTableRows = 200
)

type Model struct {
	client  *api.Client
	store   *storage.Store
	session *session.State
	charts  *chart.Registry

	ready  bool
	width  int
	height int

	screen   screen
	showHelp bool

	statusText string
	errorText  string
	flashes    []flashEntry

	spinner spinner.Model

	// prediction flow
	predictPhase   predictionPhase
	predictLive    bool
	predictSeq     int64
	prediction     *api.PredictionResult
	manualFeatures []string
	manualInputs   []textinput.Model

	// main time-series view
	historical []api.TimeSeriesPoint
	forecasted []api.TimeSeriesPoint

	// forecast flow
	hoursInput       textinput.Model
	forecastLoading  bool
	forecastSeq      int64
	forecastTable    viewport.Model
	maxForecastHours int

	// dashboard input focus: manual inputs first, hours input last, -1 none
	focusIndex int

	// analysis modal
	edaOpen       bool
	edaTab        edaTab
	edaLoading    bool
	edaError      string
	edaBundle     *api.EdaBundle
	edaSeq        int64
	edaStartInput textinput.Model
	edaEndInput   textinput.Model
	edaFocusIndex int
	edaTable      viewport.Model
	history       []storage.SnapshotSummary
	historyCursor int

	// auth screens
	usernameInput   textinput.Model
	passwordInput   textinput.Model
	ageInput        textinput.Model
	conditionsInput textinput.Model
	authFocusIndex  int
	authBusy        bool

	// panel geometry
	leftW    int
	rightW   int
	topH     int
	bottomH  int
	modalW   int
	modalH   int
	chartInW int
}

func NewModel(client *api.Client, store *storage.Store, cfg config.Config) Model {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	hours := textinput.New()
	hours.Prompt = ""
	hours.Placeholder = "24"
	hours.CharLimit = 3
	hours.Width = 6
	if cfg.Forecast.DefaultHours > 0 {
		hours.SetValue(strconv.Itoa(cfg.Forecast.DefaultHours))
	}

	table := viewport.New(60, 10)
	table.SetContent("No forecast yet. Press g to generate one.")

	now := time.Now()
	rangeDays := cfg.Analysis.DefaultRangeDays
	if rangeDays <= 0 {
		rangeDays = 365
	}
	startInput := dateInput(now.AddDate(0, 0, -rangeDays).Format("2006-01-02"))
	endInput := dateInput(now.Format("2006-01-02"))

	edaTable := viewport.New(70, 12)
	edaTable.SetContent("Run an analysis to see the raw records.")

	username := textinput.New()
	username.Prompt = "> "
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Width = 32

	password := textinput.New()
	password.Prompt = "> "
	password.Placeholder = "password"
	password.CharLimit = 64
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	age := textinput.New()
	age.Prompt = "> "
	age.Placeholder = "age"
	age.CharLimit = 3
	age.Width = 8

	conditions := textinput.New()
	conditions.Prompt = "> "
	conditions.Placeholder = "e.g. asthma, allergies"
	conditions.CharLimit = 256
	conditions.Width = 48

	maxHours := cfg.Forecast.MaxHours
	if maxHours <= 0 {
		maxHours = 72
	}

	charts := chart.NewRegistry()
	charts.Replace(mainChartSlot, chart.New(chart.Line))

	return Model{
		client:           client,
		store:            store,
		session:          session.New(),
		charts:           charts,
		screen:           screenDashboard,
		showHelp:         true,
		statusText:       "Checking session...",
		spinner:          spin,
		hoursInput:       hours,
		forecastTable:    table,
		maxForecastHours: maxHours,
		focusIndex:       -1,
		edaStartInput:    startInput,
		edaEndInput:      endInput,
		edaFocusIndex:    -1,
		edaTable:         edaTable,
		usernameInput:    username,
		passwordInput:    password,
		ageInput:         age,
		conditionsInput:  conditions,
		leftW:            44,
		rightW:           66,
		topH:             14,
		bottomH:          12,
		modalW:           100,
		modalH:           30,
		chartInW:         60,
	}
}

func dateInput(value string) textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "YYYY-MM-DD"
	input.CharLimit = 10
	input.Width = 12
	input.SetValue(value)
	return input
}

func (m Model) Init() tea.Cmd {
	return hydrateSessionCmd(m.client)
}

func hydrateSessionCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickCallTimeout)
		defer cancel()
		status, err := client.SessionStatus(ctx)
		return sessionHydratedMsg{status: status, err: err}
	}
}

func loadHistoricalCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dataCallTimeout)
		defer cancel()
		points, err := client.HistoricalSeries(ctx)
		return historicalLoadedMsg{points: points, err: err}
	}
}

func fetchConditionsCmd(client *api.Client, seq int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dataCallTimeout)
		defer cancel()
		readings, err := client.CurrentConditions(ctx)
		return conditionsFetchedMsg{seq: seq, readings: readings, err: err}
	}
}

func predictCmd(client *api.Client, seq int64, features map[string]float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelCallTimeout)
		defer cancel()
		result, err := client.Predict(ctx, features)
		return predictionMsg{seq: seq, result: result, err: err}
	}
}

func forecastCmd(client *api.Client, seq int64, hours int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelCallTimeout)
		defer cancel()
		resp, err := client.Forecast(ctx, hours)
		return forecastMsg{seq: seq, resp: resp, err: err}
	}
}

func analysisCmd(client *api.Client, seq int64, start, end string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelCallTimeout)
		defer cancel()
		bundle, err := client.Analysis(ctx, start, end)
		return analysisMsg{seq: seq, start: start, end: end, bundle: bundle, err: err}
	}
}

func loginCmd(client *api.Client, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickCallTimeout)
		defer cancel()
		result, err := client.Login(ctx, username, password)
		return loginMsg{result: result, err: err}
	}
}

func registerCmd(client *api.Client, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickCallTimeout)
		defer cancel()
		result, err := client.Register(ctx, username, password)
		return registerMsg{result: result, err: err}
	}
}

func logoutCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickCallTimeout)
		defer cancel()
		return logoutMsg{err: client.Logout(ctx)}
	}
}

func saveProfileCmd(client *api.Client, age, conditions string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickCallTimeout)
		defer cancel()
		result, err := client.UpdateProfile(ctx, age, conditions)
		return profileSavedMsg{result: result, err: err}
	}
}

func saveSnapshotCmd(store *storage.Store, start, end string, bundle api.EdaBundle) tea.Cmd {
	return func() tea.Msg {
		summary, err := store.Save(start, end, bundle)
		return snapshotSavedMsg{summary: summary, err: err}
	}
}

func listSnapshotsCmd(store *storage.Store) tea.Cmd {
	return func() tea.Msg {
		items, err := store.List(50)
		return snapshotsListedMsg{items: items, err: err}
	}
}

func loadSnapshotCmd(store *storage.Store, directory string) tea.Cmd {
	return func() tea.Msg {
		snapshot, err := store.Load(directory)
		return snapshotLoadedMsg{snapshot: snapshot, err: err}
	}
}

func flashTickCmd() tea.Cmd {
	return tea.Tick(flashTickInterval, func(t time.Time) tea.Msg {
		return flashTickMsg{at: t}
	})
}

// flash enqueues a notification and returns the expiry ticker that keeps
// the queue draining.
func (m *Model) flash(level flashLevel, text string) tea.Cmd {
	m.flashes = append(m.flashes, flashEntry{
		text:      text,
		level:     level,
		expiresAt: time.Now().Add(flashLifetime),
	})
	if len(m.flashes) > maxVisibleFlashes {
		m.flashes = m.flashes[len(m.flashes)-maxVisibleFlashes:]
	}
	return flashTickCmd()
}

func (m *Model) pruneFlashes(now time.Time) {
	kept := m.flashes[:0]
	for _, entry := range m.flashes {
		if entry.expiresAt.After(now) {
			kept = append(kept, entry)
		}
	}
	m.flashes = kept
}

func (m *Model) anyBusy() bool {
	return m.predictPhase != predictIdle || m.forecastLoading || m.edaLoading || m.authBusy
}

// rebuildManualInputs recreates the manual form from the session's feature
// list. An empty list leaves the form without inputs; the panel explains
// that manual prediction is unavailable.
func (m *Model) rebuildManualInputs() {
	m.manualFeatures = append([]string(nil), m.session.Features...)
	m.manualInputs = make([]textinput.Model, len(m.manualFeatures))
	for idx := range m.manualFeatures {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = "0.0"
		input.CharLimit = 12
		input.Width = 10
		m.manualInputs[idx] = input
	}
	m.focusIndex = -1
	m.applyDashboardFocus()
}

// fillManualInputs writes fetched live readings into the matching form
// inputs. Readings for features the session does not list never arrive
// here; the caller filters first.
func (m *Model) fillManualInputs(readings map[string]float64) {
	for idx, feature := range m.manualFeatures {
		if value, ok := readings[feature]; ok {
			m.manualInputs[idx].SetValue(strconv.FormatFloat(value, 'f', -1, 64))
			m.manualInputs[idx].CursorEnd()
		}
	}
}

func (m *Model) dashboardInputCount() int {
	return len(m.manualInputs) + 1 // hours input is always last
}

func (m *Model) applyDashboardFocus() {
	for idx := range m.manualInputs {
		if idx == m.focusIndex {
			m.manualInputs[idx].Focus()
		} else {
			m.manualInputs[idx].Blur()
		}
	}
	if m.focusIndex == len(m.manualInputs) {
		m.hoursInput.Focus()
	} else {
		m.hoursInput.Blur()
	}
}

func (m *Model) applyEdaFocus() {
	if m.edaFocusIndex == 0 {
		m.edaStartInput.Focus()
	} else {
		m.edaStartInput.Blur()
	}
	if m.edaFocusIndex == 1 {
		m.edaEndInput.Focus()
	} else {
		m.edaEndInput.Blur()
	}
}

func (m *Model) applyAuthFocus() {
	first, second := m.authScreenInputs()
	if m.authFocusIndex == 0 {
		first.Focus()
	} else {
		first.Blur()
	}
	if m.authFocusIndex == 1 {
		second.Focus()
	} else {
		second.Blur()
	}
}

func (m *Model) authScreenInputs() (*textinput.Model, *textinput.Model) {
	if m.screen == screenProfile {
		return &m.ageInput, &m.conditionsInput
	}
	return &m.usernameInput, &m.passwordInput
}

// refreshMainChart rebuilds the single main-series handle in place. The
// Historical series always draws; Forecasted only when non-empty; the
// Perceived overlay only for a logged-in session with at least one
// personalized forecast value.
func (m *Model) refreshMainChart() {
	handle := m.charts.Get(mainChartSlot)
	if handle == nil || handle.Disposed() {
		handle = m.charts.Replace(mainChartSlot, chart.New(chart.Line))
	}

	labels := make([]string, 0, len(m.historical)+len(m.forecasted))
	for _, point := range m.historical {
		labels = append(labels, formatClock(point.Timestamp))
	}
	for _, point := range m.forecasted {
		labels = append(labels, formatClock(point.Timestamp))
	}

	datasets := []chart.Dataset{{
		Label:  "Historical AQI",
		Values: ambientValues(m.historical),
		Color:  historicalSeriesColor,
	}}
	if len(m.forecasted) > 0 {
		datasets = append(datasets, chart.Dataset{
			Label:  "Forecasted AQI",
			Values: ambientValues(m.forecasted),
			Color:  forecastSeriesColor,
		})
		if m.session.LoggedIn && anyPerceived(m.forecasted) {
			datasets = append(datasets, chart.Dataset{
				Label:  "Perceived AQI (You)",
				Values: perceivedValues(m.forecasted),
				Color:  perceivedSeriesColor,
			})
		}
	}
	handle.SetData(labels, datasets)
}

func ambientValues(points []api.TimeSeriesPoint) []float64 {
	values := make([]float64, len(points))
	for idx, point := range points {
		values[idx] = point.Yhat
	}
	return values
}

// perceivedValues aligns the personalized series with the forecast
// horizon: points without a value become NaN gaps so the samples that do
// exist keep their time positions.
func perceivedValues(points []api.TimeSeriesPoint) []float64 {
	values := make([]float64, len(points))
	for idx, point := range points {
		if point.PerceivedYhat != nil {
			values[idx] = *point.PerceivedYhat
		} else {
			values[idx] = math.NaN()
		}
	}
	return values
}

func anyPerceived(points []api.TimeSeriesPoint) bool {
	for _, point := range points {
		if point.PerceivedYhat != nil {
			return true
		}
	}
	return false
}

// refreshForecastTable re-renders the hourly forecast rows. The perceived
// column exists only when the session is logged in and the horizon carries
// at least one personalized value; rows missing it show a placeholder.
func (m *Model) refreshForecastTable() {
	if len(m.forecasted) == 0 {
		m.forecastTable.SetContent("No forecast yet. Press g to generate one.")
		return
	}

	showPerceived := m.session.LoggedIn && anyPerceived(m.forecasted)
	header := fmt.Sprintf("%-12s %9s", "Time", "Ambient")
	if showPerceived {
		header += fmt.Sprintf(" %10s", "Perceived")
	}
	header += "  Category"

	lines := make([]string, 0, len(m.forecasted)+1)
	lines = append(lines, panelTitleStyle.Render(header))
	for _, point := range m.forecasted {
		category := aqi.Categorize(point.Yhat)
		row := fmt.Sprintf("%-12s %9s", formatClock(point.Timestamp), api.RoundedAQI(point.Yhat))
		if showPerceived {
			cell := "-"
			if point.PerceivedYhat != nil {
				cell = api.RoundedAQI(*point.PerceivedYhat)
			}
			row += fmt.Sprintf(" %10s", cell)
		}
		row += "  " + lipgloss.NewStyle().Foreground(aqi.Color(string(category))).Render(string(category))
		lines = append(lines, row)
	}
	m.forecastTable.SetContent(strings.Join(lines, "\n"))
	m.forecastTable.GotoTop()
}

// formatClock shortens a backend timestamp for axes and table rows. The
// service emits zone-less ISO stamps with a T separator; space-separated
// and RFC3339 forms are accepted too. An unparseable stamp passes through
// untouched.
func formatClock(raw string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04", time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("Jan 02 15:04")
		}
	}
	return raw
}

func validAnalysisDate(raw string) bool {
	_, err := time.Parse("2006-01-02", raw)
	return err == nil
}

func fitTextHeight(text string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= height {
		return text
	}
	return strings.Join(lines[:height], "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
