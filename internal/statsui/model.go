// Package statsui is the full-screen browser for stored screening history.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/stats"
	"github.com/verte-zerg/neuroscreen/internal/store"
)

type tab int

const (
	tabOverview tab = iota
	tabInks
	tabFacial
	tabReports
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "Inks", "Facial", "Reports"}

const (
	plotHeight   = 10
	fallbackWide = 80
	windowStep   = 5
)

var (
	tabOnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A4FCF")).
			Padding(0, 2)
	tabOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9A9A9A")).
			Padding(0, 2)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5A4FCF")).
			Padding(0, 1)
	boxLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	boxValueStyle = lipgloss.NewStyle().Bold(true)
)

type keyMap struct {
	Prev     key.Binding
	Next     key.Binding
	Narrower key.Binding
	Wider    key.Binding
	Settings key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Narrower, k.Wider, k.Settings, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

var keys = keyMap{
	Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
	Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tab")),
	Narrower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrower window")),
	Wider:    key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("=", "wider window")),
	Settings: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "settings")),
	Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// setting is one editable field of the settings form. apply parses raw into cfg.
type setting struct {
	input textinput.Model
	apply func(cfg *model.StatsConfig, raw string) error
}

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	history stats.History
	loadErr string

	active tab
	panes  [tabCount]viewport.Model
	inks   table.Model
	help   help.Model

	width, height int

	editing    bool
	settings   []setting
	focused    int
	settingErr string
}

// NewModel loads history from st and returns the browser.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		help:     help.New(),
		settings: newSettings(),
		inks:     buildInkTable(nil, fallbackWide, 1),
	}
	for i := range m.panes {
		m.panes[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

func newSettings() []setting {
	field := func(prompt string) textinput.Model {
		in := textinput.New()
		in.Prompt = prompt
		return in
	}
	return []setting{
		{
			input: field("Since (YYYY-MM-DD): "),
			apply: func(cfg *model.StatsConfig, raw string) error {
				if raw == "" {
					return nil
				}
				t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
				if err != nil {
					return fmt.Errorf("since must be YYYY-MM-DD")
				}
				cfg.Since = &t
				return nil
			},
		},
		{
			input: field("Last sessions: "),
			apply: func(cfg *model.StatsConfig, raw string) error {
				if raw == "" {
					return nil
				}
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					return fmt.Errorf("last must be a non-negative integer")
				}
				cfg.Last = n
				return nil
			},
		},
		{
			input: field("Curve window: "),
			apply: func(cfg *model.StatsConfig, raw string) error {
				if raw == "" {
					return nil
				}
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 {
					return fmt.Errorf("curve window must be an integer >= 1")
				}
				cfg.CurveWindow = n
				return nil
			},
		},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.fillPanes()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m, m.updateSettings(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Prev):
		m.switchTab(-1)
		return tea.ClearScreen
	case key.Matches(msg, keys.Next):
		m.switchTab(1)
		return tea.ClearScreen
	case key.Matches(msg, keys.Wider):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, 1)
		m.reload()
		return nil
	case key.Matches(msg, keys.Narrower):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, -1)
		m.reload()
		return nil
	case key.Matches(msg, keys.Settings):
		return m.openSettings()
	case key.Matches(msg, keys.Top):
		if m.active == tabInks {
			m.inks.GotoTop()
		} else {
			m.panes[m.active].GotoTop()
		}
		return nil
	case key.Matches(msg, keys.Bottom):
		if m.active == tabInks {
			m.inks.GotoBottom()
		} else {
			m.panes[m.active].GotoBottom()
		}
		return nil
	}
	var cmd tea.Cmd
	if m.active == tabInks {
		m.inks, cmd = m.inks.Update(msg)
	} else {
		m.panes[m.active], cmd = m.panes[m.active].Update(msg)
	}
	return cmd
}

func (m *Model) switchTab(delta int) {
	m.active = (m.active + tab(delta) + tabCount) % tabCount
	if m.active == tabInks {
		m.inks.Focus()
	} else {
		m.inks.Blur()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		fitBlock(m.bodyView(), m.width, m.bodyHeight()),
		m.footerView(),
	)
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-lipgloss.Height(m.headerView())-lipgloss.Height(m.footerView()))
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	h := m.bodyHeight()
	for i := range m.panes {
		m.panes[i].Width = m.width
		m.panes[i].Height = h
	}
	m.inks.SetWidth(m.width)
	m.inks.SetHeight(max(1, h-1))
	m.help.Width = m.width
	for i := range m.settings {
		in := &m.settings[i].input
		in.Width = max(10, m.width-lipgloss.Width(in.Prompt)-2)
	}
}

func (m *Model) headerView() string {
	titles := make([]string, 0, tabCount)
	for i, title := range tabTitles {
		if tab(i) == m.active {
			titles = append(titles, tabOnStyle.Render(title))
		} else {
			titles = append(titles, tabOffStyle.Render(title))
		}
	}
	since, last := "any", "all"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	line := fmt.Sprintf("since %s · last %s · window %d", since, last, m.cfg.CurveWindow)
	return lipgloss.JoinHorizontal(lipgloss.Top, titles...) + "\n" +
		dimStyle.Render(truncateLine(line, m.width))
}

func (m *Model) footerView() string {
	if m.editing {
		return dimStyle.Render("tab: next field · enter: apply · esc: cancel")
	}
	out := m.help.View(keys)
	if m.loadErr != "" {
		out += "\n" + alertStyle.Render(m.loadErr)
	}
	return out
}

func (m *Model) bodyView() string {
	switch {
	case m.editing:
		lines := []string{"Settings"}
		for _, s := range m.settings {
			lines = append(lines, s.input.View())
		}
		if m.settingErr != "" {
			lines = append(lines, alertStyle.Render(m.settingErr))
		}
		return strings.Join(lines, "\n")
	case m.active != tabInks:
		return m.panes[m.active].View()
	case len(m.history.Sessions) == 0:
		return "No Stroop sessions found."
	case len(m.history.InkAggsWindow) == 0:
		return "No ink stats found."
	default:
		return m.inks.View()
	}
}

// reload queries the store with the current settings and redraws every pane.
func (m *Model) reload() {
	history, err := stats.BuildHistory(context.Background(), m.store, m.cfg)
	if err != nil {
		m.loadErr = err.Error()
		for i := range m.panes {
			m.panes[i].SetContent("Failed to load history.")
		}
		return
	}
	m.loadErr = ""
	m.history = history
	m.inks = buildInkTable(history.InkAggsWindow, max(m.width, fallbackWide), m.bodyHeight())
	if m.active == tabInks {
		m.inks.Focus()
	}
	m.resize()
	m.fillPanes()
}

func (m *Model) fillPanes() {
	if m.loadErr != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWide
	}
	m.panes[tabOverview].SetContent(renderOverview(m.history.Sessions, m.cfg.CurveWindow, width))
	m.panes[tabFacial].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderFacialRuns(buf, m.history.FacialRuns)
	}))
	m.panes[tabReports].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderReports(buf, m.history.Reports)
	}))
}

func renderWith(render func(*bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No Stroop sessions found."
	}
	curves := renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderCurves(buf, sessions, window, width, plotHeight, true)
	})
	return strings.TrimRight(overviewBoxes(sessions, width)+"\n\n"+curves, "\n")
}

func overviewBoxes(sessions []model.SessionAggregate, width int) string {
	var accSum, rtSum, bestAcc float64
	fastest := math.Inf(1)
	for _, s := range sessions {
		acc, rt := stats.SessionMetrics(s)
		accSum += acc
		rtSum += rt
		bestAcc = math.Max(bestAcc, acc)
		fastest = math.Min(fastest, rt)
	}
	n := float64(len(sessions))
	boxes := []string{
		box("Sessions", strconv.Itoa(len(sessions))),
		box("Avg Acc", fmt.Sprintf("%.1f%%", accSum/n)),
		box("Best Acc", fmt.Sprintf("%.1f%%", bestAcc)),
		box("Avg RT", fmt.Sprintf("%.0f ms", rtSum/n)),
		box("Fastest", fmt.Sprintf("%.0f ms", fastest)),
	}
	if width < fallbackWide {
		return lipgloss.JoinVertical(lipgloss.Left, boxes...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func box(label, value string) string {
	return boxStyle.Render(boxLabelStyle.Render(label) + "\n" + boxValueStyle.Render(value))
}

func buildInkTable(aggs []model.InkAggregate, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Ink", Width: 8},
		{Title: "Accuracy", Width: 9},
		{Title: "Avg RT (ms)", Width: 12},
		{Title: "Correct", Width: 7},
		{Title: "Incorrect", Width: 9},
		{Title: "Total", Width: 6},
	}
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range sortInksByTotal(aggs) {
		total := agg.Correct + agg.Incorrect
		acc, lat := 0.0, 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total) * 100
		}
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, table.Row{
			agg.Ink,
			fmt.Sprintf("%.2f%%", acc),
			fmt.Sprintf("%.1f", lat),
			strconv.Itoa(agg.Correct),
			strconv.Itoa(agg.Incorrect),
			strconv.Itoa(total),
		})
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#5A4FCF")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#3B3486"))
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
		table.WithStyles(styles),
	)
	t.SetWidth(width)
	return t
}

func (m *Model) openSettings() tea.Cmd {
	m.editing = true
	m.settingErr = ""
	m.settings[0].input.SetValue("")
	if m.cfg.Since != nil {
		m.settings[0].input.SetValue(m.cfg.Since.Format("2006-01-02"))
	}
	m.settings[1].input.SetValue("")
	if m.cfg.Last > 0 {
		m.settings[1].input.SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.settings[2].input.SetValue(strconv.Itoa(m.cfg.CurveWindow))
	return m.focus(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		return nil
	case tea.KeyEnter:
		if err := m.applySettings(); err != nil {
			m.settingErr = err.Error()
			return nil
		}
		m.editing = false
		m.reload()
		return nil
	case tea.KeyTab, tea.KeyDown:
		return m.focus(m.focused + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focus(m.focused - 1)
	}
	var cmd tea.Cmd
	m.settings[m.focused].input, cmd = m.settings[m.focused].input.Update(msg)
	return cmd
}

func (m *Model) focus(i int) tea.Cmd {
	n := len(m.settings)
	m.focused = (i%n + n) % n
	var cmd tea.Cmd
	for j := range m.settings {
		if j == m.focused {
			cmd = m.settings[j].input.Focus()
		} else {
			m.settings[j].input.Blur()
		}
	}
	return cmd
}

// applySettings replaces cfg only when every field parses.
func (m *Model) applySettings() error {
	var cfg model.StatsConfig
	for _, s := range m.settings {
		if err := s.apply(&cfg, strings.TrimSpace(s.input.Value())); err != nil {
			return err
		}
	}
	m.cfg = cfg
	return nil
}

// stepWindow moves n to the next multiple of windowStep in direction dir,
// bottoming out at 1.
func stepWindow(n, dir int) int {
	if dir > 0 {
		return (n/windowStep + 1) * windowStep
	}
	if n <= windowStep {
		return 1
	}
	return (n - 1) / windowStep * windowStep
}

func sortInksByTotal(aggs []model.InkAggregate) []model.InkAggregate {
	out := append([]model.InkAggregate(nil), aggs...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Correct+out[i].Incorrect, out[j].Correct+out[j].Incorrect
		if ti != tj {
			return ti > tj
		}
		return out[i].Ink < out[j].Ink
	})
	return out
}

// fitBlock pads or cuts s to exactly height lines of width cells.
func fitBlock(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
