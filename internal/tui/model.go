// Package tui provides the Bubble Tea screening interfaces.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/model"
	statsPkg "github.com/verte-zerg/neuroscreen/internal/stats"
	"github.com/verte-zerg/neuroscreen/internal/trial"
)

// SessionStore persists completed Stroop sessions.
type SessionStore interface {
	InsertTrialSession(ctx context.Context, res model.TrialResult, trials []model.Trial, inks []model.InkAggregate) (int64, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

type tickMsg time.Time

// Model implements the Bubble Tea Stroop test UI.
type Model struct {
	config  model.Config
	session *trial.Session
	palette []model.Color
	keys    map[rune]string
	store   SessionStore
	log     *zap.Logger
	bar     progress.Model

	width  int
	height int

	result    model.TrialResult
	hasResult bool
	feedback  string

	lastAcc    float64
	lastRTMs   float64
	hasLast    bool
	allCorrect int
	allTotal   int
	allRTSumMs int64
	allAcc     float64
	allAvgRTMs float64
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	keyHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	stimulusStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// NewModel starts a session and wraps it in a Stroop test UI. st and log
// may be nil.
func NewModel(cfg model.Config, session *trial.Session, palette []model.Color, st SessionStore, log *zap.Logger) (*Model, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := session.Start(cfg.Trials, palette); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	m := &Model{
		config:  cfg,
		session: session,
		palette: session.Palette(),
		store:   st,
		log:     log,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.keys = answerKeys(m.palette)
	m.loadFooterStats()
	return m, nil
}

// answerKeys maps digits 1-9 to palette entries in order, plus each color's
// lowercase initial when no other color shares it.
func answerKeys(palette []model.Color) map[rune]string {
	keys := map[rune]string{}
	initials := map[rune]int{}
	for i, c := range palette {
		if i < 9 {
			keys[rune('1'+i)] = c.Name
		}
		if c.Name != "" {
			initials[[]rune(strings.ToLower(c.Name))[0]]++
		}
	}
	for _, c := range palette {
		if c.Name == "" {
			continue
		}
		r := []rune(strings.ToLower(c.Name))[0]
		if initials[r] == 1 && (r < '1' || r > '9') {
			keys[r] = c.Name
		}
	}
	return keys
}

// Result returns the scores of the last completed session.
func (m *Model) Result() (model.TrialResult, bool) {
	return m.result, m.hasResult
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.scheduleTick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyRunes:
			return m, m.handleRunes(msg.Runes)
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) handleRunes(runes []rune) tea.Cmd {
	if len(runes) != 1 {
		return nil
	}
	r := []rune(strings.ToLower(string(runes)))[0]
	if m.session.Status() == model.StatusCompleted {
		switch r {
		case 'q':
			return tea.Quit
		case 'r':
			m.restart()
		}
		return nil
	}
	answer, ok := m.keys[r]
	if !ok {
		return nil
	}
	tr, _, presented := m.session.Current()
	if !presented || !m.session.SubmitResponse(answer) {
		return nil
	}
	if answer == tr.CorrectAnswer {
		m.feedback = correctStyle.Render("Correct")
	} else {
		m.feedback = wrongStyle.Render("Incorrect: ink was " + tr.CorrectAnswer)
	}
	if res, done := m.session.Result(); done {
		m.finishSession(res)
		return nil
	}
	return m.scheduleTick()
}

// scheduleTick re-renders once the inter-trial delay elapses.
func (m *Model) scheduleTick() tea.Cmd {
	wait := m.session.Pending()
	if wait <= 0 {
		return nil
	}
	return tea.Tick(wait, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) restart() {
	m.session.Reset()
	if err := m.session.Start(m.config.Trials, m.palette); err != nil {
		m.log.Error("failed to restart session", zap.Error(err))
		return
	}
	m.feedback = ""
}

func (m *Model) finishSession(res model.TrialResult) {
	m.result = res
	m.hasResult = true
	m.lastAcc = res.Accuracy
	m.lastRTMs = res.AvgReactionTimeMs
	m.hasLast = true
	trials := m.session.Trials()
	m.allCorrect += res.Correct
	m.allTotal += res.Total
	for _, tr := range trials {
		m.allRTSumMs += tr.ReactionTimeMs
	}
	m.recomputeAllTime()

	if m.store == nil {
		return
	}
	id, err := m.store.InsertTrialSession(context.Background(), res, trials, trial.InkStats(trials))
	if err != nil {
		m.log.Error("failed to save session", zap.Error(err))
		return
	}
	m.log.Info("session saved",
		zap.Int64("session_id", id),
		zap.Float64("accuracy", res.Accuracy),
		zap.Float64("avg_reaction_time_ms", res.AvgReactionTimeMs),
	)
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		m.log.Warn("failed to load session stats", zap.Error(err))
		return
	}
	if len(sessions) == 0 {
		return
	}
	m.lastAcc, m.lastRTMs = statsPkg.SessionMetrics(sessions[len(sessions)-1])
	m.hasLast = true
	for _, s := range sessions {
		m.allCorrect += s.Correct
		m.allTotal += s.Total
		m.allRTSumMs += s.ReactionTimeSumMs
	}
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	m.allAcc, m.allAvgRTMs = statsPkg.SessionMetrics(model.SessionAggregate{
		Total:             m.allTotal,
		Correct:           m.allCorrect,
		ReactionTimeSumMs: m.allRTSumMs,
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.session.Status() == model.StatusCompleted {
		content = m.renderResult()
	} else {
		content = m.renderTrial()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTrial() string {
	tr, index, presented := m.session.Current()
	total := m.session.Len()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Stroop Test  %d/%d", index+1, total)),
		m.progressBar(float64(index) / float64(total)),
		"",
	}
	if presented {
		lines = append(lines, m.renderStimulus(tr), "", promptStyle.Render("Select the ink color, not the word"))
	} else {
		lines = append(lines, stimulusStyle.Render(" "), "", promptStyle.Render("Get ready..."))
	}
	lines = append(lines, m.renderKeyHints())
	if m.feedback != "" {
		lines = append(lines, "", m.feedback)
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderStimulus(tr model.Trial) string {
	ink := lipgloss.Color("#F0F0F0")
	for _, c := range m.palette {
		if c.Name == tr.StimulusInk {
			ink = lipgloss.Color(c.Hex)
			break
		}
	}
	return stimulusStyle.Foreground(ink).Render(tr.StimulusLabel)
}

func (m *Model) renderKeyHints() string {
	hints := make([]string, 0, len(m.palette))
	for i, c := range m.palette {
		if i >= 9 {
			break
		}
		hints = append(hints, keyHintStyle.Render(fmt.Sprintf("%d", i+1))+" "+c.Name)
	}
	return strings.Join(hints, "  ")
}

func (m *Model) renderResult() string {
	res := m.result
	lines := []string{
		titleStyle.Render("Test Complete"),
		"",
		fmt.Sprintf("Accuracy: %.1f%%", res.Accuracy),
		fmt.Sprintf("Average reaction time: %.2fs", res.AvgReactionTimeMs/1000),
		fmt.Sprintf("Correct: %d/%d", res.Correct, res.Total),
		"",
		promptStyle.Render("r: retake   q: quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) progressBar(ratio float64) string {
	bar := m.bar
	if m.width > 0 {
		bar.Width = min(m.width/2, 60)
	}
	return bar.ViewAs(ratio)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%% · %.0fms", m.lastAcc, m.lastRTMs))
	}
	if m.allTotal > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% · %.0fms", m.allAcc, m.allAvgRTMs))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
