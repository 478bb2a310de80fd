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

	"github.com/verte-zerg/neuroscreen/internal/facial"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/sampler"
)

// FacialRunStore persists facial sampling summaries.
type FacialRunStore interface {
	InsertFacialRun(ctx context.Context, run model.FacialRun) (int64, error)
}

type sampleMsg model.MetricSample

type samplingDoneMsg struct{}

// FacialModel shows live metrics while a sampler runs.
type FacialModel struct {
	sampler   *sampler.Sampler
	store     FacialRunStore
	log       *zap.Logger
	bar       progress.Model
	startedAt time.Time

	width  int
	height int

	latest  model.MetricSample
	ticks   int
	summary model.SummaryStatistics
	done    bool
	quit    bool
}

var metricStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))

// NewFacialModel starts s and wraps it in a live view. st and log may be nil.
func NewFacialModel(ctx context.Context, s *sampler.Sampler, st FacialRunStore, log *zap.Logger) (*FacialModel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := s.Start(ctx); err != nil {
		return nil, fmt.Errorf("start sampler: %w", err)
	}
	return &FacialModel{
		sampler:   s,
		store:     st,
		log:       log,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		startedAt: time.Now(),
	}, nil
}

// waitForSample blocks until the sampler publishes or finishes.
func waitForSample(updates <-chan model.MetricSample) tea.Cmd {
	return func() tea.Msg {
		sample, ok := <-updates
		if !ok {
			return samplingDoneMsg{}
		}
		return sampleMsg(sample)
	}
}

// Summary returns the run's statistics once sampling has finished.
func (m *FacialModel) Summary() (model.SummaryStatistics, bool) {
	return m.summary, m.done
}

// Init implements tea.Model.
func (m *FacialModel) Init() tea.Cmd {
	return waitForSample(m.sampler.Updates())
}

// Update implements tea.Model.
func (m *FacialModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case sampleMsg:
		m.latest = model.MetricSample(msg)
		m.ticks++
		return m, waitForSample(m.sampler.Updates())
	case samplingDoneMsg:
		m.finish()
		if m.quit {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			m.finish()
			return m, tea.Quit
		case tea.KeyRunes:
			switch strings.ToLower(string(msg.Runes)) {
			case "s":
				m.finish()
			case "q":
				m.quit = true
				if m.done {
					return m, tea.Quit
				}
				m.finish()
				return m, tea.Quit
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// finish stops sampling and stores the summary once.
func (m *FacialModel) finish() {
	if m.done {
		return
	}
	m.summary = m.sampler.Stop()
	m.done = true
	if m.store == nil || m.summary.Empty() {
		return
	}
	id, err := m.store.InsertFacialRun(context.Background(), model.FacialRun{
		StartedAt: m.startedAt,
		EndedAt:   time.Now(),
		Summary:   m.summary,
	})
	if err != nil {
		m.log.Error("failed to save facial run", zap.Error(err))
		return
	}
	m.log.Info("facial run saved", zap.Int64("run_id", id), zap.Int("total_samples", m.summary.SampleCount))
}

// View implements tea.Model.
func (m *FacialModel) View() string {
	var content string
	if m.done {
		content = m.renderSummary()
	} else {
		content = m.renderLive()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *FacialModel) renderLive() string {
	total := m.sampler.Ticks()
	ratio := 0.0
	if total > 0 {
		ratio = float64(m.ticks) / float64(total)
	}
	remaining := m.sampler.Duration() - time.Duration(m.ticks)*m.sampler.Interval()
	if remaining < 0 {
		remaining = 0
	}
	bar := m.bar
	if m.width > 0 {
		bar.Width = min(m.width/2, 60)
	}
	lines := []string{
		titleStyle.Render("Facial Analysis"),
		bar.ViewAs(ratio),
		promptStyle.Render(fmt.Sprintf("Time remaining: %ds", int(remaining.Round(time.Second)/time.Second))),
		"",
	}
	if m.ticks == 0 {
		lines = append(lines, promptStyle.Render("Waiting for first sample..."))
	} else {
		lines = append(lines, m.renderMetrics(m.latest.Values)...)
	}
	lines = append(lines, "", promptStyle.Render("s: stop early   q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *FacialModel) renderSummary() string {
	lines := []string{titleStyle.Render("Facial Analysis Complete"), ""}
	if m.summary.Empty() {
		lines = append(lines, promptStyle.Render("No samples collected"))
	} else {
		lines = append(lines, m.renderMetrics(m.summary.Means)...)
		lines = append(lines, "", fmt.Sprintf("Total samples: %d", m.summary.SampleCount))
	}
	lines = append(lines, "", promptStyle.Render("q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *FacialModel) renderMetrics(values map[string]float64) []string {
	width := 0
	for _, name := range facial.Names() {
		width = max(width, len(facial.Labels[name]))
	}
	lines := make([]string, 0, len(values))
	for _, name := range facial.Names() {
		v, ok := values[name]
		if !ok {
			continue
		}
		r := facial.Ranges[name]
		label := fmt.Sprintf("%-*s", width, facial.Labels[name])
		lines = append(lines, fmt.Sprintf("%s  %6.2f  %s", label, v,
			metricStyle.Render(fmt.Sprintf("[%g-%g]", r.Min, r.Max))))
	}
	return lines
}
