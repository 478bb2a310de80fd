package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "neuroscreen.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		res := model.TrialResult{Total: 2, Correct: 2 - i%2, StartedAt: start, EndedAt: start.Add(20 * time.Second)}
		inks := []model.InkAggregate{{Ink: "RED", Correct: 1, LatencySumMs: 600, LatencyCount: 1}, {Ink: "BLUE", Correct: 1 - i%2, Incorrect: i % 2}}
		if _, err := st.InsertTrialSession(ctx, res, []model.Trial{{ReactionTimeMs: 600}, {ReactionTimeMs: 800}}, inks); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	if err := st.InsertReport(ctx, model.ReportRecord{ID: "r1", CreatedAt: time.Unix(300, 0), OverallScore: 42, Level: model.LevelHigh, Modalities: []model.Modality{model.ModalityQuiz}}); err != nil {
		t.Fatalf("insert report: %v", err)
	}
}

func resize(m *Model) {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestOverviewShowsCards(t *testing.T) {
	st := openStore(t)
	seed(t, st)
	m := NewModel(st, model.StatsConfig{CurveWindow: 1})
	resize(m)
	view := m.View()
	for _, want := range []string{"Overview", "Sessions", "Avg Acc", "Fastest", "700 ms"} {
		if !strings.Contains(view, want) {
			t.Fatalf("overview missing %q:\n%s", want, view)
		}
	}
}

func TestTabNavigation(t *testing.T) {
	st := openStore(t)
	seed(t, st)
	m := NewModel(st, model.StatsConfig{CurveWindow: 3})
	resize(m)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.active != tabInks || !strings.Contains(m.View(), "BLUE") {
		t.Fatalf("expected ink table, got tab %d:\n%s", m.active, m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.active != tabReports || !strings.Contains(m.View(), "HIGH") {
		t.Fatalf("expected reports tab:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.active != tabOverview {
		t.Fatalf("tabs must wrap around, got %d", m.active)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.active != tabReports {
		t.Fatalf("left must wrap to the last tab, got %d", m.active)
	}
}

func TestEmptyHistory(t *testing.T) {
	m := NewModel(openStore(t), model.StatsConfig{})
	resize(m)
	if !strings.Contains(m.View(), "No Stroop sessions found.") {
		t.Fatalf("unexpected view:\n%s", m.View())
	}
	m.active = tabFacial
	if !strings.Contains(m.View(), "No facial runs found.") {
		t.Fatalf("unexpected facial view:\n%s", m.View())
	}
}

func TestApplySettings(t *testing.T) {
	m := NewModel(openStore(t), model.StatsConfig{CurveWindow: 5})
	m.settings[0].input.SetValue("2026-01-02")
	m.settings[1].input.SetValue("4")
	m.settings[2].input.SetValue("2")
	if err := m.applySettings(); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	if m.cfg.Since == nil || m.cfg.Since.Day() != 2 || m.cfg.Last != 4 || m.cfg.CurveWindow != 2 {
		t.Fatalf("unexpected config: %+v", m.cfg)
	}

	m.settings[2].input.SetValue("0")
	if err := m.applySettings(); err == nil {
		t.Fatalf("expected error for zero window")
	}
	m.settings[0].input.SetValue("yesterday")
	if err := m.applySettings(); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
		{11, 15, 10},
	}
	for _, c := range cases {
		if got := stepWindow(c.in, 1); got != c.next {
			t.Fatalf("stepWindow(%d, 1) = %d, want %d", c.in, got, c.next)
		}
		if got := stepWindow(c.in, -1); got != c.prev {
			t.Fatalf("stepWindow(%d, -1) = %d, want %d", c.in, got, c.prev)
		}
	}
}

func TestFitBlock(t *testing.T) {
	out := fitBlock("ab\ncd\nef", 4, 2)
	if out != "ab  \ncd  " {
		t.Fatalf("unexpected fit: %q", out)
	}
	if out := fitBlock("x", 2, 3); out != "x \n  \n  " {
		t.Fatalf("unexpected padding: %q", out)
	}
	if got := truncateLine("abcdefgh", 5); got != "ab..." {
		t.Fatalf("unexpected truncate: %q", got)
	}
}

func TestSettingsFormRoundTrip(t *testing.T) {
	st := openStore(t)
	seed(t, st)
	m := NewModel(st, model.StatsConfig{CurveWindow: 3})
	resize(m)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.editing || !strings.Contains(m.View(), "Curve window: ") {
		t.Fatalf("expected settings form:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !m.editing {
		t.Fatalf("q must be typed into the form, not quit it")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing || m.settingErr == "" {
		t.Fatalf("invalid since must keep the form open")
	}
	m.settings[0].input.SetValue("")
	m.settings[2].input.SetValue("7")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing || m.cfg.CurveWindow != 7 {
		t.Fatalf("expected window 7 applied, got editing=%v cfg=%+v", m.editing, m.cfg)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}})
	if m.cfg.CurveWindow != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.cfg.CurveWindow != 5 {
		t.Fatalf("expected window 5, got %d", m.cfg.CurveWindow)
	}
}
