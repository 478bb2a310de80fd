package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/neuroscreen/internal/generator"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/trial"
)

type fakeSessionStore struct {
	results []model.TrialResult
	trials  [][]model.Trial
	inks    [][]model.InkAggregate
	history []model.SessionAggregate
}

func (f *fakeSessionStore) InsertTrialSession(_ context.Context, res model.TrialResult, trials []model.Trial, inks []model.InkAggregate) (int64, error) {
	f.results = append(f.results, res)
	f.trials = append(f.trials, trials)
	f.inks = append(f.inks, inks)
	return int64(len(f.results)), nil
}

func (f *fakeSessionStore) ListSessions(context.Context, model.StatsConfig) ([]model.SessionAggregate, error) {
	return f.history, nil
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newStroopModel(t *testing.T, trials int, delay time.Duration) (*Model, *clock.Mock, *fakeSessionStore) {
	t.Helper()
	mock := clock.NewMock()
	session := trial.NewSession(
		trial.WithClock(mock),
		trial.WithGenerator(generator.NewSeeded(7)),
		trial.WithDelay(delay),
	)
	st := &fakeSessionStore{}
	m, err := NewModel(model.Config{Trials: trials}, session, generator.DefaultPalette, st, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m, mock, st
}

// answerKey returns the digit key for the presented trial's ink, or a
// wrong digit when correct is false.
func answerKey(t *testing.T, m *Model, correct bool) rune {
	t.Helper()
	tr, _, ok := m.session.Current()
	if !ok {
		t.Fatalf("expected a presented trial")
	}
	for i, c := range m.palette {
		if (c.Name == tr.CorrectAnswer) == correct {
			return rune('1' + i)
		}
	}
	t.Fatalf("no key found")
	return 0
}

func TestAnswerKeys(t *testing.T) {
	keys := answerKeys(generator.DefaultPalette)
	if keys['1'] != generator.DefaultPalette[0].Name {
		t.Fatalf("digit 1 must select the first color, got %q", keys['1'])
	}
	if keys['r'] != "RED" || keys['b'] != "BLUE" {
		t.Fatalf("unexpected initials: %v", keys)
	}

	shared := []model.Color{{Name: "BLUE", Hex: "#00F"}, {Name: "BLACK", Hex: "#000"}, {Name: "RED", Hex: "#F00"}}
	keys = answerKeys(shared)
	if _, ok := keys['b']; ok {
		t.Fatalf("shared initial must not map to a color")
	}
	if keys['r'] != "RED" || keys['3'] != "RED" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestStroopRunCompletesAndStores(t *testing.T) {
	m, mock, st := newStroopModel(t, 3, 0)
	for i := 0; i < 3; i++ {
		mock.Add(400 * time.Millisecond)
		m.Update(keyPress(answerKey(t, m, i != 1)))
	}
	res, ok := m.Result()
	if !ok {
		t.Fatalf("expected a completed result")
	}
	if res.Correct != 2 || res.Total != 3 || res.AvgReactionTimeMs != 400 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(st.results) != 1 || len(st.trials[0]) != 3 {
		t.Fatalf("expected one stored session, got %+v", st.results)
	}
	var incorrect int
	for _, agg := range st.inks[0] {
		incorrect += agg.Incorrect
	}
	if incorrect != 1 {
		t.Fatalf("expected one incorrect ink, got %+v", st.inks[0])
	}
	view := m.View()
	if !containsAll(view, []string{"Test Complete", "Accuracy: 66.7%", "Average reaction time: 0.40s", "Correct: 2/3"}) {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestStroopDelaySchedulesTickAndGatesKeys(t *testing.T) {
	m, mock, st := newStroopModel(t, 2, trial.DefaultDelay)
	key := answerKey(t, m, true)
	_, cmd := m.Update(keyPress(key))
	if cmd == nil {
		t.Fatalf("expected a tick while the next trial is pending")
	}
	if !containsAll(m.View(), []string{"Get ready", "Correct"}) {
		t.Fatalf("expected pending view, got:\n%s", m.View())
	}
	for r := '1'; r <= '6'; r++ {
		m.Update(keyPress(r))
	}
	if _, ok := m.Result(); ok {
		t.Fatalf("keys during the delay must be ignored")
	}

	mock.Add(trial.DefaultDelay)
	if _, cmd := m.Update(tickMsg(mock.Now())); cmd != nil {
		t.Fatalf("no tick expected once the trial is presented")
	}
	m.Update(keyPress(answerKey(t, m, true)))
	if _, ok := m.Result(); !ok || len(st.results) != 1 {
		t.Fatalf("expected completion after the second answer")
	}
}

func TestStroopRetakeStartsFreshSession(t *testing.T) {
	m, _, st := newStroopModel(t, 1, 0)
	m.Update(keyPress(answerKey(t, m, true)))
	if _, cmd := m.Update(keyPress('q')); cmd == nil {
		t.Fatalf("q must quit on the result screen")
	}
	m.Update(keyPress('r'))
	if m.session.Status() != model.StatusActive {
		t.Fatalf("expected active session after retake, got %s", m.session.Status())
	}
	if !m.hasLast || m.allTotal != 1 {
		t.Fatalf("footer must carry the finished session: %+v", m)
	}
	if len(st.results) != 1 {
		t.Fatalf("retake must not store anything yet")
	}
}

func TestStroopFooterLoadsHistory(t *testing.T) {
	st := &fakeSessionStore{history: []model.SessionAggregate{
		{SessionID: 1, Total: 10, Correct: 5, ReactionTimeSumMs: 10000},
		{SessionID: 2, Total: 10, Correct: 10, ReactionTimeSumMs: 6000},
	}}
	session := trial.NewSession(trial.WithClock(clock.NewMock()))
	m, err := NewModel(model.Config{Trials: 2}, session, generator.DefaultPalette, st, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	want := []string{"Last 100.0% · 600ms", fmt.Sprintf("All-time %.1f%% · %.0fms", 75.0, 800.0)}
	if out := m.renderFooter(); !containsAll(out, want) {
		t.Fatalf("unexpected footer %q", out)
	}
}

func TestNewModelRejectsEmptyPalette(t *testing.T) {
	if _, err := NewModel(model.Config{Trials: 2}, trial.NewSession(), nil, nil, nil); err == nil {
		t.Fatalf("expected error for empty palette")
	}
}
