package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	acc, rt := SessionMetrics(model.SessionAggregate{Total: 20, Correct: 15, ReactionTimeSumMs: 12000})
	if acc != 75 || rt != 600 {
		t.Fatalf("unexpected metrics: %v %v", acc, rt)
	}
	if acc, rt := SessionMetrics(model.SessionAggregate{}); acc != 0 || rt != 0 {
		t.Fatalf("empty session must yield zeros")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{1, 2}, 0); got[1] != 2 {
		t.Fatalf("window <= 1 must copy values")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5}); got != "++" {
		t.Fatalf("flat series must render mid chars, got %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("empty series must render empty")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.SessionAggregate{
		{Total: 10, Correct: 10, ReactionTimeSumMs: 5000},
		{Total: 10, Correct: 5, ReactionTimeSumMs: 8000},
	}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg Accuracy: 75.00%", "Best Accuracy: 100.00%", "Avg Reaction Time: 650 ms", "Fastest Session: 500 ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderInkTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.InkAggregate{
		{Ink: "RED", Correct: 9, Incorrect: 1, LatencySumMs: 4500, LatencyCount: 9},
		{Ink: "BLUE", Correct: 1, Incorrect: 1, LatencySumMs: 900, LatencyCount: 1},
	}
	if err := RenderInkTable(&buf, aggs); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "BLUE") || !strings.HasPrefix(lines[3], "RED") {
		t.Fatalf("expected weakest ink first:\n%s", buf.String())
	}
}

func TestWeakestAndSlowestInks(t *testing.T) {
	aggs := []model.InkAggregate{
		{Ink: "RED", Correct: 3, Incorrect: 1, LatencySumMs: 1200, LatencyCount: 3},
		{Ink: "BLUE", Correct: 1, Incorrect: 3, LatencySumMs: 300, LatencyCount: 1},
		{Ink: "GREEN", Correct: 2, Incorrect: 2},
	}
	weak := WeakestInks(aggs, 2)
	if len(weak) != 2 || weak[0] != "BLUE" || weak[1] != "GREEN" {
		t.Fatalf("unexpected weakest inks: %v", weak)
	}
	slow := SlowestInks(aggs, 5)
	if len(slow) != 2 || slow[0] != "RED" || slow[1] != "BLUE" {
		t.Fatalf("unexpected slowest inks: %v", slow)
	}
}

func TestRenderFacialRunsAndReports(t *testing.T) {
	var buf bytes.Buffer
	runs := []model.FacialRun{
		{EndedAt: time.Now(), Summary: model.SummaryStatistics{SampleCount: 30, Means: map[string]float64{"blink_rate": 15.2}}},
		{EndedAt: time.Now(), Summary: model.SummaryStatistics{}},
	}
	if err := RenderFacialRuns(&buf, runs); err != nil {
		t.Fatalf("render runs: %v", err)
	}
	if !strings.Contains(buf.String(), "blink_rate") || !strings.Contains(buf.String(), "15.20") {
		t.Fatalf("facial table missing data:\n%s", buf.String())
	}

	buf.Reset()
	records := []model.ReportRecord{
		{CreatedAt: time.Now(), OverallScore: 12, Level: model.LevelLow},
		{CreatedAt: time.Now(), OverallScore: 45, Level: model.LevelHigh, Modalities: []model.Modality{model.ModalityQuiz, model.ModalitySpeech}},
	}
	if err := RenderReports(&buf, records); err != nil {
		t.Fatalf("render reports: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"HIGH", "quiz,speech", "Score trend: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("reports missing %q:\n%s", want, out)
		}
	}
}
