package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/report"
	"github.com/verte-zerg/neuroscreen/internal/stats"
)

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	var trials int
	var palette []string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().IntVar(&trials, "trials", 20, "")
	cmd.Flags().StringSliceVar(&palette, "palette", nil, "")

	fromFile := 12
	filePalette := []string{"RED", "BLUE"}
	applyIntConfig(cmd, "trials", &trials, &fromFile)
	applyStringSliceConfig(cmd, "palette", &palette, &filePalette)
	if trials != 12 || len(palette) != 2 {
		t.Fatalf("config values must apply to unchanged flags: %d %v", trials, palette)
	}

	if err := cmd.Flags().Set("trials", "5"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	applyIntConfig(cmd, "trials", &trials, &fromFile)
	if trials != 5 {
		t.Fatalf("explicit flag must win, got %d", trials)
	}
	applyIntConfig(cmd, "trials", &trials, nil)
	if trials != 5 {
		t.Fatalf("nil config value must be ignored")
	}
}

func TestPrintTrialResult(t *testing.T) {
	var buf bytes.Buffer
	res := model.TrialResult{Total: 20, Correct: 18, Accuracy: 90, AvgReactionTimeMs: 812}
	if err := printTrialResult(&buf, res); err != nil {
		t.Fatalf("print: %v", err)
	}
	want := "Accuracy: 90.0%  Avg reaction time: 0.81s  Correct: 18/20\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestLoadBundleWithTranscript(t *testing.T) {
	dir := t.TempDir()
	readingsPath := filepath.Join(dir, "bundle.yaml")
	if err := os.WriteFile(readingsPath, []byte("cognitive_data:\n  cognitive_risk: 30\nspeech_data:\n  transcript: old\n"), 0o644); err != nil {
		t.Fatalf("write readings: %v", err)
	}
	transcriptPath := filepath.Join(dir, "speech.txt")
	if err := os.WriteFile(transcriptPath, []byte("um the the cat\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	b, err := loadBundle(readingsPath, transcriptPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.Transcript() != "um the the cat" || b.Cognitive == nil {
		t.Fatalf("unexpected bundle: %+v", b)
	}
	if _, err := loadBundle(filepath.Join(dir, "missing.yaml"), ""); err == nil {
		t.Fatalf("expected error for missing readings")
	}
}

type fakeLister struct {
	sessions []model.SessionAggregate
}

func (f fakeLister) ListSessions(context.Context, model.StatsConfig) ([]model.SessionAggregate, error) {
	return f.sessions, nil
}

func TestWithLastStroop(t *testing.T) {
	lister := fakeLister{sessions: []model.SessionAggregate{
		{SessionID: 1, Total: 10, Correct: 2, ReactionTimeSumMs: 9000},
		{SessionID: 2, Total: 10, Correct: 8, ReactionTimeSumMs: 7000},
	}}
	b, err := withLastStroop(context.Background(), lister, readings.Bundle{})
	if err != nil {
		t.Fatalf("with last stroop: %v", err)
	}
	if b.Stroop == nil || *b.Stroop.Accuracy != 80 || *b.Stroop.AvgReactionTimeMs != 700 || *b.Stroop.TotalQuestions != 10 {
		t.Fatalf("unexpected stroop result: %+v", b.Stroop)
	}

	b, err = withLastStroop(context.Background(), fakeLister{}, readings.Bundle{})
	if err != nil || b.Stroop != nil {
		t.Fatalf("no sessions must leave the bundle unchanged: %+v %v", b.Stroop, err)
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := renderHistory(&buf, stats.History{}, model.StatsConfig{CurveWindow: 5}, 80, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"No Stroop sessions found.", "No facial runs found.", "No reports found."} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Weakest inks") {
		t.Fatalf("ink summary must be skipped without sessions")
	}
}

func TestReportCommandJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	bundlePath := filepath.Join(dir, "bundle.json")
	bundle := `{"cognitive_data": {"cognitive_risk": 50}, "speech_data": {"risk_score": 0.3, "transcript": "I um I think"}}`
	if err := os.WriteFile(bundlePath, []byte(bundle), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"report", "--readings", bundlePath, "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var r report.Report
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out.String())
	}
	if r.FinalRisk.OverallScore != 40 || r.FinalRisk.Level != model.LevelModerate || r.Indicators.PauseCount != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
	if time.Since(r.CreatedAt) > time.Minute {
		t.Fatalf("unexpected created_at %v", r.CreatedAt)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "neuroscreen", "neuroscreen.db")); err != nil {
		t.Fatalf("report must be recorded in the default db: %v", err)
	}
}
