package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/neuroscreen/internal/facial"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	highStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#CC0000")).Bold(true)
	mediumStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFC107"))
	levelStyles  = map[model.Level]lipgloss.Style{
		model.LevelHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F")),
		model.LevelModerate: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFC107")),
		model.LevelLow:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
	}
)

// theme switches between ANSI styling and plain-text markers.
type theme struct {
	color bool
}

func (t theme) highlight(tok string, sev model.Severity) (string, int) {
	if t.color {
		style := mediumStyle
		if sev == model.SeverityHigh {
			style = highStyle
		}
		return style.Render(tok), runewidth.StringWidth(tok)
	}
	marked := "(" + tok + ")"
	if sev == model.SeverityHigh {
		marked = "[" + tok + "]"
	}
	return marked, runewidth.StringWidth(marked)
}

func (t theme) apply(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

func (t theme) level(l model.Level) string {
	style, ok := levelStyles[l]
	if !ok {
		return string(l)
	}
	return t.apply(style, string(l))
}

// Render writes the report as text. width bounds the transcript block; zero
// disables wrapping.
func Render(w io.Writer, r Report, width int, useColor bool) error {
	th := theme{color: useColor}
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", th.apply(titleStyle, "Dementia Screening Results"))
	line("%s", th.apply(mutedStyle, fmt.Sprintf("Report %s · %s", r.ID, r.CreatedAt.Format("2006-01-02 15:04"))))
	line("")
	line("Final Risk Level: %s", th.level(r.FinalRisk.Level))
	line("Risk Score: %.2f/100", r.FinalRisk.OverallScore)
	line("%s", r.FinalRisk.Recommendation)
	line("")

	line("%s", th.apply(sectionStyle, "Modalities"))
	for _, sub := range r.Subscores {
		if sub.Available {
			line("  %-8s %6.2f", sub.Modality, sub.Score)
		} else {
			line("  %-8s %6s", sub.Modality, "n/a")
		}
	}
	line("")

	if s := r.Stroop; s != nil {
		line("%s", th.apply(sectionStyle, "Stroop Test"))
		if s.Accuracy != nil {
			line("  Accuracy: %.2f%%", *s.Accuracy)
		}
		if s.AvgReactionTimeMs != nil {
			line("  Average Reaction Time: %.2fs", *s.AvgReactionTimeMs/1000)
		}
		if s.CorrectAnswers != nil && s.TotalQuestions != nil {
			line("  Correct Answers: %d/%d", *s.CorrectAnswers, *s.TotalQuestions)
		}
		line("")
	}

	if c := r.Cognitive; c != nil {
		line("%s", th.apply(sectionStyle, "Cognitive Analysis"))
		if c.Accuracy != nil {
			line("  Accuracy: %.2f%%", *c.Accuracy)
		}
		if c.CorrectAnswers != nil && c.TotalQuestions != nil {
			line("  Correct Answers: %d/%d", *c.CorrectAnswers, *c.TotalQuestions)
		}
		if c.CognitiveRisk != nil {
			line("  Risk Score: %.2f", *c.CognitiveRisk)
		}
		if c.TestType != "" {
			line("  Test Type: %s", c.TestType)
		}
		line("")
	}

	if s := r.Speech; s != nil {
		line("%s", th.apply(sectionStyle, "Speech Analysis"))
		writeRisk(line, s)
		if f := s.Features; f != nil {
			if f.PauseRate != nil {
				line("  Pause Rate: %.1f%%", *f.PauseRate*100)
			}
			if f.RepetitionRate != nil {
				line("  Repetition Rate: %.1f%%", *f.RepetitionRate*100)
			}
		}
		line("")
	}

	if f := r.Facial; f != nil {
		line("%s", th.apply(sectionStyle, "Facial Analysis"))
		writeRisk(line, f)
		if v, ok := f.InputMetrics[facial.EyeGazeStability]; ok {
			line("  Gaze Stability: %.1f%%", v*100)
		}
		if v, ok := f.InputMetrics[facial.BlinkRate]; ok {
			line("  Blink Rate: %.0f blinks/min", v)
		}
		line("")
	}

	if r.Transcript != "" {
		line("%s", th.apply(sectionStyle, "Key Risk Indicators"))
		line("%s", r.Indicators.Summary)
		tokens := buildStyledTokens(r.Transcript, r.Indicators.Highlights, th)
		line("%s", wrapStyledTokens(tokens, width))
		high, _ := th.highlight("high", model.SeverityHigh)
		medium, _ := th.highlight("medium", model.SeverityMedium)
		line("%s", th.apply(mutedStyle, "Legend: ")+high+" risk indicator  "+medium+" risk indicator")
		line("")
	}

	line("%s", th.apply(sectionStyle, "Clinical Information"))
	line("%s", r.ClinicalNote)
	line("Validated by: %s", r.ValidatedBy)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRisk(line func(string, ...any), r *readings.Result) {
	switch {
	case r.RiskScore != nil:
		line("  Risk Score: %.2f", *r.RiskScore)
	case r.TotalRisk != nil:
		line("  Risk Score: %.2f", *r.TotalRisk)
	}
	if r.RiskLevel != "" {
		line("  Risk Level: %s", r.RiskLevel)
	}
}
