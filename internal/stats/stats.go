// Package stats computes and renders screening history statistics.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics returns accuracy (0-100) and mean reaction time for a
// stored Stroop session.
func SessionMetrics(s model.SessionAggregate) (accuracy, avgRTMs float64) {
	if s.Total <= 0 {
		return 0, 0
	}
	accuracy = float64(s.Correct) / float64(s.Total) * 100
	avgRTMs = float64(s.ReactionTimeSumMs) / float64(s.Total)
	return accuracy, avgRTMs
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of Stroop sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No Stroop sessions found.")
		return err
	}
	var totalAcc, totalRT float64
	bestAcc := 0.0
	fastest := math.Inf(1)
	for _, s := range sessions {
		acc, rt := SessionMetrics(s)
		totalAcc += acc
		totalRT += rt
		bestAcc = math.Max(bestAcc, acc)
		fastest = math.Min(fastest, rt)
	}
	count := float64(len(sessions))
	lines := []string{
		"Stroop Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count),
		fmt.Sprintf("Best Accuracy: %.2f%%", bestAcc),
		fmt.Sprintf("Avg Reaction Time: %.0f ms", totalRT/count),
		fmt.Sprintf("Fastest Session: %.0f ms", fastest),
		"",
	}
	return writeLines(w, lines)
}

// RenderCurves plots accuracy and reaction time across sessions.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	rts := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i], rts[i] = SessionMetrics(s)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Stroop Curves", []Series{
		{Name: "Accuracy %", Values: MovingAverage(accs, window)},
		{Name: "Reaction ms", Values: MovingAverage(rts, window)},
	}, width, height, useColor)
}

// RenderInkTable prints per-ink aggregates, weakest first.
func RenderInkTable(w io.Writer, aggs []model.InkAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No ink stats found.")
		return err
	}
	rows := make([]model.InkAggregate, len(aggs))
	copy(rows, aggs)
	sortWeakestFirst(rows)

	headers := []string{"Ink", "Accuracy", "Avg RT (ms)", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, agg := range rows {
		tableRows = append(tableRows, []string{
			agg.Ink,
			fmt.Sprintf("%.2f%%", inkAccuracy(agg)*100),
			fmt.Sprintf("%.1f", inkLatency(agg)),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	lines := append([]string{"Per-Ink (Windowed)"}, formatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true, 4: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderFacialRuns prints one row per facial run with each metric's mean.
func RenderFacialRuns(w io.Writer, runs []model.FacialRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No facial runs found.")
		return err
	}
	metricSet := map[string]struct{}{}
	for _, r := range runs {
		for name := range r.Summary.Means {
			metricSet[name] = struct{}{}
		}
	}
	metrics := make([]string, 0, len(metricSet))
	for name := range metricSet {
		metrics = append(metrics, name)
	}
	sort.Strings(metrics)

	headers := append([]string{"Ended", "Samples"}, metrics...)
	rightAlign := map[int]bool{1: true}
	for i := range metrics {
		rightAlign[i+2] = true
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		row := []string{r.EndedAt.Local().Format("2006-01-02 15:04"), fmt.Sprintf("%d", r.Summary.SampleCount)}
		for _, name := range metrics {
			cell := "-"
			if v, ok := r.Summary.Means[name]; ok {
				cell = fmt.Sprintf("%.2f", v)
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	lines := append([]string{"Facial Runs"}, formatTable(headers, rows, rightAlign)...)
	return writeLines(w, append(lines, ""))
}

// RenderReports prints stored report headlines and the score trend.
func RenderReports(w io.Writer, records []model.ReportRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No reports found.")
		return err
	}
	headers := []string{"Created", "Score", "Level", "Modalities", "Pauses", "Repetitions"}
	rows := make([][]string, 0, len(records))
	scores := make([]float64, 0, len(records))
	for _, r := range records {
		mods := make([]string, len(r.Modalities))
		for i, m := range r.Modalities {
			mods[i] = string(m)
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", r.OverallScore),
			string(r.Level),
			strings.Join(mods, ","),
			fmt.Sprintf("%d", r.Pauses),
			fmt.Sprintf("%d", r.Repetitions),
		})
		scores = append(scores, r.OverallScore)
	}
	lines := append([]string{"Reports"}, formatTable(headers, rows, map[int]bool{1: true, 4: true, 5: true})...)
	lines = append(lines, "Score trend: "+Sparkline(scores), "")
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
