package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/report"
	"github.com/verte-zerg/neuroscreen/internal/stats"
	"github.com/verte-zerg/neuroscreen/internal/store"
	"github.com/verte-zerg/neuroscreen/internal/vocab"
)

var (
	reportReadings   string
	reportTranscript string
	reportVocabulary string
	reportStroopLast bool
	reportWidth      int
	reportJSON       bool
	reportSave       bool
	reportNoColor    bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a risk report from modality readings",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVarP(&reportReadings, "readings", "r", "", "readings bundle (JSON or YAML)")
	cmd.Flags().StringVar(&reportTranscript, "transcript", "", "speech transcript file (overrides the bundle's transcript)")
	cmd.Flags().StringVar(&reportVocabulary, "vocabulary", "", "indicator vocabulary file, one entry per line")
	cmd.Flags().BoolVar(&reportStroopLast, "stroop-last", false, "include the most recent stored Stroop session")
	cmd.Flags().IntVar(&reportWidth, "width", 0, "wrap width for the transcript (0 = terminal width)")
	cmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&reportSave, "save", true, "record the report in history")
	cmd.Flags().BoolVar(&reportNoColor, "no-color", false, "disable colored output")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "vocabulary", &reportVocabulary, fileCfg.Report.Vocabulary)
	applyIntConfig(cmd, "width", &reportWidth, fileCfg.Report.Width)
	applyBoolConfig(cmd, "save", &reportSave, fileCfg.Report.Save)
	if reportWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}

	log, err := newLogger(fileCfg, false)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	bundle, err := loadBundle(reportReadings, reportTranscript)
	if err != nil {
		return err
	}
	vocabulary, err := vocab.Resolve(reportVocabulary)
	if err != nil {
		return err
	}

	var st *store.Store
	if reportStroopLast || reportSave {
		opened, closeStore, err := openStore(log)
		if err != nil {
			return err
		}
		defer closeStore()
		st = opened
	}
	if reportStroopLast {
		if bundle, err = withLastStroop(cmd.Context(), st, bundle); err != nil {
			return err
		}
	}

	r := report.Build(bundle, vocabulary, time.Now())
	if reportSave {
		if err := st.InsertReport(cmd.Context(), r.Record()); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}
	return writeReport(cmd.OutOrStdout(), r, log)
}

func loadBundle(readingsPath, transcriptPath string) (readings.Bundle, error) {
	var b readings.Bundle
	if readingsPath != "" {
		loaded, err := readings.Load(readingsPath)
		if err != nil {
			return readings.Bundle{}, err
		}
		b = loaded
	}
	if transcriptPath != "" {
		data, err := os.ReadFile(transcriptPath)
		if err != nil {
			return readings.Bundle{}, fmt.Errorf("read transcript %s: %w", transcriptPath, err)
		}
		b = b.WithTranscript(strings.TrimSpace(string(data)))
	}
	return b, nil
}

type sessionLister interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

func withLastStroop(ctx context.Context, st sessionLister, b readings.Bundle) (readings.Bundle, error) {
	sessions, err := st.ListSessions(ctx, model.StatsConfig{Last: 1})
	if err != nil {
		return b, fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(sessions) == 0 {
		logErrf("No stored Stroop sessions; run `neuroscreen` first.\n")
		return b, nil
	}
	last := sessions[len(sessions)-1]
	acc, avgRT := stats.SessionMetrics(last)
	return b.WithStroop(model.TrialResult{
		Total:             last.Total,
		Correct:           last.Correct,
		Accuracy:          acc,
		AvgReactionTimeMs: avgRT,
		EndedAt:           last.EndedAt,
	}), nil
}

func writeReport(w io.Writer, r report.Report, log *zap.Logger) error {
	log.Info("report built",
		zap.String("report_id", r.ID),
		zap.Float64("score", r.FinalRisk.OverallScore),
		zap.String("level", string(r.FinalRisk.Level)),
	)
	if reportJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
	width := reportWidth
	if width == 0 {
		width = stats.TerminalWidth()
	}
	useColor := !reportNoColor && stats.IsTerminal(w)
	return report.Render(w, r, width, useColor)
}
