package main

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/facial"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/sampler"
	"github.com/verte-zerg/neuroscreen/internal/tui"
)

var (
	facialIntervalMs int
	facialDurationMs int
	facialSeed       int64
	facialOut        string
)

func newFacialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facial",
		Short: "Sample facial metrics with a live display",
		Args:  cobra.NoArgs,
		RunE:  runFacialCmd,
	}
	cmd.Flags().IntVar(&facialIntervalMs, "interval-ms", int(sampler.DefaultInterval/time.Millisecond), "sampling interval in milliseconds")
	cmd.Flags().IntVar(&facialDurationMs, "duration-ms", int(sampler.DefaultDuration/time.Millisecond), "sampling duration in milliseconds")
	cmd.Flags().Int64Var(&facialSeed, "seed", 0, "simulator seed (0 = random)")
	cmd.Flags().StringVar(&facialOut, "out", "", "merge the summary into this readings file")
	return cmd
}

func runFacialCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "interval-ms", &facialIntervalMs, fileCfg.Facial.IntervalMs)
	applyIntConfig(cmd, "duration-ms", &facialDurationMs, fileCfg.Facial.DurationMs)
	applyInt64Config(cmd, "seed", &facialSeed, fileCfg.Facial.Seed)

	cfg := model.FacialConfig{
		IntervalMs: facialIntervalMs,
		DurationMs: facialDurationMs,
		Seed:       facialSeed,
	}
	if err := settingsValidator.Validate(cfg); err != nil {
		return err
	}

	log, err := newLogger(fileCfg, false)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	st, closeStore, err := openStore(log)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := signalContext()
	defer cancel()

	s := sampler.New(facial.NewSimulator(cfg.Seed),
		sampler.WithInterval(time.Duration(cfg.IntervalMs)*time.Millisecond),
		sampler.WithDuration(time.Duration(cfg.DurationMs)*time.Millisecond),
		sampler.WithRanges(facial.Ranges),
		sampler.WithLogger(log),
	)
	m, err := tui.NewFacialModel(ctx, s, st, log)
	if err != nil {
		return err
	}
	log.Info("facial sampling started", zap.Int("interval_ms", cfg.IntervalMs), zap.Int("duration_ms", cfg.DurationMs))
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		// Make sure the sampler goroutine is gone before returning.
		s.Stop()
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	summary, ok := m.Summary()
	if !ok || summary.Empty() {
		return nil
	}
	if err := printFacialSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if facialOut == "" {
		return nil
	}
	return mergeReadings(facialOut, func(b readings.Bundle) readings.Bundle { return b.WithFacial(summary) })
}

func printFacialSummary(w io.Writer, summary model.SummaryStatistics) error {
	for _, name := range facial.Names() {
		mean, ok := summary.Means[name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-22s %6.2f\n", facial.Labels[name], mean); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-22s %6d\n", "Total samples", summary.SampleCount)
	return err
}
