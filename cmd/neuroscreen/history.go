package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/stats"
	"github.com/verte-zerg/neuroscreen/internal/statsui"
)

const (
	historyPlotHeight = 10
	historyWeakTop    = 3
)

var (
	historySince       string
	historyLast        int
	historyCurveWindow int
	historyPlain       bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"stats"},
		Short:   "Show screening history",
		Args:    cobra.NoArgs,
		RunE:    runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N entries")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print instead of opening the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	since, err := parseSince(historySince)
	if err != nil {
		return err
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	cfg := model.StatsConfig{
		Since:       since,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
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

	out := cmd.OutOrStdout()
	if historyPlain || !stats.IsTerminal(out) {
		h, err := stats.BuildHistory(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return renderHistory(out, h, cfg, stats.TerminalWidth(), stats.IsTerminal(out))
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func renderHistory(w io.Writer, h stats.History, cfg model.StatsConfig, width int, useColor bool) error {
	if err := stats.RenderSummary(w, h.Sessions); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, h.Sessions, cfg.CurveWindow, width, historyPlotHeight, useColor); err != nil {
		return err
	}
	if len(h.Sessions) > 0 {
		if err := stats.RenderInkTable(w, h.InkAggsWindow); err != nil {
			return err
		}
		if weakest := stats.WeakestInks(h.InkAggsWindow, historyWeakTop); len(weakest) > 0 {
			if _, err := fmt.Fprintf(w, "Weakest inks: %s\n", strings.Join(weakest, ", ")); err != nil {
				return err
			}
		}
		if slowest := stats.SlowestInks(h.InkAggsWindow, historyWeakTop); len(slowest) > 0 {
			if _, err := fmt.Fprintf(w, "Slowest inks: %s\n\n", strings.Join(slowest, ", ")); err != nil {
				return err
			}
		}
	}
	if err := stats.RenderFacialRuns(w, h.FacialRuns); err != nil {
		return err
	}
	return stats.RenderReports(w, h.Reports)
}
