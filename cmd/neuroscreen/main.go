// Package main provides the CLI entrypoint for neuroscreen.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/neuroscreen/internal/config"
	"github.com/verte-zerg/neuroscreen/internal/generator"
	"github.com/verte-zerg/neuroscreen/internal/logging"
	"github.com/verte-zerg/neuroscreen/internal/model"
	"github.com/verte-zerg/neuroscreen/internal/readings"
	"github.com/verte-zerg/neuroscreen/internal/store"
	"github.com/verte-zerg/neuroscreen/internal/trial"
	"github.com/verte-zerg/neuroscreen/internal/tui"
)

const (
	defaultCurveWindow = 20
	defaultLogSizeMB   = 10
	defaultLogBackups  = 3
)

var (
	logLevel string
	dbPath   string

	stroopTrials  int
	stroopDelayMs int
	stroopPalette []string
	stroopSeed    int64
	stroopOut     string
)

var settingsValidator = config.NewValidator()

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "neuroscreen",
		Short:         "Multi-modal cognitive screening",
		Long:          "Runs a Stroop color-word test. Subcommands sample facial metrics, build risk reports and serve the report API.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runStroopCmd,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: XDG data dir)")

	rootCmd.Flags().IntVar(&stroopTrials, "trials", trial.DefaultTrialCount, "number of trials")
	rootCmd.Flags().IntVar(&stroopDelayMs, "delay-ms", int(trial.DefaultDelay/time.Millisecond), "pause between trials in milliseconds")
	rootCmd.Flags().StringSliceVar(&stroopPalette, "palette", nil, "color names to use (default: all six)")
	rootCmd.Flags().Int64Var(&stroopSeed, "seed", 0, "stimulus seed (0 = random)")
	rootCmd.Flags().StringVar(&stroopOut, "out", "", "merge the result into this readings file")

	rootCmd.AddCommand(newFacialCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadFileConfig reads the config file and applies the shared log settings.
func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	return fileCfg, nil
}

func newLogger(fileCfg config.FileConfig, console bool) (*zap.Logger, error) {
	opts := logging.Options{
		Dir:        config.DefaultLogDir(),
		Level:      logLevel,
		Console:    console,
		MaxSizeMB:  defaultLogSizeMB,
		MaxBackups: defaultLogBackups,
	}
	if fileCfg.Log.Dir != nil {
		opts.Dir = *fileCfg.Log.Dir
	}
	if fileCfg.Log.MaxSizeMB != nil {
		opts.MaxSizeMB = *fileCfg.Log.MaxSizeMB
	}
	if fileCfg.Log.MaxBackups != nil {
		opts.MaxBackups = *fileCfg.Log.MaxBackups
	}
	log, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return log, nil
}

func syncLogger(log *zap.Logger) {
	if err := log.Sync(); err != nil {
		// Best-effort flush; stderr sync fails on some terminals.
		_ = err
	}
}

func openStore(log *zap.Logger) (*store.Store, func(), error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("failed to close db", zap.Error(cerr))
		}
	}
	return st, closeFn, nil
}

func runStroopCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "trials", &stroopTrials, fileCfg.Stroop.Trials)
	applyIntConfig(cmd, "delay-ms", &stroopDelayMs, fileCfg.Stroop.DelayMs)
	applyStringSliceConfig(cmd, "palette", &stroopPalette, fileCfg.Stroop.Palette)

	cfg := model.Config{
		Trials:  stroopTrials,
		DelayMs: stroopDelayMs,
		Palette: stroopPalette,
	}
	if err := settingsValidator.Validate(cfg); err != nil {
		return err
	}
	palette, err := generator.PaletteFromNames(cfg.Palette)
	if err != nil {
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

	gen := generator.New()
	if stroopSeed != 0 {
		gen = generator.NewSeeded(stroopSeed)
	}
	session := trial.NewSession(
		trial.WithGenerator(gen),
		trial.WithDelay(time.Duration(cfg.DelayMs)*time.Millisecond),
	)
	m, err := tui.NewModel(cfg, session, palette, st, log)
	if err != nil {
		return err
	}
	log.Info("stroop session started", zap.Int("trials", cfg.Trials), zap.Int("palette", len(palette)))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	res, ok := m.Result()
	if !ok {
		return nil
	}
	if err := printTrialResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if stroopOut == "" {
		return nil
	}
	return mergeReadings(stroopOut, func(b readings.Bundle) readings.Bundle { return b.WithStroop(res) })
}

func printTrialResult(w io.Writer, res model.TrialResult) error {
	_, err := fmt.Fprintf(w, "Accuracy: %.1f%%  Avg reaction time: %.2fs  Correct: %d/%d\n",
		res.Accuracy, res.AvgReactionTimeMs/1000, res.Correct, res.Total)
	return err
}

// mergeReadings applies update to the bundle stored at path, creating it
// when missing.
func mergeReadings(path string, update func(readings.Bundle) readings.Bundle) error {
	b, err := readings.LoadOrEmpty(path)
	if err != nil {
		return err
	}
	if err := readings.Save(path, update(b)); err != nil {
		return err
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := config.EnsureFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

// signalContext is cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
