// Package main provides the CLI entrypoint for cartrack.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/cartrack/internal/config"
	"github.com/verte-zerg/cartrack/internal/historyui"
	"github.com/verte-zerg/cartrack/internal/logging"
	"github.com/verte-zerg/cartrack/internal/model"
	"github.com/verte-zerg/cartrack/internal/session"
	"github.com/verte-zerg/cartrack/internal/stats"
	"github.com/verte-zerg/cartrack/internal/store"
	"github.com/verte-zerg/cartrack/internal/tracker"
	"github.com/verte-zerg/cartrack/internal/tui"
)

const (
	defaultElapsedMode = "duration"
	defaultTrendWindow = 5
	defaultTermWidth   = 80
)

var (
	countLabel       string
	countElapsedMode string
	logLevel         string

	historyLabel string
	historySince string
	historyLast  int

	statsLabel       string
	statsSince       string
	statsLast        int
	statsTrendWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cartrack",
		Short:         "Count cars passing a crosswalk",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runCountCmd,
	}

	rootCmd.Flags().StringVar(&countLabel, "label", "", "label for this session (e.g. crosswalk name)")
	rootCmd.Flags().StringVar(&countElapsedMode, "elapsed-mode", defaultElapsedMode, "elapsed minutes: duration or minute-of-hour")
	rootCmd.Flags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runCountCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "label", &countLabel, fileCfg.Counter.Label)
	applyStringConfig(cmd, "elapsed-mode", &countElapsedMode, fileCfg.Counter.ElapsedMode)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	cfg := model.Config{
		Label:       strings.TrimSpace(countLabel),
		ElapsedMode: countElapsedMode,
		LogLevel:    logLevel,
	}
	mode, err := validateConfig(cfg)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file while counting.
	logger, closeLog, err := logging.OpenFile(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			printErrf(cmd, "failed to close log: %v\n", cerr)
		}
	}()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close db")
		}
	}()

	ctx := context.Background()
	last, hasLast, err := st.LastSession(ctx, cfg.Label)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load previous session")
	}

	sess := session.Open(cfg.Label,
		session.WithElapsedMode(mode),
		session.WithArchiver(st),
		session.WithLogger(logger),
	)
	screen := tui.NewModel(sess, last, hasLast)
	program := tea.NewProgram(screen, tea.WithAltScreen())
	_, runErr := program.Run()
	screen.Close()

	rec, err := sess.Close(ctx)
	switch {
	case errors.Is(err, session.ErrEmpty):
		if _, werr := fmt.Fprintln(cmd.OutOrStdout(), "No cars counted; nothing archived."); werr != nil {
			return fmt.Errorf("failed to write output: %w", werr)
		}
	case err != nil:
		return err
	default:
		if werr := printSessionSummary(cmd.OutOrStdout(), rec); werr != nil {
			return fmt.Errorf("failed to write output: %w", werr)
		}
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func printSessionSummary(w io.Writer, rec model.SessionRecord) error {
	_, err := fmt.Fprintf(w, "Archived session: %d cars in %d min (%s cars/min)\n",
		rec.Count, rec.MinutesElapsed, stats.FormatRate(rec.RatePerMinute))
	return err
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
	if err := writeDefaultConfig(path); err != nil {
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

// writeDefaultConfig creates the config template unless a file already exists.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List labels of archived sessions",
		Args:  cobra.NoArgs,
		RunE:  runLabelsCmd,
	}
}

func runLabelsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(cmd, st)

	labels, err := st.Labels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}
	if len(labels) == 0 {
		printErrf(cmd, "No sessions archived yet. Start counting with: cartrack --label <name>\n")
		return fmt.Errorf("no sessions found")
	}
	for _, label := range labels {
		if label == "" {
			label = "(unlabeled)"
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), label); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyLabel, "label", "", "label filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := buildFilter(historyLabel, historySince, historyLast)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(cmd, st)

	if !isTerminal(os.Stdout) {
		return printReport(cmd.Context(), cmd.OutOrStdout(), st, filter, defaultTrendWindow, defaultTermWidth)
	}
	program := tea.NewProgram(historyui.NewModel(st, filter), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a summary of archived sessions",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLabel, "label", "", "label filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsTrendWindow, "trend-window", defaultTrendWindow, "moving average window for the rate trend")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	filter, err := buildFilter(statsLabel, statsSince, statsLast)
	if err != nil {
		return err
	}
	if statsTrendWindow < 0 {
		return fmt.Errorf("--trend-window must be >= 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(cmd, st)

	return printReport(cmd.Context(), cmd.OutOrStdout(), st, filter, statsTrendWindow, terminalWidth())
}

func printReport(ctx context.Context, w io.Writer, lister stats.SessionLister, filter model.HistoryFilter, trendWindow, width int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, lister, filter)
	if err != nil {
		return err
	}
	trendWidth := max(1, width-len("Rate trend: "))
	if err := stats.RenderReport(w, report, trendWindow, trendWidth); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func buildFilter(label, since string, last int) (model.HistoryFilter, error) {
	if last < 0 {
		return model.HistoryFilter{}, fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{Label: strings.TrimSpace(label), Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryFilter{}, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func closeStore(cmd *cobra.Command, st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		printErrf(cmd, "failed to close db: %v\n", cerr)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# cartrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[counter]
# label = ""                 # Session label, e.g. the crosswalk name
# elapsed-mode = %q    # "duration" or "minute-of-hour"

[log]
# level = %q               # debug, info, warn, error
`,
		defaultElapsedMode,
		logging.DefaultLevel,
	)
}

func validateConfig(cfg model.Config) (tracker.ElapsedMode, error) {
	mode, err := tracker.ParseElapsedMode(cfg.ElapsedMode)
	if err != nil {
		return mode, fmt.Errorf("--elapsed-mode must be duration or minute-of-hour: %w", err)
	}
	if err := logging.ValidateLevel(cfg.LogLevel); err != nil {
		return mode, fmt.Errorf("--log-level must be a valid level: %w", err)
	}
	return mode, nil
}

func printErrf(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
