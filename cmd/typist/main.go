// Package main provides the CLI entrypoint for typist.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typist/internal/config"
	"github.com/verte-zerg/typist/internal/content"
	"github.com/verte-zerg/typist/internal/history"
	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/session"
	"github.com/verte-zerg/typist/internal/stats"
	"github.com/verte-zerg/typist/internal/statsui"
	"github.com/verte-zerg/typist/internal/store"
	"github.com/verte-zerg/typist/internal/tui"
)

const (
	defaultMode        = model.ModeWords
	defaultWords       = 25
	defaultTime        = 30
	defaultDifficulty  = "medium"
	defaultCodeLang    = "golang"
	defaultCaps        = 0.0
	defaultPunct       = 0.0
	defaultAvgDays     = 7
	defaultCurveWindow = 1
)

var (
	practiceMode       string
	practiceWords      int
	practiceTime       int
	practiceDifficulty string
	practiceCodeLang   string
	practiceText       string
	practiceTextFile   string
	practiceWordList   string
	practiceCaps       float64
	practicePunct      float64
	practiceNumbers    bool

	statsPlain       bool
	statsAvgDays     int
	statsCurveWindow int

	exportFormat string
	exportOut    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typist",
		Short:         "TUI typing practice",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "test mode: word, time, quote, code or custom")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per text")
	rootCmd.Flags().IntVar(&practiceTime, "time", defaultTime, "time limit in seconds for time mode")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "quote difficulty: easy, medium or hard")
	rootCmd.Flags().StringVar(&practiceCodeLang, "code-lang", defaultCodeLang, "snippet language for code mode")
	rootCmd.Flags().StringVar(&practiceText, "text", "", "custom text for custom mode")
	rootCmd.Flags().StringVar(&practiceTextFile, "text-file", "", "file with custom text for custom mode")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "word list file (default: built-in English)")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	rootCmd.Flags().BoolVar(&practiceNumbers, "numbers", false, "mix numbers into word tests")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyIntConfig(cmd, "time", &practiceTime, fileCfg.Practice.TimeLimit)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "code-lang", &practiceCodeLang, fileCfg.Practice.CodeLang)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Practice.PunctPct)
	applyBoolConfig(cmd, "numbers", &practiceNumbers, fileCfg.Practice.Numbers)

	cfg := model.Config{
		Mode:         strings.ToLower(strings.TrimSpace(practiceMode)),
		Words:        practiceWords,
		TimeLimit:    practiceTime,
		Difficulty:   strings.ToLower(strings.TrimSpace(practiceDifficulty)),
		CodeLang:     strings.ToLower(strings.TrimSpace(practiceCodeLang)),
		CustomText:   practiceText,
		WordListPath: practiceWordList,
		CapsPct:      practiceCaps,
		PunctPct:     practicePunct,
		Numbers:      practiceNumbers,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	var words []string
	if cfg.WordListPath != "" {
		words, err = content.LoadWords(cfg.WordListPath)
		if err != nil {
			return fmt.Errorf("failed to load word list: %w", err)
		}
	}
	custom, err := loadCustomText(cfg, practiceTextFile)
	if err != nil {
		return err
	}

	hist, closeStore := openHistory(cmd.Context(), fileCfg)
	defer closeStore()

	sess := session.New()
	gen := content.New(words)
	m := tui.NewModel(cfg, sess, gen, hist, custom)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadCustomText(cfg model.Config, path string) ([]string, error) {
	if cfg.Mode != model.ModeCustom {
		return nil, nil
	}
	switch {
	case path != "":
		words, err := content.LoadCustom(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load custom text: %w", err)
		}
		return words, nil
	case cfg.CustomText != "":
		words, err := content.Custom(cfg.CustomText)
		if err != nil {
			return nil, fmt.Errorf("--text: %w", err)
		}
		return words, nil
	}
	logErrln("no custom text given; using random words")
	return nil, nil
}

// openHistory opens the SQLite-backed history. When the database is
// unavailable history still works for the current run, in memory only.
func openHistory(ctx context.Context, fileCfg config.FileConfig) (*history.Aggregator, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := history.Options{
		Limits: history.Limits{
			MaxResults: lo.FromPtr(fileCfg.History.MaxResults),
			MaxDays:    lo.FromPtr(fileCfg.History.MaxDays),
		},
		OnError: func(err error) { logErrf("history: %v\n", err) },
	}
	dbPath := config.DefaultDBPath()
	if p := lo.FromPtr(fileCfg.History.DBPath); p != "" {
		dbPath = p
	}
	st, err := store.Open(dbPath)
	if err != nil {
		logErrf("failed to open db, history will not be saved: %v\n", err)
		return history.New(ctx, opts), func() {}
	}
	opts.Storage = st.Slot(config.HistorySlot)
	return history.New(ctx, opts), func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
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

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain-text report instead of the TUI")
	cmd.Flags().IntVar(&statsAvgDays, "avg-days", defaultAvgDays, "days included in averages (0 = all retained results)")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the WPM sparkline")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "avg-days", &statsAvgDays, fileCfg.Stats.AvgDays)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	if statsAvgDays < 0 {
		return fmt.Errorf("--avg-days must be >= 0")
	}

	cfg := model.StatsConfig{
		Plain:       statsPlain,
		AvgDays:     statsAvgDays,
		CurveWindow: statsCurveWindow,
	}

	hist, closeStore := openHistory(cmd.Context(), fileCfg)
	defer closeStore()

	if cfg.Plain {
		return stats.RenderReport(cmd.OutOrStdout(), hist, cfg)
	}
	m := statsui.NewModel(hist, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved results",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runHistoryExportCmd,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or yaml")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved results",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClearCmd,
	}

	cmd.AddCommand(exportCmd, clearCmd)
	return cmd
}

func runHistoryExportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	hist, closeStore := openHistory(cmd.Context(), fileCfg)
	defer closeStore()

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		file, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				logErrf("failed to close export file: %v\n", cerr)
			}
		}()
		w = file
	}
	return exportHistory(w, hist.Snapshot(), exportFormat)
}

func exportHistory(w io.Writer, state history.State, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("--format must be json or yaml, got %q", format)
	}
	return nil
}

func runHistoryClearCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	hist, closeStore := openHistory(cmd.Context(), fileCfg)
	defer closeStore()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	hist.Clear(ctx)
	logErrln("history cleared")
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typist configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q            # word, time, quote, code or custom
# words = %d              # Words per text
# time = %d               # Time limit in seconds for time mode
# difficulty = %q    # Quote difficulty: easy, medium or hard
# code-lang = %q     # Snippet language: %s
# wordlist = ""           # Word list file (default: built-in English)
# caps = %.2f             # Probability of capitalized first letter (0-1)
# punct = %.2f            # Punctuation probability per word (0-1)
# numbers = false         # Mix numbers into word tests

[history]
# max-results = %d        # Results kept
# max-days = %d            # Days of daily stats kept
# db = %q

[stats]
# avg-days = %d            # Days included in averages
# curve-window = %d        # Moving average window for the WPM sparkline
`,
		defaultMode,
		defaultWords,
		defaultTime,
		defaultDifficulty,
		defaultCodeLang,
		strings.Join(content.Languages(), ", "),
		defaultCaps,
		defaultPunct,
		history.DefaultMaxResults,
		history.DefaultMaxDays,
		config.DefaultDBPath(),
		defaultAvgDays,
		defaultCurveWindow,
	)
}

func validateConfig(cfg model.Config) error {
	switch cfg.Mode {
	case model.ModeWords, model.ModeTime, model.ModeQuote, model.ModeCode, model.ModeCustom:
	default:
		return fmt.Errorf("--mode must be one of word, time, quote, code, custom")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.Mode == model.ModeTime && cfg.TimeLimit <= 0 {
		return fmt.Errorf("--time must be > 0")
	}
	if cfg.Mode == model.ModeQuote && !lo.Contains(content.Difficulties, cfg.Difficulty) {
		return fmt.Errorf("--difficulty must be one of %s", strings.Join(content.Difficulties, ", "))
	}
	if cfg.Mode == model.ModeCode && !lo.Contains(content.Languages(), cfg.CodeLang) {
		return fmt.Errorf("--code-lang must be one of %s", strings.Join(content.Languages(), ", "))
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
