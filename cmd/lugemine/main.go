// Package main provides the CLI entrypoint for lugemine.
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/lugemine/internal/config"
	"github.com/verte-zerg/lugemine/internal/exercise"
	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/match"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/tui"
)

const (
	defaultDifficulty = string(model.Rabbit)
	defaultEngine     = engineAuto
	defaultLang       = "et"
	defaultWindow     = 5
)

var (
	practiceExercise   int
	practiceDifficulty string
	practiceEngine     string
	practiceLang       string
	practiceSentences  string
	practiceTolerance  int
	practiceHighlight  bool

	historyDifficulty string
	historySince      string
	historyLast       int
	historyWindow     int
	historyPlain      bool

	exportOut       string
	exportClipboard bool

	clearYes bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lugemine",
		Short:         "Pyramid reading practice",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().IntVar(&practiceExercise, "exercise", 0, "open exercise by number (0: show menu)")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "snail, rabbit or tiger")
	rootCmd.Flags().StringVar(&practiceEngine, "engine", defaultEngine, "speech engine: auto, deepgram or keyboard")
	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "recognition language")
	rootCmd.Flags().StringVar(&practiceSentences, "sentences", "", "sentence file, one sentence per line")
	rootCmd.Flags().IntVar(&practiceTolerance, "tolerance", 0, "allowed edit distance for longer words")
	rootCmd.Flags().BoolVar(&practiceHighlight, "highlight-wrong", true, "highlight the expected word after a wrong one")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newClearCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv(config.DefaultEnvPath(), ".env")
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "engine", &practiceEngine, fileCfg.Practice.Engine)
	applyStringConfig(cmd, "lang", &practiceLang, fileCfg.Practice.Lang)
	applyStringConfig(cmd, "sentences", &practiceSentences, fileCfg.Practice.Sentences)
	applyIntConfig(cmd, "tolerance", &practiceTolerance, fileCfg.Practice.Tolerance)
	applyBoolConfig(cmd, "highlight-wrong", &practiceHighlight, fileCfg.Practice.HighlightWrong)

	difficulty, err := model.ParseDifficulty(practiceDifficulty)
	if err != nil {
		return fmt.Errorf("invalid --difficulty: %w", err)
	}
	cfg := model.Config{
		Difficulty:     difficulty,
		Engine:         strings.ToLower(strings.TrimSpace(practiceEngine)),
		Lang:           practiceLang,
		SentencesPath:  practiceSentences,
		Tolerance:      practiceTolerance,
		HighlightWrong: practiceHighlight,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	exercises, err := exercise.Load(cfg.SentencesPath)
	if err != nil {
		return fmt.Errorf("failed to load sentences: %w", err)
	}
	startIndex, err := resolveStartIndex(exercises, practiceExercise)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(fileCfg.Log, envCfg)
	if err != nil {
		return err
	}
	defer closeLog()

	kvStore, closeStore, err := openStorage(fileCfg.Storage, envCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	hist := history.New(kvStore, logger)

	eng, err := newEngine(cfg, fileCfg.Deepgram, envCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := eng.transcriber.Close(); cerr != nil {
			logger.Warn("close speech engine", "err", cerr)
		}
	}()

	var matchOpts []match.Option
	if cfg.Tolerance > 0 {
		matchOpts = append(matchOpts, match.WithTolerance(cfg.Tolerance))
	}

	logger.Info("practice started", "engine", eng.name, "difficulty", cfg.Difficulty, "exercises", len(exercises))
	m := tui.NewModel(tui.Options{
		Exercises:      exercises,
		Difficulty:     cfg.Difficulty,
		Transcriber:    eng.transcriber,
		Keyboard:       eng.keyboard,
		Recorder:       hist,
		MatchOptions:   matchOpts,
		HighlightWrong: cfg.HighlightWrong,
		StartIndex:     startIndex,
		Logger:         logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exercises",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&practiceSentences, "sentences", "", "sentence file, one sentence per line")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "sentences", &practiceSentences, fileCfg.Practice.Sentences)
	exercises, err := exercise.Load(practiceSentences)
	if err != nil {
		return fmt.Errorf("failed to load sentences: %w", err)
	}
	for _, ex := range exercises {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%2d  %-14s %2d  %s\n",
			ex.ID, ex.Title, len(ex.Steps), ex.FullSentence); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func validateConfig(cfg model.Config) error {
	switch cfg.Engine {
	case engineAuto, engineDeepgram, engineKeyboard:
	default:
		return fmt.Errorf("--engine must be auto, deepgram or keyboard")
	}
	if strings.TrimSpace(cfg.Lang) == "" {
		return fmt.Errorf("--lang must not be empty")
	}
	if cfg.Tolerance < 0 {
		return fmt.Errorf("--tolerance must be >= 0")
	}
	return nil
}

// resolveStartIndex maps an exercise number to its index; 0 opens the menu.
func resolveStartIndex(exercises []exercise.Exercise, id int) (int, error) {
	if id == 0 {
		return -1, nil
	}
	for i, ex := range exercises {
		if ex.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("--exercise must be between 1 and %d", len(exercises))
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
