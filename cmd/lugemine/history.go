package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/lugemine/internal/config"
	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/historyui"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/stats"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show practice history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N exercises")
	cmd.Flags().IntVar(&historyWindow, "window", defaultWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain-text report")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig()
	if err != nil {
		return err
	}
	hist, closeStore, err := openHistory()
	if err != nil {
		return err
	}
	defer closeStore()

	if historyPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		report, err := stats.BuildReport(context.Background(), hist, cfg)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return report.Render(cmd.OutOrStdout(), cfg.Window, time.Local)
	}

	m := historyui.NewModel(hist, cfg, historyui.Options{})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func historyConfig() (model.HistoryConfig, error) {
	cfg := model.HistoryConfig{
		Last:   historyLast,
		Window: historyWindow,
	}
	if historyDifficulty != "" {
		d, err := model.ParseDifficulty(historyDifficulty)
		if err != nil {
			return cfg, fmt.Errorf("invalid --difficulty: %w", err)
		}
		cfg.Difficulty = d
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if cfg.Last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if cfg.Window < 1 {
		return cfg, fmt.Errorf("--window must be >= 1")
	}
	return cfg, nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&exportClipboard, "clipboard", false, "copy a text summary to the clipboard instead")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	hist, closeStore, err := openHistory()
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := hist.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		logErrln("Ajalugu on tühi.")
		return nil
	}
	records = history.Sorted(records)

	if exportClipboard {
		if err := history.Copy(nil, records, time.Local); err != nil {
			return err
		}
		logErrf("%d kirjet kopeeritud.\n", len(records))
		return nil
	}
	if exportOut == "" || exportOut == "-" {
		return history.WriteCSV(cmd.OutOrStdout(), records, time.Local)
	}
	file, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	if err := history.WriteCSV(file, records, time.Local); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	logErrf("Salvestatud: %s\n", exportOut)
	return nil
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all practice history",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&clearYes, "yes", false, "skip confirmation")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	hist, closeStore, err := openHistory()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	records, err := hist.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		logErrln("Ajalugu on tühi.")
		return nil
	}
	if !clearYes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to clear history without a terminal (use --yes)")
		}
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("Kustuta %d kirjet jäädavalt? [y/N] ", len(records)))
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Katkestatud.")
			return nil
		}
	}
	if err := hist.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	logErrln("Ajalugu kustutatud.")
	return nil
}

// confirm reads a y/n answer; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "jah":
		return true, nil
	}
	return false, nil
}

// openHistory loads config and env and opens the configured history store.
func openHistory() (*history.Store, func(), error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv(config.DefaultEnvPath(), ".env")
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := openLogger(fileCfg.Log, envCfg)
	if err != nil {
		return nil, nil, err
	}
	kvStore, closeStore, err := openStorage(fileCfg.Storage, envCfg)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return history.New(kvStore, logger), func() {
		closeStore()
		closeLog()
	}, nil
}
