package historyui

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/kv"
	"github.com/verte-zerg/lugemine/internal/model"
)

func seededStore(t *testing.T) *history.Store {
	t.Helper()
	store := history.New(kv.NewMemory(), nil)
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	records := []model.Record{
		{Date: base, ExerciseTitle: "Poiss...", DurationMs: 12000, Mistakes: []string{"Poiss sööb"}, Difficulty: model.Rabbit},
		{Date: base.Add(time.Hour), ExerciseTitle: "Kass...", DurationMs: 6000, Mistakes: []string{}, Difficulty: model.Tiger},
		{Date: base.Add(2 * time.Hour), ExerciseTitle: "Ema...", DurationMs: 9000, Mistakes: []string{"Ema (Manuaalne)"}, Difficulty: model.Tiger},
	}
	for _, rec := range records {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, store Store, opts Options) *Model {
	t.Helper()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	m := NewModel(store, model.HistoryConfig{}, opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestModelLoadsRecords(t *testing.T) {
	m := newTestModel(t, seededStore(t), Options{})
	if len(m.report.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(m.report.Records))
	}
	rows := m.records.Rows()
	if len(rows) != 3 || rows[0][2] != "Ema..." {
		t.Fatalf("expected newest row first, got %v", rows)
	}
	view := m.View()
	if !strings.Contains(view, "Harjutusi") || !strings.Contains(view, "Trend") {
		t.Fatalf("expected overview content, got %q", view)
	}
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t, seededStore(t), Options{})
	m.Update(runes("l"))
	if m.activeTab != tabRecords {
		t.Fatalf("expected records tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Kass...") {
		t.Fatalf("expected record table in view")
	}
	m.Update(runes("l"))
	if m.activeTab != tabMistakes {
		t.Fatalf("expected mistakes tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Enim korratud") {
		t.Fatalf("expected top mistakes in view")
	}
	m.Update(runes("l"))
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview, got %d", m.activeTab)
	}
}

func TestFilterByDifficulty(t *testing.T) {
	m := newTestModel(t, seededStore(t), Options{})
	m.Update(runes("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(runes("tiger"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to be applied, error %q", m.filterError)
	}
	if m.cfg.Difficulty != model.Tiger || len(m.report.Records) != 2 {
		t.Fatalf("expected 2 tiger records, got %d (%s)", len(m.report.Records), m.cfg.Difficulty)
	}
}

func TestFilterRejectsBadDate(t *testing.T) {
	m := newTestModel(t, seededStore(t), Options{})
	m.Update(runes("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("eile"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected filter error, got mode=%v err=%q", m.filterMode, m.filterError)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode || len(m.report.Records) != 3 {
		t.Fatalf("expected filter cancelled with records intact")
	}
}

func TestExportWritesCSV(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	m := newTestModel(t, seededStore(t), Options{
		ExportDir: dir,
		Now:       func() time.Time { return now },
	})
	m.Update(runes("e"))
	if m.errMsg != "" {
		t.Fatalf("export failed: %s", m.errMsg)
	}
	path := filepath.Join(dir, "lugemine_ajalugu_2024-03-06.csv")
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = file.Close() }()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 || rows[1][2] != "Ema..." {
		t.Fatalf("unexpected csv rows: %v", rows)
	}
	if !strings.Contains(m.notice, path) {
		t.Fatalf("expected notice with path, got %q", m.notice)
	}
}

func TestCopyUsesClipboardWriter(t *testing.T) {
	var copied string
	m := newTestModel(t, seededStore(t), Options{
		Clipboard: func(text string) error {
			copied = text
			return nil
		},
	})
	m.Update(runes("c"))
	if m.errMsg != "" {
		t.Fatalf("copy failed: %s", m.errMsg)
	}
	lines := strings.Split(copied, "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "5.03.2024 - Ema... (tiger)") {
		t.Fatalf("unexpected clipboard text: %q", copied)
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	store := seededStore(t)
	m := newTestModel(t, store, Options{})

	m.Update(runes("D"))
	if !m.confirmClear {
		t.Fatalf("expected confirmation modal")
	}
	if !strings.Contains(m.View(), "y: jah / n: ei") {
		t.Fatalf("expected confirmation prompt")
	}
	m.Update(runes("n"))
	records, err := store.List(context.Background())
	if err != nil || len(records) != 3 {
		t.Fatalf("expected history kept after n, got %d (%v)", len(records), err)
	}

	m.Update(runes("D"))
	m.Update(runes("y"))
	records, err = store.List(context.Background())
	if err != nil || len(records) != 0 {
		t.Fatalf("expected history cleared, got %d (%v)", len(records), err)
	}
	if len(m.report.Records) != 0 || m.notice == "" {
		t.Fatalf("expected empty report with notice")
	}
	m.Update(runes("D"))
	if m.confirmClear {
		t.Fatalf("empty history should not ask for confirmation")
	}
}
