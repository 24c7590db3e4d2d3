package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/lugemine/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Harjutus", "Aeg", "Vigu"}
	rows := [][]string{
		{"Õun...", "12.5s", "3"},
		{"Päike...", "8.0s", "12"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Harjutus   Aeg Vigu" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Õun...   12.5s    3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Päike...  8.0s   12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRecordRows(t *testing.T) {
	rec := model.Record{
		Date:          time.Date(2024, 11, 2, 18, 5, 9, 0, time.UTC),
		ExerciseTitle: "Poiss...",
		DurationMs:    61049,
		Mistakes:      []string{"a", "b"},
		Difficulty:    model.Snail,
	}
	rows := RecordRows([]model.Record{rec}, time.UTC)
	want := []string{"2.11.2024", "18:05:09", "Poiss...", "Tigu", "61.0s", "2"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d: expected %q, got %q", i, cell, rows[0][i])
		}
	}
}
