package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/lugemine/internal/kv"
	"github.com/verte-zerg/lugemine/internal/model"
)

func sampleRecords() []model.Record {
	base := time.Date(2024, 3, 5, 9, 4, 7, 0, time.UTC)
	return []model.Record{
		{Date: base, ExerciseTitle: "Poiss...", DurationMs: 12340, Mistakes: []string{"Poiss sööb"}, Difficulty: model.Rabbit},
		{Date: base.Add(48 * time.Hour), ExerciseTitle: "Kass...", DurationMs: 5000, Mistakes: []string{}, Difficulty: model.Tiger},
		{Date: base.Add(24 * time.Hour), ExerciseTitle: "Ema...", DurationMs: 8000, Mistakes: []string{"a", "b"}, Difficulty: model.Snail},
	}
}

func TestAppendListClear(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), nil)

	records, err := store.List(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %v (%v)", records, err)
	}
	for _, rec := range sampleRecords() {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	records, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 || records[0].ExerciseTitle != "Poiss..." {
		t.Fatalf("unexpected records: %+v", records)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, err = store.List(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history after clear, got %v (%v)", records, err)
	}
}

func TestBlobFieldNames(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := New(mem, nil)
	if err := store.Append(ctx, model.Record{ExerciseTitle: "Poiss...", DurationMs: 1500, Difficulty: model.Rabbit}); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := mem.Get(ctx, Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, field := range []string{`"date"`, `"exerciseTitle"`, `"duration":1500`, `"mistakes":[]`, `"difficulty":"rabbit"`} {
		if !bytes.Contains(data, []byte(field)) {
			t.Fatalf("blob %s missing %s", data, field)
		}
	}
}

func TestReadsExistingBlob(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	blob := `[{"date":"2024-03-05T09:04:07.000Z","exerciseTitle":"Poiss...","duration":12340,"mistakes":["Poiss sööb"],"difficulty":"rabbit"}]`
	if err := mem.Set(ctx, Key, []byte(blob)); err != nil {
		t.Fatalf("set: %v", err)
	}
	records, err := New(mem, nil).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Seconds() != "12.3" || records[0].Difficulty != model.Rabbit {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestMalformedBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	if err := mem.Set(ctx, Key, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	store := New(mem, nil)
	records, err := store.List(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %v (%v)", records, err)
	}
	if err := store.Append(ctx, sampleRecords()[0]); err != nil {
		t.Fatalf("append over malformed blob: %v", err)
	}
	records, _ = store.List(ctx)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	backup, err := mem.Get(ctx, BackupKey)
	if err != nil || string(backup) != "{not json" {
		t.Fatalf("expected malformed blob kept in backup, got %q (%v)", backup, err)
	}

	if err := store.Append(ctx, sampleRecords()[1]); err != nil {
		t.Fatalf("append: %v", err)
	}
	backup, _ = mem.Get(ctx, BackupKey)
	if string(backup) != "{not json" {
		t.Fatalf("backup overwritten by a valid append: %q", backup)
	}
}

type failingStore struct{ kv.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestListPropagatesStorageErrors(t *testing.T) {
	if _, err := New(failingStore{}, nil).List(context.Background()); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestSortedNewestFirst(t *testing.T) {
	records := sampleRecords()
	sorted := Sorted(records)
	titles := []string{sorted[0].ExerciseTitle, sorted[1].ExerciseTitle, sorted[2].ExerciseTitle}
	if strings.Join(titles, ",") != "Kass...,Ema...,Poiss..." {
		t.Fatalf("unexpected order %v", titles)
	}
	if records[0].ExerciseTitle != "Poiss..." {
		t.Fatalf("Sorted mutated its input")
	}
}

func TestFilter(t *testing.T) {
	records := sampleRecords()
	got := Filter(records, model.HistoryConfig{Difficulty: model.Tiger})
	if len(got) != 1 || got[0].ExerciseTitle != "Kass..." {
		t.Fatalf("difficulty filter: %+v", got)
	}
	since := records[0].Date.Add(time.Hour)
	got = Filter(records, model.HistoryConfig{Since: &since})
	if len(got) != 2 {
		t.Fatalf("since filter: %+v", got)
	}
	got = Filter(records, model.HistoryConfig{Last: 2})
	if len(got) != 2 || got[0].ExerciseTitle != "Kass..." || got[1].ExerciseTitle != "Ema..." {
		t.Fatalf("last filter: %+v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records, time.UTC); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != len(records)+1 {
		t.Fatalf("expected %d rows, got %d", len(records)+1, len(rows))
	}
	if strings.Join(rows[0], ",") != "Kuupäev,Kellaaeg,Harjutus,Raskusaste,Aeg (sek),Vigu" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{"5.03.2024", "09:04:07", "Poiss...", "rabbit", "12.3", "1"}
	if strings.Join(rows[1], "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected row %v", rows[1])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, time.UTC); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestClipboardText(t *testing.T) {
	got := ClipboardText(sampleRecords()[:2], time.UTC)
	want := "5.03.2024 - Poiss... (rabbit): 12.3s, 1 viga\n7.03.2024 - Kass... (tiger): 5.0s, 0 viga"
	if got != want {
		t.Fatalf("unexpected clipboard text:\n%s", got)
	}
}

func TestCopyUsesWriter(t *testing.T) {
	var copied string
	err := Copy(func(text string) error {
		copied = text
		return nil
	}, sampleRecords()[:1], time.UTC)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !strings.HasPrefix(copied, "5.03.2024 - Poiss...") {
		t.Fatalf("unexpected copied text %q", copied)
	}
}
