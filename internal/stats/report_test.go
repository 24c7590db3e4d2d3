package stats

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/kv"
	"github.com/verte-zerg/lugemine/internal/model"
)

func seedHistory(t *testing.T) *history.Store {
	t.Helper()
	ctx := context.Background()
	st := history.New(kv.NewMemory(), nil)
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := model.Record{
			Date:          base.Add(time.Duration(2-i) * time.Hour),
			ExerciseTitle: []string{"Kass...", "Ema...", "Poiss..."}[i],
			DurationMs:    int64(10000 + i*1000),
			Mistakes:      []string{"Kass sööb"},
			Difficulty:    model.Rabbit,
		}
		if i == 2 {
			rec.Difficulty = model.Tiger
		}
		if err := st.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return st
}

func TestBuildReport(t *testing.T) {
	st := seedHistory(t)
	report, err := BuildReport(context.Background(), st, model.HistoryConfig{Difficulty: model.Rabbit})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(report.Records))
	}
	if report.Records[0].ExerciseTitle != "Ema..." || report.Records[1].ExerciseTitle != "Kass..." {
		t.Fatalf("records not oldest first: %+v", report.Records)
	}
	if report.Summary.Count != 2 || report.Summary.TotalMistakes != 2 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if len(report.TopMistakes) != 1 || report.TopMistakes[0].Count != 2 {
		t.Fatalf("unexpected top mistakes %+v", report.TopMistakes)
	}
}

func TestReportRender(t *testing.T) {
	report, err := BuildReport(context.Background(), seedHistory(t), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, 2, time.UTC); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Kokkuvõte", "Harjutusi: 3", "Trend", "Enim korratud", "Kuupäev"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Kass...") > strings.Index(out, "Poiss...") {
		t.Fatalf("table not newest first:\n%s", out)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "tühi") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
