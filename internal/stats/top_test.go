package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/lugemine/internal/model"
)

func TestTopMistakes(t *testing.T) {
	records := []model.Record{
		{Mistakes: []string{"Kass", "Kass sööb (Manuaalne)"}},
		{Mistakes: []string{"Kass sööb"}},
		{Mistakes: []string{"Ema"}},
	}
	top := TopMistakes(records, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(top))
	}
	if top[0].Phrase != "Kass sööb" || top[0].Count != 2 {
		t.Fatalf("unexpected first entry %+v", top[0])
	}
	if top[1].Phrase != "Ema" {
		t.Fatalf("ties not ordered by phrase: %+v", top)
	}
}

func TestSummarize(t *testing.T) {
	records := []model.Record{
		{DurationMs: 4000, Mistakes: []string{"a"}},
		{DurationMs: 2000},
		{DurationMs: 6000, Mistakes: []string{"a", "b"}},
	}
	s := Summarize(records)
	if s.Count != 3 || s.BestDuration != 2*time.Second || s.AvgDuration != 4*time.Second {
		t.Fatalf("unexpected durations %+v", s)
	}
	if s.TotalMistakes != 3 || s.CleanRuns != 1 || s.AvgMistakes != 1 {
		t.Fatalf("unexpected mistakes %+v", s)
	}
	if (Summarize(nil) != Summary{}) {
		t.Fatalf("expected zero summary")
	}
}

func TestSparklineAndAverage(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("flat sparkline: %q", got)
	}
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("range sparkline: %q", got)
	}
	avg := MovingAverage([]float64{2, 4, 6}, 2)
	if avg[0] != 2 || avg[1] != 3 || avg[2] != 5 {
		t.Fatalf("unexpected moving average %v", avg)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[time.Duration]string{
		0:                        "0:00",
		59999 * time.Millisecond: "0:59",
		61 * time.Second:         "1:01",
		-time.Second:             "0:00",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%s): expected %q, got %q", in, want, got)
		}
	}
}
