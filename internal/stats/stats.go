// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/lugemine/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of history records.
type Summary struct {
	Count         int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	BestDuration  time.Duration
	TotalMistakes int
	AvgMistakes   float64
	CleanRuns     int
}

// Summarize computes totals and averages over records.
func Summarize(records []model.Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(records), BestDuration: records[0].Duration()}
	for _, rec := range records {
		d := rec.Duration()
		s.TotalDuration += d
		if d < s.BestDuration {
			s.BestDuration = d
		}
		s.TotalMistakes += len(rec.Mistakes)
		if len(rec.Mistakes) == 0 {
			s.CleanRuns++
		}
	}
	s.AvgDuration = s.TotalDuration / time.Duration(s.Count)
	s.AvgMistakes = float64(s.TotalMistakes) / float64(s.Count)
	return s
}

// DurationSeries returns record durations in seconds.
func DurationSeries(records []model.Record) []float64 {
	return lo.Map(records, func(rec model.Record, _ int) float64 {
		return rec.Duration().Seconds()
	})
}

// MistakeSeries returns mistake counts per record.
func MistakeSeries(records []model.Record) []float64 {
	return lo.Map(records, func(rec model.Record, _ int) float64 {
		return float64(len(rec.Mistakes))
	})
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := lo.Min(values)
	maxVal := lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatClock renders a duration as m:ss, rounding down to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// RenderSummary prints a summary block for records.
func RenderSummary(w io.Writer, records []model.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "Ajalugu on tühi.")
		return err
	}
	s := Summarize(records)
	lines := []string{
		"Kokkuvõte",
		fmt.Sprintf("Harjutusi: %d", s.Count),
		fmt.Sprintf("Aeg kokku: %s", FormatClock(s.TotalDuration)),
		fmt.Sprintf("Keskmine aeg: %.1fs", s.AvgDuration.Seconds()),
		fmt.Sprintf("Parim aeg: %.1fs", s.BestDuration.Seconds()),
		fmt.Sprintf("Vigu kokku: %d", s.TotalMistakes),
		fmt.Sprintf("Keskmiselt vigu: %.2f", s.AvgMistakes),
		fmt.Sprintf("Veatuid: %d", s.CleanRuns),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrends prints smoothed sparklines of duration and mistakes, oldest first.
func RenderTrends(w io.Writer, records []model.Record, window int) error {
	if len(records) < 2 {
		return nil
	}
	rows := [][]string{
		{"Aeg", Sparkline(MovingAverage(DurationSeries(records), window))},
		{"Vead", Sparkline(MovingAverage(MistakeSeries(records), window))},
	}
	if _, err := fmt.Fprintln(w, "Trend"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
