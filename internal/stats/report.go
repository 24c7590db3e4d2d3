package stats

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/model"
)

// Lister reads the stored history.
type Lister interface {
	List(ctx context.Context) ([]model.Record, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	// Records are filtered and ordered oldest first.
	Records     []model.Record
	Summary     Summary
	TopMistakes []PhraseCount
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Lister, cfg model.HistoryConfig) (Report, error) {
	records, err := src.List(ctx)
	if err != nil {
		return Report{}, err
	}
	records = history.Filter(records, cfg)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return Report{
		Records:     records,
		Summary:     Summarize(records),
		TopMistakes: TopMistakes(records, 5),
	}, nil
}

// Render prints the whole plain-text report. The record table is newest first.
func (r Report) Render(w io.Writer, window int, loc *time.Location) error {
	if err := RenderSummary(w, r.Records); err != nil {
		return err
	}
	if err := RenderTrends(w, r.Records, window); err != nil {
		return err
	}
	if err := RenderTopMistakes(w, r.Records, 5); err != nil {
		return err
	}
	return RenderTable(w, history.Sorted(r.Records), loc)
}
