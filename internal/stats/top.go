package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/session"
)

// PhraseCount is how often a phrase was logged as a mistake.
type PhraseCount struct {
	Phrase string
	Count  int
}

// TopMistakes returns the n phrases missed most often. Manual retries count
// toward the phrase they were logged for.
func TopMistakes(records []model.Record, n int) []PhraseCount {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	phrases := lo.FlatMap(records, func(rec model.Record, _ int) []string {
		return lo.Map(rec.Mistakes, func(m string, _ int) string {
			return strings.TrimSuffix(m, session.ManualSuffix)
		})
	})
	counts := lo.CountValues(phrases)
	items := make([]PhraseCount, 0, len(counts))
	for phrase, count := range counts {
		items = append(items, PhraseCount{Phrase: phrase, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Phrase < items[j].Phrase
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// RenderTopMistakes prints the most frequently missed phrases.
func RenderTopMistakes(w io.Writer, records []model.Record, n int) error {
	top := TopMistakes(records, n)
	if len(top) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Enim korratud"); err != nil {
		return err
	}
	rows := lo.Map(top, func(pc PhraseCount, _ int) []string {
		return []string{strconv.Itoa(pc.Count), pc.Phrase}
	})
	for _, line := range formatTable(nil, rows, map[int]bool{0: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
