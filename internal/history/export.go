package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/verte-zerg/lugemine/internal/model"
)

const (
	dateLayout = "2.01.2006"
	timeLayout = "15:04:05"
)

// CSVHeader is the first row of an export.
var CSVHeader = []string{"Kuupäev", "Kellaaeg", "Harjutus", "Raskusaste", "Aeg (sek)", "Vigu"}

// WriteCSV writes a header and one row per record, in the given order.
func WriteCSV(w io.Writer, records []model.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, rec := range records {
		date := rec.Date.In(loc)
		row := []string{
			date.Format(dateLayout),
			date.Format(timeLayout),
			rec.ExerciseTitle,
			string(rec.Difficulty),
			rec.Seconds(),
			strconv.Itoa(len(rec.Mistakes)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ClipboardText renders one summary line per record.
func ClipboardText(records []model.Record, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s - %s (%s): %ss, %d viga",
			rec.Date.In(loc).Format(dateLayout),
			rec.ExerciseTitle,
			rec.Difficulty,
			rec.Seconds(),
			len(rec.Mistakes),
		)
	}
	return b.String()
}

// ClipboardWriter writes text to the system clipboard.
type ClipboardWriter func(text string) error

// SystemClipboard uses the platform clipboard utility.
var SystemClipboard ClipboardWriter = clipboard.WriteAll

// Copy places ClipboardText on the clipboard. A nil writer uses the system clipboard.
func Copy(write ClipboardWriter, records []model.Record, loc *time.Location) error {
	if write == nil {
		if clipboard.Unsupported {
			return fmt.Errorf("clipboard is not available on this system")
		}
		write = SystemClipboard
	}
	if err := write(ClipboardText(records, loc)); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
