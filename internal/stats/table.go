package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/lugemine/internal/model"
)

// RecordHeaders are the column titles of the record table.
var RecordHeaders = []string{"Kuupäev", "Kellaaeg", "Harjutus", "Raskusaste", "Aeg", "Vigu"}

// RecordRows formats records as table cells in the given order.
func RecordRows(records []model.Record, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		date := rec.Date.In(loc)
		rows = append(rows, []string{
			date.Format("2.01.2006"),
			date.Format("15:04:05"),
			rec.ExerciseTitle,
			rec.Difficulty.Label(),
			rec.Seconds() + "s",
			strconv.Itoa(len(rec.Mistakes)),
		})
	}
	return rows
}

// RenderTable prints records as aligned columns.
func RenderTable(w io.Writer, records []model.Record, loc *time.Location) error {
	if len(records) == 0 {
		return nil
	}
	rightAlign := map[int]bool{4: true, 5: true}
	for _, line := range formatTable(RecordHeaders, RecordRows(records, loc), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
