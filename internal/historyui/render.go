package historyui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/stats"
)

func renderOverview(records []model.Record, window, width int) string {
	if len(records) == 0 {
		return "Ajalugu on tühi."
	}
	summary := renderSummaryCards(records, width)
	var buf bytes.Buffer
	if err := stats.RenderTrends(&buf, records, window); err != nil {
		return fmt.Sprintf("Trendi joonistamine ebaõnnestus: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(records []model.Record, width int) string {
	s := stats.Summarize(records)
	cards := []string{
		metricCard("Harjutusi", strconv.Itoa(s.Count)),
		metricCard("Keskmine aeg", fmt.Sprintf("%.1fs", s.AvgDuration.Seconds())),
		metricCard("Parim aeg", fmt.Sprintf("%.1fs", s.BestDuration.Seconds())),
		metricCard("Keskmiselt vigu", fmt.Sprintf("%.2f", s.AvgMistakes)),
		metricCard("Veatuid", strconv.Itoa(s.CleanRuns)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderMistakes(records []model.Record) string {
	var buf bytes.Buffer
	if err := stats.RenderTopMistakes(&buf, records, 20); err != nil {
		return fmt.Sprintf("Vigade laadimine ebaõnnestus: %v", err)
	}
	if buf.Len() == 0 {
		return "Vigu pole. Tubli!"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func recordColumns() []table.Column {
	return []table.Column{
		{Title: "Kuupäev", Width: 10},
		{Title: "Kellaaeg", Width: 8},
		{Title: "Harjutus", Width: 14},
		{Title: "Raskusaste", Width: 10},
		{Title: "Aeg", Width: 7},
		{Title: "Vigu", Width: 5},
	}
}

func recordRows(records []model.Record, loc *time.Location) []table.Row {
	cells := stats.RecordRows(records, loc)
	rows := make([]table.Row, len(cells))
	for i, row := range cells {
		rows[i] = table.Row(row)
	}
	return rows
}

func buildRecordTable(records []model.Record, loc *time.Location, width, height int) table.Model {
	t := table.New(
		table.WithColumns(recordColumns()),
		table.WithRows(recordRows(records, loc)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(recordTableStyles())
	return t
}

func recordTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
