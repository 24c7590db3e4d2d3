package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/exercise"
)

func buildMenuTable(exercises []exercise.Exercise, height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Harjutus", Width: 14},
		{Title: "Sõnu", Width: 5},
		{Title: "Lause", Width: 48},
	}
	rows := make([]table.Row, 0, len(exercises))
	for _, ex := range exercises {
		rows = append(rows, table.Row{
			strconv.Itoa(ex.ID),
			ex.Title,
			strconv.Itoa(exercise.WordCount(ex.FullSentence)),
			ex.FullSentence,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(3, height)),
	)
	t.SetStyles(menuTableStyles())
	return t
}

func menuTableStyles() table.Styles {
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
		Foreground(lipgloss.Color("#C89A3A")).
		Bold(true)
	return styles
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		if len(m.opts.Exercises) == 0 {
			return m, nil
		}
		return m, m.startExercise(m.menu.Cursor())
	case "d", "tab":
		m.difficulty = m.difficulty.Next()
		return m, nil
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m *Model) viewMenu() string {
	title := titleStyle.Render("Püramiidlugemine")
	difficulty := fmt.Sprintf("Raskusaste: %s", m.difficulty.Label())
	sections := []string{title, mutedStyle.Render(difficulty), "", m.menu.View()}
	if m.errMsg != "" {
		sections = append(sections, errorStyle.Render(m.errMsg))
	}
	help := footerStyle.Render("enter: alusta  d: raskusaste  ↑/↓: vali  q: välju")
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width == 0 || m.height < 3 {
		return content + "\n" + help
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, help)
}
