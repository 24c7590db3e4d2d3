package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/stats"
)

func (m *Model) updateResults(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r", "enter":
		m.ctrl.Restart()
		return m.beginPractice()
	case "n":
		next := (m.exIndex + 1) % len(m.opts.Exercises)
		return m.startExercise(next)
	case "m", "esc":
		m.backToMenu()
		return nil
	case "q":
		return tea.Quit
	}
	return nil
}

func (m *Model) viewResults() string {
	if m.ctrl == nil {
		return ""
	}
	a := m.ctrl.Attempt()
	mistakes := a.Mistakes()
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Aeg", stats.FormatClock(a.Duration())),
		metricCard("Vigu/Kordusi", strconv.Itoa(len(mistakes))),
	)
	sections := []string{
		titleStyle.Render("Harjutus tehtud!"),
		mutedStyle.Render("Oled väga tubli lugeja!"),
		"",
		cards,
	}
	if len(mistakes) > 0 {
		sections = append(sections, "", mutedStyle.Render("Need sõnad vajasid harjutamist:"))
		for _, mistake := range mistakes {
			sections = append(sections, "  "+mistake)
		}
	}
	if m.errMsg != "" {
		sections = append(sections, "", errorStyle.Render(m.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	help := footerStyle.Render(strings.Join([]string{"r: uuesti", "n: järgmine harjutus", "m: menüü", "q: välju"}, "  "))
	if m.width == 0 || m.height < 3 {
		return content + "\n" + help
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, help)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
