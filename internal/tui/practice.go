package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/session"
)

const countdownWidth = 30

func (m *Model) updatePractice(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu()
		return nil
	case tea.KeyTab:
		if m.denied {
			return nil
		}
		return m.applyEffects(m.ctrl.ToggleListening(m.ctx))
	case tea.KeyCtrlR:
		m.ctrl.Retry()
		return nil
	case tea.KeyCtrlN:
		m.ctrl.Skip()
		return nil
	}
	if m.opts.Keyboard != nil {
		m.feedKeyboard(msg)
		return nil
	}
	switch msg.String() {
	case " ":
		if m.denied {
			return nil
		}
		return m.applyEffects(m.ctrl.ToggleListening(m.ctx))
	case "r":
		m.ctrl.Retry()
	case "n":
		m.ctrl.Skip()
	}
	return nil
}

// feedKeyboard passes typed keys to the keyboard engine. Events come back
// through the speech channel like any recognizer.
func (m *Model) feedKeyboard(msg tea.KeyMsg) {
	kb := m.opts.Keyboard
	switch msg.Type {
	case tea.KeyRunes:
		kb.Type(msg.Runes)
	case tea.KeySpace:
		kb.Type([]rune{' '})
	case tea.KeyEnter:
		kb.Flush()
	case tea.KeyBackspace, tea.KeyDelete:
		kb.Backspace()
	}
}

func (m *Model) viewPractice() string {
	if m.ctrl == nil {
		return ""
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 40
	}
	sections := []string{m.renderHeader(contentWidth)}
	pyramid := m.renderPyramid(contentWidth)
	if bar := m.renderCountdown(); bar != "" {
		sections = append(sections, "", pyramid, "", bar)
	} else {
		sections = append(sections, "", pyramid)
	}
	sections = append(sections, "", m.renderStatus(contentWidth))
	if m.errMsg != "" {
		sections = append(sections, errorStyle.Render(m.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderHeader(width int) string {
	a := m.ctrl.Attempt()
	title := titleStyle.Render(a.Exercise().Title)
	counter := mutedStyle.Render(fmt.Sprintf("%s  %d / %d", a.Difficulty().Label(), a.Step()+1, a.StepCount()))
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(counter))
	return title + strings.Repeat(" ", gap) + counter
}

// renderPyramid shows every step up to the current one. Older steps are
// dropped from the top when the terminal is too short.
func (m *Model) renderPyramid(width int) string {
	a := m.ctrl.Attempt()
	steps := a.Exercise().Steps[:a.Step()+1]
	var lines []string
	for i, step := range steps {
		words := strings.Split(step, " ")
		states := make([]wordState, len(words))
		for w := range words {
			switch {
			case i < a.Step():
				states[w] = wordPast
			case a.Confirmed(w):
				states[w] = wordConfirmed
			case m.opts.HighlightWrong && a.WrongIndex() == w:
				states[w] = wordWrong
			}
		}
		wrapped := wrapStyledRunes(buildStyledRunes(words, states), width)
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}
	if limit := m.height - 10; m.height > 0 && limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderCountdown() string {
	a := m.ctrl.Attempt()
	return countdownBar(a.Remaining(), a.Timeout(), countdownWidth)
}

// countdownBar draws the remaining share of total; empty when there is no
// countdown.
func countdownBar(remaining, total time.Duration, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	frac := float64(remaining) / float64(total)
	frac = max(0, min(frac, 1))
	filled := int(frac*float64(width) + 0.5)
	style := barFullStyle
	switch {
	case frac <= 0.2:
		style = barLowStyle
	case frac <= 0.5:
		style = barWarnStyle
	}
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func (m *Model) renderStatus(width int) string {
	var indicator string
	switch {
	case m.denied:
		indicator = errorStyle.Render("✕ mikrofon keelatud")
	case m.ctrl.Listening():
		indicator = listeningStyle.Render("● kuulan")
	case m.ctrl.Transcriber().Wanted():
		indicator = mutedStyle.Render("◌ käivitan")
	default:
		indicator = mutedStyle.Render("○ vaikne")
	}
	heard := m.ctrl.Transcriber().Text()
	if heard == "" {
		return indicator
	}
	maxHeard := max(10, width-lipgloss.Width(indicator)-3)
	return indicator + "  " + mutedStyle.Render(truncateLeft(heard, maxHeard))
}

func (m *Model) renderFooter() string {
	if m.ctrl != nil && m.ctrl.Attempt().Phase() == session.PhaseSettling {
		return footerStyle.Render("Tubli!")
	}
	toggle := "tab: mikrofon"
	if m.opts.Keyboard != nil {
		toggle = "tab: kuulamine  tüpi loetud sõnad"
	} else {
		toggle += "/tühik"
	}
	segments := []string{toggle, "ctrl+r: uuesti", "ctrl+n: järgmine", "esc: menüü"}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func truncateLeft(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[len(runes)-width:])
	}
	return "…" + string(runes[len(runes)-width+1:])
}
