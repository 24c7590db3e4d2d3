// Package tui provides the Bubble Tea pyramid reading interface.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/exercise"
	"github.com/verte-zerg/lugemine/internal/match"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/session"
	"github.com/verte-zerg/lugemine/internal/speech"
)

const tickInterval = 100 * time.Millisecond

type screen int

const (
	screenMenu screen = iota
	screenPractice
	screenResults
)

var (
	confirmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	wrongStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	pastStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3F6F2A"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	listeningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	barFullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	barWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FADB14"))
	barLowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle      = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Options wires the model to its collaborators.
type Options struct {
	Exercises  []exercise.Exercise
	Difficulty model.Difficulty
	// Transcriber is shared by every exercise in the run.
	Transcriber *speech.Transcriber
	// Keyboard is set when typed text feeds recognition.
	Keyboard       *speech.Keyboard
	Recorder       session.Recorder
	MatchOptions   []match.Option
	HighlightWrong bool
	// StartIndex opens that exercise directly; -1 shows the menu.
	StartIndex int
	Logger     *slog.Logger
}

type speechMsg struct {
	ev speech.Event
}

type speechClosedMsg struct{}

type tickMsg struct {
	attempt string
	at      time.Time
}

type settleMsg struct {
	attempt string
	gen     int
}

type clearWrongMsg struct {
	attempt string
	seq     int
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	opts   Options
	logger *slog.Logger
	ctx    context.Context

	screen     screen
	menu       table.Model
	difficulty model.Difficulty
	exIndex    int
	ctrl       *session.Controller
	lastTick   time.Time

	width  int
	height int

	errMsg string
	denied bool
}

// NewModel constructs the practice UI.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = model.Rabbit
	}
	m := &Model{
		opts:       opts,
		logger:     logger,
		ctx:        context.Background(),
		difficulty: difficulty,
	}
	m.menu = buildMenuTable(opts.Exercises, 0)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSpeech(m.opts.Transcriber.Events())}
	if m.opts.StartIndex >= 0 && m.opts.StartIndex < len(m.opts.Exercises) {
		cmds = append(cmds, m.startExercise(m.opts.StartIndex))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetWidth(msg.Width)
		m.menu.SetHeight(max(3, msg.Height-6))
		return m, nil
	case speechMsg:
		return m, tea.Batch(m.handleSpeech(msg.ev), waitForSpeech(m.opts.Transcriber.Events()))
	case speechClosedMsg:
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case settleMsg:
		return m, m.handleSettle(msg)
	case clearWrongMsg:
		if m.ctrl != nil && m.ctrl.Attempt().ID() == msg.attempt {
			m.ctrl.ClearWrong(msg.seq)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenPractice:
			return m, m.updatePractice(msg)
		case screenResults:
			return m, m.updateResults(msg)
		default:
			return m.updateMenu(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.screen {
	case screenPractice:
		return m.viewPractice()
	case screenResults:
		return m.viewResults()
	default:
		return m.viewMenu()
	}
}

func waitForSpeech(events <-chan speech.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return speechClosedMsg{}
		}
		return speechMsg{ev: ev}
	}
}

func tickCmd(attempt string) tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{attempt: attempt, at: t}
	})
}

func (m *Model) handleSpeech(ev speech.Event) tea.Cmd {
	if m.ctrl == nil {
		m.opts.Transcriber.Handle(ev)
		return nil
	}
	return m.applyEffects(m.ctrl.HandleEvent(ev))
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if m.screen != screenPractice || m.ctrl == nil || m.ctrl.Attempt().ID() != msg.attempt {
		return nil
	}
	elapsed := msg.at.Sub(m.lastTick)
	m.lastTick = msg.at
	return tea.Batch(m.applyEffects(m.ctrl.Tick(elapsed)), tickCmd(msg.attempt))
}

func (m *Model) handleSettle(msg settleMsg) tea.Cmd {
	if m.ctrl == nil || m.ctrl.Attempt().ID() != msg.attempt {
		return nil
	}
	eff := m.ctrl.Settle(m.ctx, msg.gen)
	cmd := m.applyEffects(eff)
	if eff.Finished {
		m.screen = screenResults
	}
	return cmd
}

// applyEffects records errors and schedules the delayed work a controller
// input asked for.
func (m *Model) applyEffects(eff session.Effects) tea.Cmd {
	switch {
	case eff.Denied:
		m.denied = true
		m.errMsg = "Mikrofoni kasutamine on keelatud."
	case eff.Err != nil:
		m.errMsg = eff.Err.Error()
	}
	if m.ctrl == nil {
		return nil
	}
	id := m.ctrl.Attempt().ID()
	var cmds []tea.Cmd
	if eff.Settle {
		gen := eff.SettleGen
		cmds = append(cmds, tea.Tick(session.SettleDelay, func(time.Time) tea.Msg {
			return settleMsg{attempt: id, gen: gen}
		}))
	}
	if eff.WrongSeq != 0 {
		seq := eff.WrongSeq
		cmds = append(cmds, tea.Tick(session.WrongHighlight, func(time.Time) tea.Msg {
			return clearWrongMsg{attempt: id, seq: seq}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) startExercise(index int) tea.Cmd {
	if m.ctrl != nil {
		m.ctrl.StopListening()
	}
	m.exIndex = index
	m.ctrl = session.NewController(
		m.opts.Exercises[index],
		m.difficulty,
		m.opts.Transcriber,
		m.opts.Recorder,
		m.logger,
		session.WithMatchOptions(m.opts.MatchOptions...),
	)
	return m.beginPractice()
}

func (m *Model) beginPractice() tea.Cmd {
	m.screen = screenPractice
	m.errMsg = ""
	m.denied = false
	m.lastTick = time.Now()
	m.logger.Info("exercise started",
		"exercise", m.ctrl.Attempt().Exercise().Title,
		"attempt", m.ctrl.Attempt().ID(),
		"difficulty", m.difficulty,
	)
	return tea.Batch(
		m.applyEffects(m.ctrl.StartListening(m.ctx)),
		tickCmd(m.ctrl.Attempt().ID()),
	)
}

func (m *Model) backToMenu() {
	if m.ctrl != nil {
		m.ctrl.StopListening()
		m.ctrl = nil
	}
	m.screen = screenMenu
	m.errMsg = ""
	m.menu.SetCursor(m.exIndex)
}
