// Package historyui provides the Bubble Tea history viewer.
package historyui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lugemine/internal/history"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/stats"
)

const (
	tabOverview = iota
	tabRecords
	tabMistakes
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Store is the history the viewer reads and clears.
type Store interface {
	List(ctx context.Context) ([]model.Record, error)
	Clear(ctx context.Context) error
}

// Options configures the viewer.
type Options struct {
	// ExportDir receives CSV exports; empty means the working directory.
	ExportDir string
	Clipboard history.ClipboardWriter
	Location  *time.Location
	Now       func() time.Time
}

// Model implements the Bubble Tea history UI.
type Model struct {
	store Store
	cfg   model.HistoryConfig
	opts  Options

	report stats.Report
	errMsg string
	notice string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	records   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	confirmClear bool
}

// NewModel constructs a history UI model.
func NewModel(st Store, cfg model.HistoryConfig, opts Options) *Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = 5
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		opts:  opts,
		tabs:  []string{"Ülevaade", "Ajalugu", "Vead"},
	}
	m.initInputs()
	m.records = buildRecordTable(nil, opts.Location, 80, 10)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.confirmClear {
			return m.updateConfirm(msg)
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabRecords {
			m.records.Focus()
		} else {
			m.records.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.Window++
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.Window = max(1, m.cfg.Window-1)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "e":
			m.exportCSV()
			return m, nil
		case "c":
			m.copyToClipboard()
			return m, nil
		case "D":
			if len(m.report.Records) > 0 {
				m.confirmClear = true
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabRecords {
				m.records.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRecords {
				m.records.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRecords {
				var cmd tea.Cmd
				m.records, cmd = m.records.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirmClear {
		return fitLines(m.renderConfirm(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Raskusaste (snail/rabbit/tiger): "),
		newFilterInput("Alates (YYYY-MM-DD): "),
		newFilterInput("Viimased: "),
		newFilterInput("Trendi aken: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(string(m.cfg.Difficulty))
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.records.SetWidth(m.width)
	m.records.SetHeight(max(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabRecords {
		m.records.Focus()
	} else {
		m.records.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Ajaloo laadimine ebaõnnestus.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.records.SetRows(recordRows(history.Sorted(report.Records), m.opts.Location))
	m.records.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Records, m.cfg.Window, width))
	m.viewports[tabMistakes].SetContent(renderMistakes(m.report.Records))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	difficulty := "kõik"
	if m.cfg.Difficulty != "" {
		difficulty = m.cfg.Difficulty.Label()
	}
	since := "kõik"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "kõik"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filter: raskusaste=%s  alates=%s  viimased=%s  aken=%d  kirjeid=%d",
		difficulty, since, last, m.cfg.Window, len(m.report.Records))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: järgmine väli  enter: rakenda  esc: tühista")
	}
	help := headerStyle.Render("←/→: vaheleht  ↑/↓: keri  /: filter  -/=: aken  e: CSV  c: kopeeri  D: kustuta  q: välju")
	switch {
	case m.errMsg != "":
		return help + "\n" + errorStyle.Render(m.errMsg)
	case m.notice != "":
		return help + "\n" + noticeStyle.Render(m.notice)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabRecords {
		if len(m.report.Records) == 0 {
			return fitLines("Ajalugu on tühi.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.records.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter rakendab, esc tühistab)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderConfirm() string {
	body := []string{
		cardValueStyle.Render("Kustuta kogu ajalugu?"),
		headerStyle.Render(fmt.Sprintf("%d kirjet kustutatakse jäädavalt.", len(m.report.Records))),
		headerStyle.Render("y: jah / n: ei"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmClear = false
		if err := m.store.Clear(context.Background()); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.notice = "Ajalugu kustutatud."
		m.refreshReport()
		return m, nil
	case "n", "N", "esc", "q":
		m.confirmClear = false
	}
	return m, nil
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	var difficulty model.Difficulty
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		parsed, err := model.ParseDifficulty(raw)
		if err != nil {
			return err
		}
		difficulty = parsed
	}

	var since *time.Time
	if raw := strings.TrimSpace(m.filterInputs[1].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, m.opts.Location)
		if err != nil {
			return fmt.Errorf("vigane kuupäev (oodatud YYYY-MM-DD)")
		}
		since = &parsed
	}

	last := 0
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fmt.Errorf("vigane arv (0 või positiivne täisarv)")
		}
		last = parsed
	}

	window := 5
	if raw := strings.TrimSpace(m.filterInputs[3].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("vigane trendi aken (täisarv >= 1)")
		}
		window = parsed
	}

	m.cfg = model.HistoryConfig{
		Difficulty: difficulty,
		Since:      since,
		Last:       last,
		Window:     window,
	}
	return nil
}

// exportCSV writes the filtered records, newest first, to a dated file.
func (m *Model) exportCSV() {
	m.notice = ""
	if len(m.report.Records) == 0 {
		m.errMsg = "Pole midagi eksportida."
		return
	}
	name := fmt.Sprintf("lugemine_ajalugu_%s.csv", m.opts.Now().In(m.opts.Location).Format("2006-01-02"))
	path := filepath.Join(m.opts.ExportDir, name)
	if err := writeCSVFile(path, history.Sorted(m.report.Records), m.opts.Location); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.notice = "Salvestatud: " + path
}

func (m *Model) copyToClipboard() {
	m.notice = ""
	if len(m.report.Records) == 0 {
		m.errMsg = "Pole midagi kopeerida."
		return
	}
	if err := history.Copy(m.opts.Clipboard, history.Sorted(m.report.Records), m.opts.Location); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.notice = fmt.Sprintf("%d kirjet kopeeritud.", len(m.report.Records))
}

func writeCSVFile(path string, records []model.Record, loc *time.Location) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return history.WriteCSV(file, records, loc)
}
