package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typist/internal/content"
	"github.com/verte-zerg/typist/internal/history"
	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/scoring"
	"github.com/verte-zerg/typist/internal/session"
)

const tickInterval = 100 * time.Millisecond

// averageWindowDays is the window of the average shown on the result screen.
const averageWindowDays = 7

type tickMsg time.Time

// Model implements the Bubble Tea typing UI. It owns the session and feeds
// it key events one at a time.
type Model struct {
	config  model.Config
	session *session.Session
	gen     *content.Generator
	history *history.Aggregator
	custom  []string

	mode   history.Mode
	source string
	errMsg string

	width  int
	height int

	recorded bool
	result   scoring.Result
	record   *history.Record
	newBest  bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	extraStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8071A"))
	skippedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Underline(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")).Bold(true)
	resultValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	resultLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// NewModel constructs a typing TUI model and loads the first text. custom
// holds the words for custom mode.
func NewModel(cfg model.Config, sess *session.Session, gen *content.Generator, hist *history.Aggregator, custom []string) *Model {
	m := &Model{
		config:  cfg,
		session: sess,
		gen:     gen,
		history: hist,
		custom:  custom,
		mode:    ModeFor(cfg),
	}
	m.resetSession()
	return m
}

// ModeFor maps practice settings to the history mode they are recorded under.
func ModeFor(cfg model.Config) history.Mode {
	switch cfg.Mode {
	case model.ModeTime:
		return history.TimeMode(cfg.TimeLimit)
	case model.ModeQuote:
		return history.QuoteMode(cfg.Difficulty)
	case model.ModeCode:
		return history.CodeMode(cfg.CodeLang)
	case model.ModeCustom:
		return history.CustomMode()
	default:
		return history.WordsMode(cfg.Words)
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.checkTimeLimit()
		m.finishIfEnded()
		return m, tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.handleKey(msg)
		m.finishIfEnded()
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyTab:
		m.resetSession()
		return
	case tea.KeyEsc:
		switch m.session.State() {
		case session.Paused:
			m.session.ResumeTest()
		case session.Running:
			m.session.PauseTest()
		}
		return
	}

	if m.session.State() == session.Ended {
		if msg.Type == tea.KeyEnter {
			m.resetSession()
		}
		return
	}
	if m.session.State() == session.Paused {
		m.session.ResumeTest()
	}

	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		m.session.Backspace()
	case tea.KeySpace:
		m.handleSpace()
	case tea.KeyEnter:
		m.handleEnter()
	case tea.KeyRunes:
		m.handleRunes(msg.Runes)
	}
}

func (m *Model) handleSpace() {
	// A leading space is not meaningful input and does not start the clock.
	if m.session.State() == session.Unstarted && m.session.WordIndex() == 0 && m.session.CharIndex() == 0 {
		return
	}
	m.session.Space()
}

func (m *Model) handleEnter() {
	word, ok := m.session.ActiveWord()
	if !ok || word.Source != content.NewlineToken || m.session.CharIndex() != 0 {
		return
	}
	m.session.StartTimer()
	m.session.TypeChar(content.NewlineToken)
	m.session.Space()
}

func (m *Model) handleRunes(runes []rune) {
	for _, g := range session.Graphemes(string(runes)) {
		if g == " " {
			m.handleSpace()
			continue
		}
		m.session.StartTimer()
		m.session.TypeChar(g)
	}
}

func (m *Model) checkTimeLimit() {
	if m.config.Mode != model.ModeTime || m.config.TimeLimit <= 0 {
		return
	}
	if m.session.State() != session.Running {
		return
	}
	if m.session.Elapsed() >= time.Duration(m.config.TimeLimit)*time.Second {
		m.session.EndTest()
	}
}

// finishIfEnded scores an ended session and records it exactly once.
func (m *Model) finishIfEnded() {
	if m.recorded || m.session.State() != session.Ended {
		return
	}
	m.recorded = true
	if _, started := m.session.StartedAt(); !started {
		return
	}
	m.result = scoring.FromSession(m.session)
	if m.result.WPM <= 0 || m.history == nil {
		return
	}
	_, hadBest := m.history.PersonalBest(m.mode.Label)
	m.newBest = !hadBest || m.history.MatchesPersonalBest(m.mode.Label, m.result.WPM)
	rec := m.history.AddResult(context.Background(), m.result, m.mode, m.language())
	m.record = &rec
}

func (m *Model) language() string {
	if m.config.Mode == model.ModeCode {
		return m.config.CodeLang
	}
	return "english"
}

func (m *Model) resetSession() {
	m.recorded = false
	m.record = nil
	m.result = scoring.Result{}
	m.newBest = false
	m.errMsg = ""
	m.source = ""

	words, err := m.generateText()
	if err != nil {
		m.errMsg = err.Error()
		logErrf("failed to generate text: %v\n", err)
	}
	m.session.Reset(words)
}

func (m *Model) generateText() ([]string, error) {
	switch m.config.Mode {
	case model.ModeQuote:
		q, words, err := m.gen.Quote(m.config.Difficulty)
		if err != nil {
			return nil, err
		}
		m.source = q.Source
		return words, nil
	case model.ModeCode:
		_, words, err := m.gen.Code(m.config.CodeLang)
		return words, err
	case model.ModeCustom:
		if len(m.custom) > 0 {
			return append([]string(nil), m.custom...), nil
		}
		// Without custom text fall back to a word test.
		return m.gen.Words(m.config.Words, m.wordOptions()), nil
	case model.ModeTime:
		return m.gen.Words(content.WordsForTime(m.config.TimeLimit), m.wordOptions()), nil
	default:
		return m.gen.Words(m.config.Words, m.wordOptions()), nil
	}
}

func (m *Model) wordOptions() content.WordOptions {
	return content.WordOptions{
		CapsPct:  m.config.CapsPct,
		PunctPct: m.config.PunctPct,
		Numbers:  m.config.Numbers,
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch {
	case m.errMsg != "":
		body = incorrectStyle.Render(m.errMsg)
	case m.session.State() == session.Ended:
		body = m.renderResult()
	default:
		body = m.renderText()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	bodyHeight := m.height - 1
	top := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return top + "\n" + footerLine
}

func (m *Model) renderText() string {
	words := m.session.Words()
	if len(words) == 0 {
		return ""
	}
	runes := buildStyledRunes(words, m.session.WordIndex(), m.session.CharIndex(), true)
	contentWidth := 0
	if m.width > 0 {
		contentWidth = int(float64(m.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
	}
	text := wrapStyledRunes(runes, contentWidth)
	if contentWidth > 0 {
		text = lipgloss.NewStyle().Width(contentWidth).Render(text)
	}
	if m.source != "" {
		text += "\n\n" + footerStyle.Render("~ "+m.source)
	}
	return text
}

func (m *Model) renderResult() string {
	r := m.result
	lines := []string{
		resultLine("wpm", fmt.Sprintf("%d", r.WPM)),
		resultLine("raw", fmt.Sprintf("%d", r.RawWPM)),
		resultLine("acc", fmt.Sprintf("%d%%", r.Accuracy)),
		resultLine("chars", fmt.Sprintf("%d/%d/%d", r.Counts.Correct, r.Counts.Incorrect, r.Counts.Extra)),
		resultLine("time", fmt.Sprintf("%.1fs", r.Seconds())),
		resultLine("mode", m.mode.Label),
	}
	if m.record != nil {
		if m.newBest {
			lines = append(lines, resultValueStyle.Render("new personal best"))
		}
		lines = append(lines,
			resultLine("7d avg", fmt.Sprintf("%.0f wpm", m.history.AverageWPM(averageWindowDays))),
			resultLine("trend", formatImprovement(m.history.ImprovementPercentage())),
		)
	} else if _, started := m.session.StartedAt(); started {
		lines = append(lines, footerStyle.Render("not recorded"))
	}
	lines = append(lines, "", footerStyle.Render("enter/tab restart · ctrl+c quit"))
	return strings.Join(lines, "\n")
}

func resultLine(label, value string) string {
	return resultLabelStyle.Render(fmt.Sprintf("%-7s", label)) + " " + resultValueStyle.Render(value)
}

func formatImprovement(pct float64) string {
	if pct == 0 {
		return "n/a"
	}
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.0f%%", sign, pct)
}

func (m *Model) renderFooter() string {
	if m.session.Len() == 0 {
		return ""
	}
	segments := []string{m.mode.Label}
	elapsed := m.session.Elapsed()
	if m.config.Mode == model.ModeTime && m.config.TimeLimit > 0 {
		remaining := time.Duration(m.config.TimeLimit)*time.Second - elapsed
		if remaining < 0 {
			remaining = 0
		}
		segments = append(segments, fmt.Sprintf("%ds left", int(remaining.Round(time.Second).Seconds())))
	} else {
		segments = append(segments, fmt.Sprintf("%d/%d words", m.session.WordIndex(), m.session.Len()))
	}
	if _, started := m.session.StartedAt(); started {
		live := scoring.FromSession(m.session)
		segments = append(segments, fmt.Sprintf("%d WPM · %d%%", live.WPM, live.Accuracy))
	}
	if m.history != nil {
		if best, ok := m.history.PersonalBest(m.mode.Label); ok {
			segments = append(segments, fmt.Sprintf("PB %d", best.WPM))
		}
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.session.State() == session.Paused {
		footer = pausedStyle.Render("paused") + "  " + footer
	}
	return footer
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
