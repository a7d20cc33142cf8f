// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typist/internal/history"
	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/stats"
)

const (
	tabOverview = iota
	tabRecent
	tabDaily
	tabBests
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
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI. It only reads history.
type Model struct {
	history *history.Aggregator
	cfg     model.StatsConfig

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(hist *history.Aggregator, cfg model.StatsConfig) *Model {
	m := &Model{
		history:  hist,
		cfg:      cfg,
		tabs:     []string{"Overview", "Recent", "Daily", "Bests"},
		overview: viewport.New(0, 0),
		tables:   map[int]*table.Model{},
	}
	m.rebuild()
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
		m.rebuild()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		}
		if t, ok := m.tables[m.activeTab]; ok {
			updated, cmd := t.Update(msg)
			*t = updated
			return m, cmd
		}
		var cmd tea.Cmd
		m.overview, cmd = m.overview.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render("Nav: left/right  Scroll: up/down  Quit: q"), m.width, 1)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X"))
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	if t, ok := m.tables[m.activeTab]; ok {
		t.Blur()
	}
	m.activeTab = next
	if t, ok := m.tables[m.activeTab]; ok {
		t.Focus()
	}
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

func (m *Model) renderBody() string {
	if t, ok := m.tables[m.activeTab]; ok {
		if len(t.Rows()) == 0 {
			return "No results yet."
		}
		return tableMutedStyle.Render(t.View())
	}
	return m.overview.View()
}

func (m *Model) rebuild() {
	_, bodyHeight := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.overview.SetContent(renderOverview(m.history, m.cfg, m.width))

	recent := buildTable(recentColumns(), recentRows(m.history.Snapshot().Results), m.width, bodyHeight)
	daily := buildTable(dailyColumns(), dailyRows(m.history.Daily()), m.width, bodyHeight)
	bests := buildTable(bestColumns(), bestRows(m.history.BestsByCategory()), m.width, bodyHeight)
	m.tables[tabRecent] = &recent
	m.tables[tabDaily] = &daily
	m.tables[tabBests] = &bests
	if t, ok := m.tables[m.activeTab]; ok {
		t.Focus()
	}
}

func renderOverview(hist *history.Aggregator, cfg model.StatsConfig, width int) string {
	state := hist.Snapshot()
	if state.TotalTests == 0 {
		return "No results yet. Finish a test to start tracking."
	}
	cards := []string{
		metricCard("Tests", fmt.Sprintf("%d", state.TotalTests)),
		metricCard("Time", stats.FormatDuration(state.TotalSeconds)),
		metricCard("Best WPM", fmt.Sprintf("%d", state.OverallBestWPM)),
		metricCard(fmt.Sprintf("Avg WPM %dd", cfg.AvgDays), fmt.Sprintf("%.0f", hist.AverageWPM(cfg.AvgDays))),
		metricCard("Avg Acc", fmt.Sprintf("%.0f%%", hist.AverageAccuracy(cfg.AvgDays))),
		metricCard("Streak", fmt.Sprintf("%d (best %d)", state.CurrentStreak, state.LongestStreak)),
		metricCard("Trend", stats.FormatPercent(hist.ImprovementPercentage())),
		metricCard("Today vs prev", stats.FormatPercent(hist.DailyImprovement())),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:4]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4:]...)
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	wpms := stats.RecentWPMSeries(state.Results, cfg.CurveWindow)
	spark := fmt.Sprintf("Recent WPM  %s", stats.Sparkline(wpms))
	return grid + "\n\n" + headerStyle.Render(spark)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func recentColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Mode", Width: 16},
		{Title: "WPM", Width: 5},
		{Title: "Raw", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Time", Width: 7},
	}
}

func recentRows(results []history.Record) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, table.Row{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.Mode,
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d", r.RawWPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%.1fs", r.DurationSeconds),
		})
	}
	return rows
}

func dailyColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Tests", Width: 5},
		{Title: "Avg WPM", Width: 7},
		{Title: "Avg Acc", Width: 7},
		{Title: "Best", Width: 5},
		{Title: "Time", Width: 8},
	}
}

func dailyRows(days []history.DailyStats) []table.Row {
	rows := make([]table.Row, 0, len(days))
	for _, d := range days {
		rows = append(rows, table.Row{
			d.Date,
			fmt.Sprintf("%d", d.TestsCompleted),
			fmt.Sprintf("%.1f", d.AverageWPM),
			fmt.Sprintf("%.1f%%", d.AverageAccuracy),
			fmt.Sprintf("%d", d.BestWPM),
			stats.FormatDuration(d.TotalSeconds),
		})
	}
	return rows
}

func bestColumns() []table.Column {
	return []table.Column{
		{Title: "Category", Width: 9},
		{Title: "Mode", Width: 16},
		{Title: "WPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Date", Width: 10},
	}
}

func bestRows(grouped map[history.Category][]history.PersonalBest) []table.Row {
	var rows []table.Row
	for _, cat := range history.Categories {
		for _, pb := range grouped[cat] {
			rows = append(rows, table.Row{
				string(cat),
				pb.Mode,
				fmt.Sprintf("%d", pb.WPM),
				fmt.Sprintf("%d%%", pb.Accuracy),
				pb.Timestamp.Local().Format("2006-01-02"),
			})
		}
	}
	return rows
}

func buildTable(columns []table.Column, rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	w := lipgloss.Width(line)
	if w >= width {
		return line
	}
	return line + strings.Repeat(" ", width-w)
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
