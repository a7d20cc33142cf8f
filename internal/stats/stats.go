// Package stats contains plain-text history reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/typist/internal/history"
	"github.com/verte-zerg/typist/internal/model"
)

const (
	sparkChars = " .:-=+*#%@"
	colorBold  = "\x1b[1m"
	colorCyan  = "\x1b[36m"
	colorReset = "\x1b[0m"
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RecentWPMSeries returns the WPM of results oldest first, smoothed over window.
func RecentWPMSeries(results []history.Record, window int) []float64 {
	values := make([]float64, len(results))
	for i, r := range results {
		values[len(results)-1-i] = float64(r.WPM)
	}
	return MovingAverage(values, window)
}

// FormatDuration renders seconds as a compact duration like 1h02m or 3m05s.
func FormatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatPercent renders a signed percentage change.
func FormatPercent(p float64) string {
	if math.Abs(p) < 0.05 {
		return "0.0%"
	}
	return fmt.Sprintf("%+.1f%%", p)
}

// RenderReport prints the summary, recent results, daily stats and bests.
func RenderReport(w io.Writer, hist *history.Aggregator, cfg model.StatsConfig) error {
	useColor := shouldUseColor(w)
	if err := RenderSummary(w, hist, cfg, useColor); err != nil {
		return err
	}
	state := hist.Snapshot()
	if state.TotalTests == 0 {
		return nil
	}
	if err := RenderRecent(w, state.Results, useColor); err != nil {
		return err
	}
	if err := RenderDaily(w, state.Daily, useColor); err != nil {
		return err
	}
	return RenderBests(w, hist.BestsByCategory(), useColor)
}

// RenderSummary prints lifetime totals and rolling averages.
func RenderSummary(w io.Writer, hist *history.Aggregator, cfg model.StatsConfig, useColor bool) error {
	state := hist.Snapshot()
	if state.TotalTests == 0 {
		_, err := fmt.Fprintln(w, "No results yet.")
		return err
	}
	lines := []string{
		heading("Summary", useColor),
		fmt.Sprintf("Tests: %d", state.TotalTests),
		fmt.Sprintf("Time typing: %s", FormatDuration(state.TotalSeconds)),
		fmt.Sprintf("Best WPM: %d", state.OverallBestWPM),
		fmt.Sprintf("Best Accuracy: %d%%", state.OverallBestAccuracy),
		fmt.Sprintf("Avg WPM (%dd): %.1f", cfg.AvgDays, hist.AverageWPM(cfg.AvgDays)),
		fmt.Sprintf("Avg Accuracy (%dd): %.1f%%", cfg.AvgDays, hist.AverageAccuracy(cfg.AvgDays)),
		fmt.Sprintf("Streak: %d (longest %d)", state.CurrentStreak, state.LongestStreak),
		fmt.Sprintf("Improvement: %s", FormatPercent(hist.ImprovementPercentage())),
	}
	if spark := Sparkline(RecentWPMSeries(state.Results, cfg.CurveWindow)); spark != "" {
		lines = append(lines, fmt.Sprintf("Recent WPM: [%s]", spark))
	}
	return writeLines(w, append(lines, ""))
}

// RenderRecent prints the retained results, most recent first.
func RenderRecent(w io.Writer, results []history.Record, useColor bool) error {
	headers := []string{"When", "Mode", "WPM", "Raw", "Acc", "Time"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.Mode,
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d", r.RawWPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%.1fs", r.DurationSeconds),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true}
	return renderSection(w, heading("Recent Results", useColor), headers, rows, rightAlign)
}

// RenderDaily prints the daily rollups, most recent first.
func RenderDaily(w io.Writer, days []history.DailyStats, useColor bool) error {
	headers := []string{"Date", "Tests", "Avg WPM", "Avg Acc", "Best", "Time"}
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date,
			fmt.Sprintf("%d", d.TestsCompleted),
			fmt.Sprintf("%.1f", d.AverageWPM),
			fmt.Sprintf("%.1f%%", d.AverageAccuracy),
			fmt.Sprintf("%d", d.BestWPM),
			FormatDuration(d.TotalSeconds),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	return renderSection(w, heading("Daily", useColor), headers, rows, rightAlign)
}

// RenderBests prints personal bests grouped by category.
func RenderBests(w io.Writer, grouped map[history.Category][]history.PersonalBest, useColor bool) error {
	headers := []string{"Category", "Mode", "WPM", "Acc", "Date"}
	var rows [][]string
	for _, cat := range history.Categories {
		for _, pb := range grouped[cat] {
			rows = append(rows, []string{
				string(cat),
				pb.Mode,
				fmt.Sprintf("%d", pb.WPM),
				fmt.Sprintf("%d%%", pb.Accuracy),
				pb.Timestamp.Local().Format("2006-01-02"),
			})
		}
	}
	rightAlign := map[int]bool{2: true, 3: true}
	return renderSection(w, heading("Personal Bests", useColor), headers, rows, rightAlign)
}

func renderSection(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if len(rows) == 0 {
		return nil
	}
	lines := append([]string{title}, formatTable(headers, rows, rightAlign)...)
	return writeLines(w, append(lines, ""))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func heading(title string, useColor bool) string {
	if !useColor {
		return title
	}
	return colorBold + colorCyan + title + colorReset
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
