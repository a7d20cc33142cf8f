package history

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

const improvementWindow = 3

// RecentResults returns up to n most recent records.
func (a *Aggregator) RecentResults(n int) []Record {
	if n <= 0 {
		return nil
	}
	if n > len(a.state.Results) {
		n = len(a.state.Results)
	}
	return append([]Record(nil), a.state.Results[:n]...)
}

// PersonalBest looks up the best result for a mode label.
func (a *Aggregator) PersonalBest(label string) (PersonalBest, bool) {
	best, ok := a.state.PersonalBests[label]
	return best, ok
}

// MatchesPersonalBest reports whether wpm reaches the stored best for the
// label. Unlike the storage rule, a tie counts.
func (a *Aggregator) MatchesPersonalBest(label string, wpm int) bool {
	best, ok := a.state.PersonalBests[label]
	return ok && wpm >= best.WPM
}

// AverageWPM is the mean WPM of retained results, limited to the last
// days when days > 0.
func (a *Aggregator) AverageWPM(days int) float64 {
	return meanOf(a.resultsWithin(days), func(r Record) float64 { return float64(r.WPM) })
}

// AverageAccuracy is the mean accuracy of retained results, limited to the
// last days when days > 0.
func (a *Aggregator) AverageAccuracy(days int) float64 {
	return meanOf(a.resultsWithin(days), func(r Record) float64 { return float64(r.Accuracy) })
}

// ImprovementPercentage compares the mean WPM of the three most recent
// results with the three before them.
func (a *Aggregator) ImprovementPercentage() float64 {
	results := a.state.Results
	if len(results) < 2*improvementWindow {
		return 0
	}
	wpm := func(r Record) float64 { return float64(r.WPM) }
	recent := meanOf(results[:improvementWindow], wpm)
	previous := meanOf(results[improvementWindow:2*improvementWindow], wpm)
	if previous == 0 {
		return 0
	}
	return (recent - previous) / previous * 100
}

// DailyImprovement compares the latest day's average WPM with the day before it.
func (a *Aggregator) DailyImprovement() float64 {
	days := a.state.Daily
	if len(days) < 2 || days[1].AverageWPM == 0 {
		return 0
	}
	return (days[0].AverageWPM - days[1].AverageWPM) / days[1].AverageWPM * 100
}

// BestsByCategory groups personal bests by category, each sorted by label.
func (a *Aggregator) BestsByCategory() map[Category][]PersonalBest {
	grouped := lo.GroupBy(lo.Values(a.state.PersonalBests), func(pb PersonalBest) Category {
		return Mode{Label: pb.Mode, Category: pb.Category}.category()
	})
	for _, bests := range grouped {
		sort.Slice(bests, func(i, j int) bool { return bests[i].Mode < bests[j].Mode })
	}
	return grouped
}

// Daily returns the retained daily rollups, most recent first.
func (a *Aggregator) Daily() []DailyStats {
	return append([]DailyStats(nil), a.state.Daily...)
}

func (a *Aggregator) resultsWithin(days int) []Record {
	if days <= 0 {
		return a.state.Results
	}
	cutoff := a.now().Add(-time.Duration(days) * 24 * time.Hour)
	return lo.Filter(a.state.Results, func(r Record, _ int) bool {
		return !r.Timestamp.Before(cutoff)
	})
}

func meanOf(results []Record, value func(Record) float64) float64 {
	if len(results) == 0 {
		return 0
	}
	return lo.SumBy(results, value) / float64(len(results))
}
