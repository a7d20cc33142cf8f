// Package history keeps bounded result history, personal bests, daily
// rollups and day streaks, persisted through a storage slot.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typist/internal/scoring"
)

// Default limits.
const (
	DefaultMaxResults = 10
	DefaultMaxDays    = 7
)

const dateLayout = "2006-01-02"

// Record is an immutable scored session.
type Record struct {
	ID              string    `json:"id" yaml:"id"`
	WPM             int       `json:"wpm" yaml:"wpm"`
	RawWPM          int       `json:"rawWpm" yaml:"raw_wpm"`
	Accuracy        int       `json:"accuracy" yaml:"accuracy"`
	Correct         int       `json:"correctChars" yaml:"correct_chars"`
	Incorrect       int       `json:"incorrectChars" yaml:"incorrect_chars"`
	Extra           int       `json:"extraChars" yaml:"extra_chars"`
	DurationSeconds float64   `json:"time" yaml:"time"`
	Mode            string    `json:"mode" yaml:"mode"`
	Category        Category  `json:"modeCategory,omitempty" yaml:"mode_category,omitempty"`
	Language        string    `json:"language,omitempty" yaml:"language,omitempty"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
}

// PersonalBest is the best WPM recorded for one mode label.
type PersonalBest struct {
	WPM       int       `json:"wpm" yaml:"wpm"`
	Accuracy  int       `json:"accuracy" yaml:"accuracy"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Mode      string    `json:"mode" yaml:"mode"`
	Category  Category  `json:"modeCategory,omitempty" yaml:"mode_category,omitempty"`
}

// DailyStats aggregates one local calendar day.
type DailyStats struct {
	Date            string  `json:"date" yaml:"date"`
	TestsCompleted  int     `json:"testsCompleted" yaml:"tests_completed"`
	AverageWPM      float64 `json:"averageWpm" yaml:"average_wpm"`
	AverageAccuracy float64 `json:"averageAccuracy" yaml:"average_accuracy"`
	TotalSeconds    float64 `json:"totalTime" yaml:"total_time"`
	BestWPM         int     `json:"bestWpm" yaml:"best_wpm"`
}

// State is the whole persisted history.
type State struct {
	Results             []Record                `json:"results" yaml:"results"`
	PersonalBests       map[string]PersonalBest `json:"personalBests" yaml:"personal_bests"`
	Daily               []DailyStats            `json:"dailyStats" yaml:"daily_stats"`
	TotalTests          int                     `json:"totalTestsCompleted" yaml:"total_tests_completed"`
	TotalSeconds        float64                 `json:"totalTimeTyping" yaml:"total_time_typing"`
	OverallBestWPM      int                     `json:"overallBestWpm" yaml:"overall_best_wpm"`
	OverallBestAccuracy int                     `json:"overallBestAccuracy" yaml:"overall_best_accuracy"`
	CurrentStreak       int                     `json:"currentStreak" yaml:"current_streak"`
	LongestStreak       int                     `json:"longestStreak" yaml:"longest_streak"`
	LastTestDate        string                  `json:"lastTestDate,omitempty" yaml:"last_test_date,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Results = append([]Record(nil), s.Results...)
	out.Daily = append([]DailyStats(nil), s.Daily...)
	out.PersonalBests = make(map[string]PersonalBest, len(s.PersonalBests))
	for k, v := range s.PersonalBests {
		out.PersonalBests[k] = v
	}
	return out
}

// Limits bounds retained history.
type Limits struct {
	MaxResults int
	MaxDays    int
}

func (l Limits) withDefaults() Limits {
	if l.MaxResults <= 0 {
		l.MaxResults = DefaultMaxResults
	}
	if l.MaxDays <= 0 {
		l.MaxDays = DefaultMaxDays
	}
	return l
}

// Storage persists the encoded history in a single named slot. Load returns
// empty data when nothing has been saved yet.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Options configures an Aggregator. Every field is optional.
type Options struct {
	Limits   Limits
	Storage  Storage
	Now      func() time.Time
	Location *time.Location
	NewID    func() string
	// OnError receives persistence failures, which never interrupt the caller.
	OnError func(error)
}

// Aggregator owns the history state. It is not safe for concurrent use;
// callers must serialize access.
type Aggregator struct {
	limits  Limits
	storage Storage
	now     func() time.Time
	loc     *time.Location
	newID   func() string
	onError func(error)

	state State
}

// New builds an aggregator and loads any persisted state.
func New(ctx context.Context, opts Options) *Aggregator {
	a := &Aggregator{
		limits:  opts.Limits.withDefaults(),
		storage: opts.Storage,
		now:     opts.Now,
		loc:     opts.Location,
		newID:   opts.NewID,
		onError: opts.OnError,
		state:   emptyState(),
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	a.load(ctx)
	return a
}

func emptyState() State {
	return State{PersonalBests: map[string]PersonalBest{}}
}

// AddResult records a scored session and persists the new state.
func (a *Aggregator) AddResult(ctx context.Context, res scoring.Result, mode Mode, language string) Record {
	now := a.now()
	rec := Record{
		ID:              a.newID(),
		WPM:             res.WPM,
		RawWPM:          res.RawWPM,
		Accuracy:        res.Accuracy,
		Correct:         res.Counts.Correct,
		Incorrect:       res.Counts.Incorrect,
		Extra:           res.Counts.Extra,
		DurationSeconds: res.Seconds(),
		Mode:            mode.Label,
		Category:        mode.category(),
		Language:        language,
		Timestamp:       now,
	}

	// Build the next state completely before it becomes visible.
	next := a.state.clone()
	today := a.dateKey(now)

	next.Results = append([]Record{rec}, next.Results...)
	if len(next.Results) > a.limits.MaxResults {
		next.Results = next.Results[:a.limits.MaxResults]
	}

	if best, ok := next.PersonalBests[rec.Mode]; !ok || rec.WPM > best.WPM {
		next.PersonalBests[rec.Mode] = PersonalBest{
			WPM:       rec.WPM,
			Accuracy:  rec.Accuracy,
			Timestamp: now,
			Mode:      rec.Mode,
			Category:  rec.Category,
		}
	}

	next.Daily = a.rollupDay(next.Daily, today, rec)

	next.TotalTests++
	next.TotalSeconds += rec.DurationSeconds
	next.OverallBestWPM = max(next.OverallBestWPM, rec.WPM)
	next.OverallBestAccuracy = max(next.OverallBestAccuracy, rec.Accuracy)

	next.CurrentStreak, next.LongestStreak = a.nextStreak(next, now)
	next.LastTestDate = today

	a.state = next
	a.save(ctx)
	return rec
}

func (a *Aggregator) rollupDay(days []DailyStats, date string, rec Record) []DailyStats {
	for i := range days {
		if days[i].Date != date {
			continue
		}
		d := days[i]
		count := float64(d.TestsCompleted)
		d.AverageWPM = (d.AverageWPM*count + float64(rec.WPM)) / (count + 1)
		d.AverageAccuracy = (d.AverageAccuracy*count + float64(rec.Accuracy)) / (count + 1)
		d.TestsCompleted++
		d.TotalSeconds += rec.DurationSeconds
		d.BestWPM = max(d.BestWPM, rec.WPM)
		days[i] = d
		return days
	}
	days = append([]DailyStats{{
		Date:            date,
		TestsCompleted:  1,
		AverageWPM:      float64(rec.WPM),
		AverageAccuracy: float64(rec.Accuracy),
		TotalSeconds:    rec.DurationSeconds,
		BestWPM:         rec.WPM,
	}}, days...)
	if len(days) > a.limits.MaxDays {
		days = days[:a.limits.MaxDays]
	}
	return days
}

func (a *Aggregator) nextStreak(s State, now time.Time) (current, longest int) {
	switch s.LastTestDate {
	case a.dateKey(now):
		current = s.CurrentStreak
	case a.yesterdayKey(now):
		current = s.CurrentStreak + 1
	default:
		current = 1
	}
	return current, max(s.LongestStreak, current)
}

// Clear drops all history and persists the empty state.
func (a *Aggregator) Clear(ctx context.Context) {
	a.state = emptyState()
	a.save(ctx)
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() State {
	return a.state.clone()
}

func (a *Aggregator) dateKey(t time.Time) string {
	return t.In(a.loc).Format(dateLayout)
}

func (a *Aggregator) yesterdayKey(t time.Time) string {
	y, m, d := t.In(a.loc).Date()
	// Calendar arithmetic at noon avoids DST edges.
	return time.Date(y, m, d-1, 12, 0, 0, 0, a.loc).Format(dateLayout)
}
