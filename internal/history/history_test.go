package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/typist/internal/scoring"
)

type memStorage struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (m *memStorage) Load(context.Context) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *memStorage) Save(_ context.Context, data []byte) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestAggregator(t *testing.T, st Storage, limits Limits) (*Aggregator, *fakeClock, *[]error) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
	var errs []error
	ids := 0
	a := New(context.Background(), Options{
		Limits:   limits,
		Storage:  st,
		Now:      clock.Now,
		Location: time.UTC,
		NewID: func() string {
			ids++
			return fmt.Sprintf("r%d", ids)
		},
		OnError: func(err error) { errs = append(errs, err) },
	})
	return a, clock, &errs
}

func result(wpm, accuracy int) scoring.Result {
	return scoring.Result{WPM: wpm, RawWPM: wpm + 2, Accuracy: accuracy, Duration: 30 * time.Second}
}

func TestAddResultCapsMostRecentFirst(t *testing.T) {
	a, _, _ := newTestAggregator(t, nil, Limits{MaxResults: 3})
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		a.AddResult(ctx, result(10*i, 90), WordsMode(25), "english")
	}
	got := a.RecentResults(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].WPM != 50 || got[2].WPM != 30 {
		t.Fatalf("expected most recent first, got %d..%d", got[0].WPM, got[2].WPM)
	}
	if a.Snapshot().TotalTests != 5 {
		t.Fatalf("expected lifetime counter to keep counting")
	}
}

func TestPersonalBestStrictlyGreater(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	mode := TimeMode(30)
	a.AddResult(ctx, result(60, 95), mode, "english")
	first, _ := a.PersonalBest(mode.Label)

	clock.now = clock.now.Add(time.Minute)
	a.AddResult(ctx, result(60, 99), mode, "english")
	tie, _ := a.PersonalBest(mode.Label)
	if !tie.Timestamp.Equal(first.Timestamp) || tie.Accuracy != 95 {
		t.Fatalf("expected tie to keep the earlier best, got %+v", tie)
	}
	if !a.MatchesPersonalBest(mode.Label, 60) {
		t.Fatalf("expected tie to match the personal best")
	}

	a.AddResult(ctx, result(61, 80), mode, "english")
	best, _ := a.PersonalBest(mode.Label)
	if best.WPM != 61 || best.Category != Standard {
		t.Fatalf("expected new best 61, got %+v", best)
	}
	if _, ok := a.PersonalBest(WordsMode(10).Label); ok {
		t.Fatalf("expected no best for an unused mode")
	}
}

func TestDailyStatsWeightedAverage(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{MaxDays: 2})
	ctx := context.Background()
	a.AddResult(ctx, result(40, 90), WordsMode(25), "english")
	a.AddResult(ctx, result(50, 100), WordsMode(25), "english")
	a.AddResult(ctx, result(60, 95), WordsMode(25), "english")

	day := a.Daily()[0]
	if day.Date != "2024-06-10" || day.TestsCompleted != 3 {
		t.Fatalf("unexpected day: %+v", day)
	}
	if day.AverageWPM != 50 || day.BestWPM != 60 || day.TotalSeconds != 90 {
		t.Fatalf("unexpected rollup: %+v", day)
	}
	if math.Abs(day.AverageAccuracy-95) > 1e-9 {
		t.Fatalf("expected 95 avg accuracy, got %v", day.AverageAccuracy)
	}

	for i := 1; i <= 2; i++ {
		clock.now = clock.now.AddDate(0, 0, 1)
		a.AddResult(ctx, result(70, 90), WordsMode(25), "english")
	}
	days := a.Daily()
	if len(days) != 2 || days[0].Date != "2024-06-12" || days[1].Date != "2024-06-11" {
		t.Fatalf("expected two most recent days, got %+v", days)
	}
}

func TestStreakConsecutiveAndGap(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	add := func() { a.AddResult(ctx, result(50, 90), WordsMode(25), "english") }

	add()
	add()
	if s := a.Snapshot(); s.CurrentStreak != 1 {
		t.Fatalf("expected same-day tests to keep streak 1, got %d", s.CurrentStreak)
	}
	clock.now = clock.now.AddDate(0, 0, 1)
	add()
	if s := a.Snapshot(); s.CurrentStreak != 2 || s.LongestStreak != 2 {
		t.Fatalf("expected streak 2, got %d/%d", s.CurrentStreak, s.LongestStreak)
	}
	clock.now = clock.now.AddDate(0, 0, 3)
	add()
	s := a.Snapshot()
	if s.CurrentStreak != 1 || s.LongestStreak != 2 {
		t.Fatalf("expected reset streak with longest kept, got %d/%d", s.CurrentStreak, s.LongestStreak)
	}
	if s.LastTestDate != "2024-06-14" {
		t.Fatalf("unexpected last test date %q", s.LastTestDate)
	}
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	clock.now = time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC)
	a.AddResult(ctx, result(50, 90), WordsMode(25), "english")
	clock.now = time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC)
	a.AddResult(ctx, result(50, 90), WordsMode(25), "english")
	if s := a.Snapshot(); s.CurrentStreak != 2 {
		t.Fatalf("expected streak 2 across month boundary, got %d", s.CurrentStreak)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	st := &memStorage{}
	a, _, errs := newTestAggregator(t, st, Limits{})
	ctx := context.Background()
	rec := a.AddResult(ctx, result(72, 97), CodeMode("golang"), "golang")
	if st.saves != 1 || len(*errs) != 0 {
		t.Fatalf("expected one clean save, got %d saves, errors %v", st.saves, *errs)
	}

	b, _, _ := newTestAggregator(t, st, Limits{})
	got := b.RecentResults(1)
	if len(got) != 1 || got[0].ID != rec.ID || got[0].Category != Code {
		t.Fatalf("unexpected reloaded results: %+v", got)
	}
	if best, ok := b.PersonalBest("code golang"); !ok || best.WPM != 72 {
		t.Fatalf("expected reloaded personal best, got %+v", best)
	}
}

func TestCorruptDataFailsClosed(t *testing.T) {
	st := &memStorage{data: []byte("{not json")}
	a, _, errs := newTestAggregator(t, st, Limits{})
	s := a.Snapshot()
	if s.TotalTests != 0 || len(s.Results) != 0 || s.PersonalBests == nil {
		t.Fatalf("expected empty state, got %+v", s)
	}
	if len(*errs) != 1 {
		t.Fatalf("expected decode error reported, got %v", *errs)
	}
}

func TestLoadErrorFallsBackToEmpty(t *testing.T) {
	st := &memStorage{loadErr: errors.New("unavailable")}
	a, _, errs := newTestAggregator(t, st, Limits{})
	if a.Snapshot().TotalTests != 0 || len(*errs) != 1 {
		t.Fatalf("expected empty state with one reported error")
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	st := &memStorage{saveErr: errors.New("quota exceeded")}
	a, _, errs := newTestAggregator(t, st, Limits{})
	a.AddResult(context.Background(), result(80, 98), WordsMode(50), "english")
	if a.Snapshot().TotalTests != 1 {
		t.Fatalf("expected in-memory state to keep the result")
	}
	if len(*errs) != 1 {
		t.Fatalf("expected save error reported, got %v", *errs)
	}
}

func TestLoadNormalizesLegacyData(t *testing.T) {
	legacy := State{
		Results: []Record{
			{ID: "a", WPM: 40, Mode: "quote medium"},
			{ID: "b", WPM: 30, Mode: "code rust"},
			{ID: "c", WPM: 20, Mode: "words 25"},
		},
		TotalTests: -4,
	}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	st := &memStorage{data: data}
	a, _, _ := newTestAggregator(t, st, Limits{MaxResults: 2})
	s := a.Snapshot()
	if len(s.Results) != 2 {
		t.Fatalf("expected results capped to 2, got %d", len(s.Results))
	}
	if s.Results[0].Category != Quote || s.Results[1].Category != Code {
		t.Fatalf("expected categories backfilled, got %+v", s.Results)
	}
	if s.PersonalBests == nil || s.TotalTests != 0 {
		t.Fatalf("expected normalized counters and map")
	}
}

func TestAveragesAndImprovement(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	if a.AverageWPM(7) != 0 || a.ImprovementPercentage() != 0 {
		t.Fatalf("expected zero averages on empty history")
	}
	old := clock.now
	clock.now = old.AddDate(0, 0, -10)
	a.AddResult(ctx, result(10, 50), WordsMode(25), "english")
	clock.now = old
	for _, wpm := range []int{40, 40, 40, 50, 50} {
		a.AddResult(ctx, result(wpm, 100), WordsMode(25), "english")
	}
	if got := a.AverageWPM(7); got != 44 {
		t.Fatalf("expected 7-day average 44, got %v", got)
	}
	if got := a.AverageWPM(0); math.Abs(got-230.0/6) > 1e-9 {
		t.Fatalf("expected all-time average, got %v", got)
	}
	if got := a.AverageAccuracy(7); got != 100 {
		t.Fatalf("expected 100 accuracy, got %v", got)
	}
	// recent 50,50,40 against 40,40,10
	want := (140.0/3 - 90.0/3) / (90.0 / 3) * 100
	if got := a.ImprovementPercentage(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected improvement %v, got %v", want, got)
	}
}

func TestDailyImprovement(t *testing.T) {
	a, clock, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	a.AddResult(ctx, result(40, 90), WordsMode(25), "english")
	if a.DailyImprovement() != 0 {
		t.Fatalf("expected no daily improvement with one day")
	}
	clock.now = clock.now.AddDate(0, 0, 1)
	a.AddResult(ctx, result(50, 90), WordsMode(25), "english")
	if got := a.DailyImprovement(); got != 25 {
		t.Fatalf("expected 25%% daily improvement, got %v", got)
	}
}

func TestBestsByCategory(t *testing.T) {
	a, _, _ := newTestAggregator(t, nil, Limits{})
	ctx := context.Background()
	a.AddResult(ctx, result(70, 90), WordsMode(50), "english")
	a.AddResult(ctx, result(60, 90), TimeMode(15), "english")
	a.AddResult(ctx, result(55, 90), QuoteMode("hard"), "english")
	a.AddResult(ctx, result(45, 90), CustomMode(), "english")
	a.AddResult(ctx, result(35, 90), CodeMode("python"), "python")

	grouped := a.BestsByCategory()
	if len(grouped[Standard]) != 2 || len(grouped[Quote]) != 2 || len(grouped[Code]) != 1 {
		t.Fatalf("unexpected grouping: %+v", grouped)
	}
	if grouped[Standard][0].Mode != "time 15s" {
		t.Fatalf("expected bests sorted by label, got %q", grouped[Standard][0].Mode)
	}
}

func TestClearResetsState(t *testing.T) {
	st := &memStorage{}
	a, _, _ := newTestAggregator(t, st, Limits{})
	ctx := context.Background()
	a.AddResult(ctx, result(70, 90), WordsMode(50), "english")
	a.Clear(ctx)
	if s := a.Snapshot(); s.TotalTests != 0 || len(s.PersonalBests) != 0 {
		t.Fatalf("expected cleared state, got %+v", s)
	}
	if st.saves != 2 {
		t.Fatalf("expected clear to persist, got %d saves", st.saves)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	a, _, _ := newTestAggregator(t, nil, Limits{})
	a.AddResult(context.Background(), result(70, 90), WordsMode(50), "english")
	s := a.Snapshot()
	s.Results[0].WPM = 1
	s.PersonalBests["words 50"] = PersonalBest{WPM: 1}
	if a.RecentResults(1)[0].WPM != 70 {
		t.Fatalf("expected snapshot results to be detached")
	}
	if best, _ := a.PersonalBest("words 50"); best.WPM != 70 {
		t.Fatalf("expected snapshot bests to be detached")
	}
}

func TestCategorizeLabel(t *testing.T) {
	cases := map[string]Category{
		"words 25":      Standard,
		"time 60s":      Standard,
		" Quote easy":   Quote,
		"custom":        Quote,
		"CODE golang":   Code,
		"something new": Standard,
	}
	for label, want := range cases {
		if got := CategorizeLabel(label); got != want {
			t.Fatalf("CategorizeLabel(%q): expected %s, got %s", label, want, got)
		}
	}
}
