package session

import (
	"reflect"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(source ...string) (*Session, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := New(WithClock(clock.Now))
	s.Reset(source)
	return s, clock
}

func typeString(s *Session, text string) {
	for _, g := range Graphemes(text) {
		if g == " " {
			s.Space()
			continue
		}
		s.StartTimer()
		s.TypeChar(g)
	}
}

func TestTypeWordsAutoEndsOnLastChar(t *testing.T) {
	s, clock := newTestSession("cat", "dog")
	typeString(s, "cat do")
	if s.State() != Running {
		t.Fatalf("expected running before last char, got %s", s.State())
	}
	clock.Advance(30 * time.Second)
	s.TypeChar("g")
	if s.State() != Ended {
		t.Fatalf("expected ended after last char, got %s", s.State())
	}
	if got := s.Elapsed(); got != 30*time.Second {
		t.Fatalf("expected 30s elapsed, got %v", got)
	}
	for _, w := range s.Words() {
		if w.Count(Correct) != 3 {
			t.Fatalf("expected all chars correct in %q", w.Source)
		}
	}
	first, _ := s.WordAt(0)
	if first.Completion != Yes {
		t.Fatalf("expected first word completed")
	}
}

func TestBackspaceRestoresChar(t *testing.T) {
	s, _ := newTestSession("cat", "dog")
	s.StartTimer()
	s.TypeChar("x")
	w, _ := s.ActiveWord()
	if w.Chars[0].Status != Incorrect {
		t.Fatalf("expected incorrect status, got %s", w.Chars[0].Status)
	}
	s.Backspace()
	s.TypeChar("c")
	w, _ = s.ActiveWord()
	if w.Chars[0].Status != Correct {
		t.Fatalf("expected correct status, got %s", w.Chars[0].Status)
	}
	if w.Typed() != "c" {
		t.Fatalf("expected typed text %q, got %q", "c", w.Typed())
	}
}

func TestTypeThenBackspaceIsInverse(t *testing.T) {
	s, _ := newTestSession("ab", "cd")
	s.StartTimer()
	s.TypeChar("a")
	before := s.Words()
	wordIndex, charIndex := s.WordIndex(), s.CharIndex()

	for _, ch := range []string{"x", "y", "z"} {
		s.TypeChar(ch)
	}
	for i := 0; i < 3; i++ {
		s.Backspace()
	}
	if s.WordIndex() != wordIndex || s.CharIndex() != charIndex {
		t.Fatalf("expected cursor %d/%d, got %d/%d", wordIndex, charIndex, s.WordIndex(), s.CharIndex())
	}
	if !reflect.DeepEqual(before, s.Words()) {
		t.Fatalf("expected words restored, got %+v", s.Words())
	}
}

func TestExtraCharsAndTypedLen(t *testing.T) {
	s, _ := newTestSession("ab", "cd")
	typeString(s, "abxy")
	w, _ := s.ActiveWord()
	if len(w.Extra) != 2 || w.Extra[0] != "x" {
		t.Fatalf("expected extras [x y], got %v", w.Extra)
	}
	if w.TypedLen() != 4 || s.CharIndex() != 4 {
		t.Fatalf("expected typed length 4, got %d (cursor %d)", w.TypedLen(), s.CharIndex())
	}
	s.Backspace()
	w, _ = s.ActiveWord()
	if len(w.Extra) != 1 || w.Typed() != "abx" {
		t.Fatalf("expected one extra left, got %v typed %q", w.Extra, w.Typed())
	}
}

func TestBackspaceIntoPreviousWordKeepsCompletion(t *testing.T) {
	s, _ := newTestSession("ab", "cd")
	typeString(s, "a ")
	prev, _ := s.WordAt(0)
	if prev.Completion != No {
		t.Fatalf("expected incomplete word marked No")
	}
	s.Backspace()
	if s.WordIndex() != 0 || s.CharIndex() != 1 {
		t.Fatalf("expected cursor back at 0/1, got %d/%d", s.WordIndex(), s.CharIndex())
	}
	prev, _ = s.WordAt(0)
	if prev.Completion != No {
		t.Fatalf("expected completion to stay set after backspace")
	}
	s.TypeChar("b")
	s.Space()
	prev, _ = s.WordAt(0)
	if prev.Completion != Yes {
		t.Fatalf("expected completion re-evaluated by space")
	}
}

func TestBackspaceAtStartIsNoop(t *testing.T) {
	s, _ := newTestSession("ab")
	rev := s.Revision()
	s.Backspace()
	if s.Revision() != rev || s.CharIndex() != 0 {
		t.Fatalf("expected no change on backspace at start")
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	s, clock := newTestSession("abc", "def")
	s.StartTimer()
	clock.Advance(10 * time.Second)
	s.PauseTest()
	if s.State() != Paused {
		t.Fatalf("expected paused, got %s", s.State())
	}
	clock.Advance(time.Minute)
	if got := s.Elapsed(); got != 10*time.Second {
		t.Fatalf("expected elapsed frozen at 10s, got %v", got)
	}
	s.ResumeTest()
	clock.Advance(5 * time.Second)
	if got := s.Elapsed(); got != 15*time.Second {
		t.Fatalf("expected 15s elapsed, got %v", got)
	}
	if s.PausedTotal() != time.Minute {
		t.Fatalf("expected 1m paused total, got %v", s.PausedTotal())
	}
}

func TestEndWhilePausedStaysFrozen(t *testing.T) {
	s, clock := newTestSession("abc")
	s.StartTimer()
	clock.Advance(4 * time.Second)
	s.PauseTest()
	clock.Advance(20 * time.Second)
	s.EndTest()
	clock.Advance(time.Hour)
	if got := s.Elapsed(); got != 4*time.Second {
		t.Fatalf("expected 4s elapsed, got %v", got)
	}
	if s.State() != Ended || s.Paused() {
		t.Fatalf("expected ended and not paused, got %s", s.State())
	}
}

func TestEndedIgnoresInput(t *testing.T) {
	s, clock := newTestSession("ab")
	typeString(s, "ab")
	if s.State() != Ended {
		t.Fatalf("expected ended, got %s", s.State())
	}
	ended, _ := s.EndedAt()
	words := s.Words()
	clock.Advance(time.Second)
	s.TypeChar("x")
	s.Backspace()
	s.Space()
	s.EndTest()
	if !reflect.DeepEqual(words, s.Words()) {
		t.Fatalf("expected words unchanged after end")
	}
	if again, _ := s.EndedAt(); !again.Equal(ended) {
		t.Fatalf("expected end time to be set once")
	}
}

func TestSpaceOnLastWordEnds(t *testing.T) {
	s, _ := newTestSession("ab", "cd")
	typeString(s, "ab c ")
	if s.State() != Ended {
		t.Fatalf("expected ended after space on last word, got %s", s.State())
	}
	last, _ := s.WordAt(1)
	if last.Completion != No {
		t.Fatalf("expected last word incomplete")
	}
}

func TestResetClearsState(t *testing.T) {
	s, clock := newTestSession("ab", "cd")
	typeString(s, "ax")
	clock.Advance(time.Second)
	s.PauseTest()
	clock.Advance(time.Second)
	s.ResumeTest()

	s.Reset([]string{"ef"})
	if s.State() != Unstarted {
		t.Fatalf("expected unstarted after reset, got %s", s.State())
	}
	if _, ok := s.StartedAt(); ok {
		t.Fatalf("expected start time cleared")
	}
	if s.PausedTotal() != 0 || s.Elapsed() != 0 {
		t.Fatalf("expected pause accumulators cleared")
	}
	if s.Len() != 1 || s.WordIndex() != 0 || s.CharIndex() != 0 {
		t.Fatalf("expected fresh cursor over new words")
	}
	w, _ := s.ActiveWord()
	if w.Count(Pending) != 2 || w.TypedLen() != 0 {
		t.Fatalf("expected pending chars, got %+v", w)
	}
}

func TestEmptyResetIsInert(t *testing.T) {
	s, _ := newTestSession()
	s.StartTimer()
	s.TypeChar("a")
	s.Space()
	s.Backspace()
	if s.Len() != 0 || s.WordIndex() != 0 {
		t.Fatalf("expected no words and no movement")
	}
	if _, ok := s.ActiveWord(); ok {
		t.Fatalf("expected no active word")
	}
}

func TestGraphemesKeepsClusters(t *testing.T) {
	got := Graphemes("e\u0301a")
	if len(got) != 2 || got[0] != "e\u0301" {
		t.Fatalf("expected combined cluster, got %q", got)
	}
	w := newWord("e\u0301a")
	if len(w.Chars) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(w.Chars))
	}
}

func TestOnChangeNotified(t *testing.T) {
	calls := 0
	s := New(WithOnChange(func() { calls++ }))
	s.Reset([]string{"ab"})
	s.StartTimer()
	s.TypeChar("a")
	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}
}
