package session

import "time"

// State is the lifecycle phase of a session.
type State int

const (
	// Unstarted sessions have words but no start timestamp.
	Unstarted State = iota
	// Running sessions are being timed.
	Running
	// Paused sessions are started but not accumulating elapsed time.
	Paused
	// Ended is terminal until the next Reset.
	Ended
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unstarted"
	}
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now as the session time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOnChange registers a callback invoked after every state change.
func WithOnChange(fn func()) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// Session tracks one typing attempt. It is not safe for concurrent use;
// callers must serialize all calls.
type Session struct {
	now      func() time.Time
	onChange func()
	revision uint64

	words     []Word
	wordIndex int
	charIndex int

	startedAt      time.Time
	endedAt        time.Time
	paused         bool
	pausedTotal    time.Duration
	pauseStartedAt time.Time
}

// New returns an empty session. Call Reset to load words.
func New(opts ...Option) *Session {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset replaces the whole session with one word per source string.
func (s *Session) Reset(source []string) {
	words := make([]Word, len(source))
	for i, src := range source {
		words[i] = newWord(src)
	}
	s.words = words
	s.wordIndex = 0
	s.charIndex = 0
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
	s.paused = false
	s.pausedTotal = 0
	s.pauseStartedAt = time.Time{}
	s.changed()
}

// StartTimer records the start time on the first call only.
func (s *Session) StartTimer() {
	if !s.startedAt.IsZero() {
		return
	}
	s.startedAt = s.now()
	s.changed()
}

// TypeChar applies one typed grapheme at the cursor.
func (s *Session) TypeChar(ch string) {
	if ch == "" || s.ended() || s.wordIndex >= len(s.words) {
		return
	}
	word := &s.words[s.wordIndex]
	if s.charIndex < len(word.Chars) {
		status := Incorrect
		if ch == word.Chars[s.charIndex].Value {
			status = Correct
		}
		word.Chars[s.charIndex].Status = status
	} else {
		word.Extra = append(word.Extra, ch)
	}
	word.typed = append(word.typed, ch)
	s.charIndex++

	// The last word finishes on length alone, without a trailing space.
	if s.wordIndex == len(s.words)-1 && s.charIndex >= len(word.Chars) {
		s.endTest()
	}
	s.changed()
}

// Backspace undoes the most recent keystroke at the cursor.
func (s *Session) Backspace() {
	if s.ended() || s.wordIndex > len(s.words) {
		return
	}
	if s.wordIndex == 0 && s.charIndex == 0 {
		return
	}
	if s.charIndex == 0 {
		// Completion of the previous word is left as evaluated by Space.
		s.wordIndex--
		s.charIndex = s.words[s.wordIndex].TypedLen()
		s.changed()
		return
	}
	word := &s.words[s.wordIndex]
	if s.charIndex > len(word.Chars) {
		word.Extra = word.Extra[:len(word.Extra)-1]
	} else {
		word.Chars[s.charIndex-1].Status = Pending
	}
	word.typed = word.typed[:len(word.typed)-1]
	s.charIndex--
	s.changed()
}

// Space evaluates the active word and advances to the next one.
func (s *Session) Space() {
	if s.ended() || s.wordIndex >= len(s.words) {
		return
	}
	word := &s.words[s.wordIndex]
	if word.Typed() == word.Source {
		word.Completion = Yes
	} else {
		word.Completion = No
	}
	last := s.wordIndex == len(s.words)-1
	s.wordIndex++
	s.charIndex = 0
	if last {
		s.endTest()
	}
	s.changed()
}

// PauseTest stops the clock of a running session.
func (s *Session) PauseTest() {
	if s.startedAt.IsZero() || s.ended() || s.paused {
		return
	}
	s.paused = true
	s.pauseStartedAt = s.now()
	s.changed()
}

// ResumeTest restarts the clock, crediting the pause interval.
func (s *Session) ResumeTest() {
	if !s.pauseStartedAt.IsZero() {
		s.pausedTotal += nonNegative(s.now().Sub(s.pauseStartedAt))
		s.pauseStartedAt = time.Time{}
	}
	s.paused = false
	s.changed()
}

// EndTest records the end time on the first call only.
func (s *Session) EndTest() {
	if s.ended() {
		return
	}
	s.endTest()
	s.changed()
}

func (s *Session) endTest() {
	if s.ended() {
		return
	}
	s.endedAt = s.now()
	// An open pause closes at the end so elapsed time stays frozen.
	if !s.pauseStartedAt.IsZero() {
		s.pausedTotal += nonNegative(s.endedAt.Sub(s.pauseStartedAt))
		s.pauseStartedAt = time.Time{}
		s.paused = false
	}
}

// Elapsed returns the scoring duration: wall time since start, excluding pauses.
func (s *Session) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	now := s.now()
	end := s.endedAt
	if end.IsZero() {
		end = now
	}
	elapsed := end.Sub(s.startedAt) - s.pausedTotal
	if s.paused && !s.pauseStartedAt.IsZero() {
		elapsed -= now.Sub(s.pauseStartedAt)
	}
	return nonNegative(elapsed)
}

// State reports the lifecycle phase.
func (s *Session) State() State {
	switch {
	case s.ended():
		return Ended
	case s.startedAt.IsZero():
		return Unstarted
	case s.paused:
		return Paused
	default:
		return Running
	}
}

// Words returns a copy of all words.
func (s *Session) Words() []Word {
	out := make([]Word, len(s.words))
	for i, w := range s.words {
		out[i] = w.clone()
	}
	return out
}

// WordAt returns a copy of the word at index i.
func (s *Session) WordAt(i int) (Word, bool) {
	if i < 0 || i >= len(s.words) {
		return Word{}, false
	}
	return s.words[i].clone(), true
}

// ActiveWord returns the word under the cursor, if any.
func (s *Session) ActiveWord() (Word, bool) {
	return s.WordAt(s.wordIndex)
}

// Len returns the number of words.
func (s *Session) Len() int { return len(s.words) }

// WordIndex returns the active word index; it equals Len once all words are passed.
func (s *Session) WordIndex() int { return s.wordIndex }

// CharIndex returns the cursor offset within the active word.
func (s *Session) CharIndex() int { return s.charIndex }

// StartedAt returns the start time and whether it is set.
func (s *Session) StartedAt() (time.Time, bool) { return s.startedAt, !s.startedAt.IsZero() }

// EndedAt returns the end time and whether it is set.
func (s *Session) EndedAt() (time.Time, bool) { return s.endedAt, !s.endedAt.IsZero() }

// Paused reports whether the session is paused.
func (s *Session) Paused() bool { return s.paused }

// PausedTotal returns completed pause time.
func (s *Session) PausedTotal() time.Duration { return s.pausedTotal }

// Revision increases on every state change.
func (s *Session) Revision() uint64 { return s.revision }

func (s *Session) ended() bool {
	return !s.endedAt.IsZero()
}

func (s *Session) changed() {
	s.revision++
	if s.onChange != nil {
		s.onChange()
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
