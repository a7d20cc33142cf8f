// Package scoring derives WPM and accuracy from a typing session.
package scoring

import (
	"math"
	"time"

	"github.com/verte-zerg/typist/internal/session"
)

// CharsPerWord is the length of one standard word.
const CharsPerWord = 5

// Counts holds character classification totals.
type Counts struct {
	Correct   int
	Incorrect int
	Extra     int
}

// Total returns every typed character.
func (c Counts) Total() int {
	return c.Correct + c.Incorrect + c.Extra
}

// Result is a scored session.
type Result struct {
	WPM      int
	RawWPM   int
	Accuracy int
	Counts   Counts
	Duration time.Duration
}

// Seconds returns the scored duration in seconds.
func (r Result) Seconds() float64 {
	return r.Duration.Seconds()
}

// Tally counts character statuses across words.
func Tally(words []session.Word) Counts {
	var c Counts
	for _, w := range words {
		c.Correct += w.Count(session.Correct)
		c.Incorrect += w.Count(session.Incorrect)
		c.Extra += len(w.Extra)
	}
	return c
}

// Compute scores counts over a duration. Rounding happens once, at the end.
func Compute(c Counts, d time.Duration) Result {
	if d < 0 {
		d = 0
	}
	res := Result{Counts: c, Duration: d}
	minutes := d.Minutes()
	if minutes > 0 {
		res.WPM = round(float64(c.Correct) / CharsPerWord / minutes)
		res.RawWPM = round(float64(c.Total()) / CharsPerWord / minutes)
	}
	if total := c.Total(); total > 0 {
		res.Accuracy = round(float64(c.Correct) / float64(total) * 100)
	}
	return res
}

// FromSession scores the current state of s.
func FromSession(s *session.Session) Result {
	return Compute(Tally(s.Words()), s.Elapsed())
}

func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
