// Package session implements the per-keystroke typing session state machine.
package session

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Status classifies a single expected character.
type Status int

const (
	// Pending means the cursor has not typed over the character yet.
	Pending Status = iota
	// Correct means the typed grapheme matched.
	Correct
	// Incorrect means the typed grapheme did not match.
	Incorrect
)

func (s Status) String() string {
	switch s {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "pending"
	}
}

// Completion records whether a word was finished exactly as written.
type Completion int

const (
	// Unknown until the user advances past the word.
	Unknown Completion = iota
	// Yes means the typed text equalled the source text.
	Yes
	// No means it did not.
	No
)

// Char is one expected grapheme of a word.
type Char struct {
	Value  string
	Status Status
}

// Word is one unit of source text and everything typed against it.
type Word struct {
	Source     string
	Chars      []Char
	Extra      []string
	Completion Completion

	typed []string
}

func newWord(source string) Word {
	clusters := Graphemes(source)
	chars := make([]Char, len(clusters))
	for i, c := range clusters {
		chars[i] = Char{Value: c}
	}
	return Word{Source: source, Chars: chars}
}

// Typed returns exactly what the user pressed for this word.
func (w Word) Typed() string {
	return strings.Join(w.typed, "")
}

// TypedLen returns the number of graphemes typed for this word.
func (w Word) TypedLen() int {
	return len(w.typed)
}

// Count returns how many expected characters carry the given status.
func (w Word) Count(status Status) int {
	n := 0
	for _, c := range w.Chars {
		if c.Status == status {
			n++
		}
	}
	return n
}

func (w Word) clone() Word {
	out := w
	out.Chars = append([]Char(nil), w.Chars...)
	out.Extra = append([]string(nil), w.Extra...)
	out.typed = append([]string(nil), w.typed...)
	return out
}

// Graphemes splits s into user-perceived characters.
func Graphemes(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
