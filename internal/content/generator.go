// Package content produces the word units a typing session is built from.
package content

import (
	"math"
	"math/rand"
	"strconv"
	"time"
	"unicode"
)

// DefaultPunctSet is the punctuation appended to words when enabled.
const DefaultPunctSet = ".,!?;:"

// numbersPct is the share of words replaced by a number when numbers are on.
const numbersPct = 0.15

// maxTimeModeWPM bounds how fast anyone can type in time mode.
const maxTimeModeWPM = 400

// WordOptions tunes random word generation.
type WordOptions struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
	Numbers  bool
}

// Generator produces randomized typing text.
type Generator struct {
	rnd   *rand.Rand
	words []string
}

// New returns a Generator over words seeded with the current time. A nil or
// empty list uses the built-in English list.
func New(words []string) *Generator {
	return NewWithSource(words, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource is New with an explicit random source.
func NewWithSource(words []string, src rand.Source) *Generator {
	if len(words) == 0 {
		words = DefaultWords()
	}
	return &Generator{rnd: rand.New(src), words: words}
}

// Words selects count words uniformly and applies caps, punctuation and numbers.
func (g *Generator) Words(count int, opts WordOptions) []string {
	if count <= 0 {
		return nil
	}
	punctSet := opts.PunctSet
	if len(punctSet) == 0 {
		punctSet = []rune(DefaultPunctSet)
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := g.words[g.rnd.Intn(len(g.words))]
		if opts.Numbers && g.rnd.Float64() < numbersPct {
			word = strconv.Itoa(g.rnd.Intn(1000))
		}
		word = applyCaps(g.rnd, word, opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, punctSet)
		result = append(result, word)
	}
	return result
}

// WordsForTime returns how many words to generate for a time-limit test.
func WordsForTime(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(float64(seconds) / 60 * maxTimeModeWPM))
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
