package content

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
)

// NewlineToken is the word unit standing for a line break in code mode.
const NewlineToken = "\n"

// Difficulties lists the quote difficulties.
var Difficulties = []string{"easy", "medium", "hard"}

var (
	// ErrUnknownDifficulty is returned for difficulties outside Difficulties.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrUnknownLanguage is returned for code languages without snippets.
	ErrUnknownLanguage = errors.New("unknown language")
)

// Quote is an attributed quote.
type Quote struct {
	Difficulty string `toml:"difficulty"`
	Text       string `toml:"text"`
	Source     string `toml:"source"`
}

// Snippet is a code sample.
type Snippet struct {
	Language   string `toml:"language"`
	Difficulty string `toml:"difficulty"`
	Code       string `toml:"code"`
}

//go:embed data/quotes.toml
var quotesRaw string

//go:embed data/snippets.toml
var snippetsRaw string

type corpus struct {
	quotes   []Quote
	snippets []Snippet
}

var (
	corpusOnce sync.Once
	corpusData corpus
	corpusErr  error
)

func loadCorpus() (corpus, error) {
	corpusOnce.Do(func() {
		var q struct {
			Quote []Quote `toml:"quote"`
		}
		if _, err := toml.Decode(quotesRaw, &q); err != nil {
			corpusErr = fmt.Errorf("failed to decode quotes: %w", err)
			return
		}
		var s struct {
			Snippet []Snippet `toml:"snippet"`
		}
		if _, err := toml.Decode(snippetsRaw, &s); err != nil {
			corpusErr = fmt.Errorf("failed to decode snippets: %w", err)
			return
		}
		corpusData = corpus{quotes: q.Quote, snippets: s.Snippet}
	})
	return corpusData, corpusErr
}

// Quote picks a random quote of the given difficulty and splits it into words.
func (g *Generator) Quote(difficulty string) (Quote, []string, error) {
	c, err := loadCorpus()
	if err != nil {
		return Quote{}, nil, err
	}
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	pool := lo.Filter(c.quotes, func(q Quote, _ int) bool { return q.Difficulty == difficulty })
	if len(pool) == 0 {
		return Quote{}, nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	q := pool[g.rnd.Intn(len(pool))]
	return q, strings.Fields(q.Text), nil
}

// Code picks a random snippet in language and splits it into word units.
func (g *Generator) Code(language string) (Snippet, []string, error) {
	c, err := loadCorpus()
	if err != nil {
		return Snippet{}, nil, err
	}
	language = strings.ToLower(strings.TrimSpace(language))
	pool := lo.Filter(c.snippets, func(s Snippet, _ int) bool { return s.Language == language })
	if len(pool) == 0 {
		return Snippet{}, nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	s := pool[g.rnd.Intn(len(pool))]
	return s, CodeTokens(s.Code), nil
}

// CodeTokens splits code into words with a NewlineToken between non-empty
// lines. Indentation is not typed.
func CodeTokens(code string) []string {
	var tokens []string
	for _, line := range strings.Split(code, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(tokens) > 0 {
			tokens = append(tokens, NewlineToken)
		}
		tokens = append(tokens, fields...)
	}
	return tokens
}

// Languages lists code languages with snippets.
func Languages() []string {
	c, err := loadCorpus()
	if err != nil {
		return nil
	}
	langs := lo.Uniq(lo.Map(c.snippets, func(s Snippet, _ int) string { return s.Language }))
	sort.Strings(langs)
	return langs
}
