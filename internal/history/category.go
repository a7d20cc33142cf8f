package history

import (
	"fmt"
	"strings"
)

// Category groups modes for best-score display.
type Category string

const (
	// Standard covers word-count and time-limit tests.
	Standard Category = "standard"
	// Quote covers quote and custom-text tests.
	Quote Category = "quote"
	// Code covers code-snippet tests.
	Code Category = "code"
)

// Categories lists every category in display order.
var Categories = []Category{Standard, Quote, Code}

// Mode identifies a test configuration. The category is chosen together
// with the label and travels with it.
type Mode struct {
	Label    string
	Category Category
}

// WordsMode labels a fixed word-count test.
func WordsMode(count int) Mode {
	return Mode{Label: fmt.Sprintf("words %d", count), Category: Standard}
}

// TimeMode labels a time-limit test.
func TimeMode(seconds int) Mode {
	return Mode{Label: fmt.Sprintf("time %ds", seconds), Category: Standard}
}

// QuoteMode labels a quote test of the given difficulty.
func QuoteMode(difficulty string) Mode {
	return Mode{Label: "quote " + difficulty, Category: Quote}
}

// CustomMode labels a custom-text test.
func CustomMode() Mode {
	return Mode{Label: "custom", Category: Quote}
}

// CodeMode labels a code-snippet test in the given language.
func CodeMode(language string) Mode {
	return Mode{Label: "code " + language, Category: Code}
}

// CategorizeLabel infers a category from a free-form label. It is only
// used for records that were stored without a category. Unknown labels
// are Standard.
func CategorizeLabel(label string) Category {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "code"):
		return Code
	case strings.HasPrefix(l, "quote"), strings.HasPrefix(l, "custom"):
		return Quote
	default:
		return Standard
	}
}

func (m Mode) category() Category {
	switch m.Category {
	case Standard, Quote, Code:
		return m.Category
	default:
		return CategorizeLabel(m.Label)
	}
}
