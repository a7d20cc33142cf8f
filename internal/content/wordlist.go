package content

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

//go:embed data/en.txt
var defaultWordsRaw string

// ErrEmptyText is returned when text holds no words.
var ErrEmptyText = errors.New("text is empty")

// DefaultWords returns the built-in English word list.
func DefaultWords() []string {
	return strings.Fields(defaultWordsRaw)
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s: %w", path, ErrEmptyText)
	}
	return words, nil
}

// Custom splits free text into word units.
func Custom(text string) ([]string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, ErrEmptyText
	}
	return words, nil
}

// LoadCustom reads custom text from a file.
func LoadCustom(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	words, err := Custom(string(data))
	if err != nil {
		return nil, fmt.Errorf("custom text %s: %w", path, err)
	}
	return words, nil
}
