// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typist/internal/content"
	"github.com/verte-zerg/typist/internal/session"
)

const newlineGlyph = "↵"

type styledRune struct {
	s       string
	width   int
	isSpace bool
	isBreak bool
}

func newStyledRune(text string, style lipgloss.Style) styledRune {
	return styledRune{s: style.Render(text), width: runewidth.StringWidth(text)}
}

// buildStyledRunes renders every word with its character statuses. Words
// are separated by a space cell; a newline token forces a line break.
func buildStyledRunes(words []session.Word, wordIndex, charIndex int, showCursor bool) []styledRune {
	out := make([]styledRune, 0, len(words)*6)
	for i, w := range words {
		active := i == wordIndex
		if w.Source == content.NewlineToken {
			style := pendingStyle
			switch {
			case w.Chars[0].Status == session.Correct:
				style = correctStyle
			case w.Chars[0].Status == session.Incorrect || w.Completion == session.No:
				style = incorrectStyle
			case active:
				style = currentWordStyle
			}
			if active && showCursor && charIndex == 0 {
				style = style.Underline(true)
			}
			out = append(out, newStyledRune(newlineGlyph, style))
			out = append(out, styledRune{isBreak: true})
			continue
		}
		for ci, ch := range w.Chars {
			style := charStyle(w, ch, active)
			if active && showCursor && ci == charIndex {
				style = style.Underline(true)
			}
			out = append(out, newStyledRune(ch.Value, style))
		}
		for _, extra := range w.Extra {
			out = append(out, newStyledRune(extra, extraStyle))
		}
		if i == len(words)-1 {
			continue
		}
		if next := words[i+1]; next.Source == content.NewlineToken {
			continue
		}
		space := pendingStyle
		if active && showCursor && charIndex >= len(w.Chars) {
			space = cursorStyle
		}
		sp := newStyledRune(" ", space)
		sp.isSpace = true
		out = append(out, sp)
	}
	return out
}

func charStyle(w session.Word, ch session.Char, active bool) lipgloss.Style {
	switch ch.Status {
	case session.Correct:
		return correctStyle
	case session.Incorrect:
		return incorrectStyle
	}
	if active {
		return currentWordStyle
	}
	if w.Completion == session.No {
		return skippedStyle
	}
	return pendingStyle
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		if item.isBreak {
			b.WriteRune('\n')
			continue
		}
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if item.isBreak {
			out.WriteString(renderStyledRunes(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			lastSpaceIdx = -1
			i++
			continue
		}
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
