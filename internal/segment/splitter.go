package segment

import (
	"strings"
	"unicode"
)

// SentenceSplitter breaks text into ordered sentences
type SentenceSplitter interface {
	Split(text string) []string
}

// HeuristicSplitter splits on a single whitespace character that follows
// '.', '?' or '!', except after short abbreviations: a dotted pair such as
// "e.g." (word, dot, word, any) or a capitalised two-letter form such as "Mr."
type HeuristicSplitter struct{}

// Split implements SentenceSplitter. The whitespace at a split point is
// consumed; every other character is kept, so joining the pieces with the
// consumed separators reproduces the input.
func (HeuristicSplitter) Split(text string) []string {
	r := []rune(text)
	var sentences []string
	start := 0

	for i := range r {
		if !unicode.IsSpace(r[i]) || !splitsAt(r, i) {
			continue
		}
		sentences = append(sentences, string(r[start:i]))
		start = i + 1
	}
	return append(sentences, string(r[start:]))
}

// splitsAt reports whether whitespace at position i ends a sentence
func splitsAt(r []rune, i int) bool {
	if i == 0 {
		return false
	}
	switch r[i-1] {
	case '.', '?', '!':
	default:
		return false
	}

	// dotted abbreviation like "e.g." or "U.S."
	if i >= 4 && isWord(r[i-4]) && r[i-3] == '.' && isWord(r[i-2]) {
		return false
	}
	// honorific like "Mr." or "Dr."
	if i >= 3 && unicode.IsUpper(r[i-3]) && unicode.IsLower(r[i-2]) && r[i-1] == '.' {
		return false
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// trimSentences trims every sentence and drops empty ones
func trimSentences(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
