// Package normalize canonicalizes raw comment text before keyword matching.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern        = regexp.MustCompile(`http\S+`)
	escapedBreaks     = strings.NewReplacer(`\n`, " ", `\r`, " ", "/", " ")
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Text applies every normalization step in order: entity unescaping,
// unicode to ASCII folding, URL removal and whitespace cleanup
func Text(text string) string {
	text = html.UnescapeString(text)
	text = FoldASCII(text)
	text = StripURLs(text)
	text = CleanWhitespace(text)
	return text
}

// FoldASCII decomposes text (NFKD) and drops every rune outside ASCII,
// so "Cervélo" becomes "Cervelo" and emoji disappear
func FoldASCII(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// StripURLs removes everything from "http" to the next whitespace
func StripURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// CleanWhitespace replaces literal "\n" and "\r" escape sequences and slashes
// with spaces, then collapses whitespace runs into a single space
func CleanWhitespace(text string) string {
	text = escapedBreaks.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
