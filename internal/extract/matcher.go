package extract

import (
	"strings"

	"github.com/ppiankov/brandpulse/internal/model"
)

// DefaultThreshold is the similarity a word must strictly exceed to count as a brand mention
const DefaultThreshold = 85.0

// Matcher finds fuzzy brand mentions in normalized comments
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Match returns one record per brand mentioned in comment, in the order the
// brands are claimed. Each round scores every remaining candidate against every
// word and claims the single best pair scoring above the threshold; the claimed
// candidate leaves the working set, so a brand is attributed at most once.
// Ties go to the candidate (and word) seen first. candidates is not modified.
func (m *Matcher) Match(forum, comment string, candidates []string) []model.MatchRecord {
	words := strings.Fields(strings.ToLower(comment))
	if len(words) == 0 || len(candidates) == 0 {
		return nil
	}

	remaining := make([]string, len(candidates))
	copy(remaining, candidates)

	var records []model.MatchRecord
	for len(remaining) > 0 {
		best, word := m.bestCandidate(remaining, words)
		if best < 0 {
			break
		}

		records = append(records, model.MatchRecord{
			Forum:       forum,
			Keyword:     remaining[best],
			MatchedWord: word,
			Comment:     comment,
		})
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return records
}

// bestCandidate returns the index of the highest scoring candidate above the
// threshold together with its matched word, or -1 when none qualifies
func (m *Matcher) bestCandidate(candidates, words []string) (int, string) {
	bestIdx := -1
	bestWord := ""
	bestScore := 0.0

	for i, keyword := range candidates {
		lowered := strings.ToLower(keyword)
		for _, word := range words {
			score := Ratio(word, lowered)
			if score > m.threshold && score > bestScore {
				bestScore = score
				bestIdx = i
				bestWord = word
			}
		}
	}

	return bestIdx, bestWord
}
