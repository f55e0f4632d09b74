package extract

import (
	"sort"
	"strings"

	"github.com/ppiankov/brandpulse/internal/model"
)

// DefaultMinOccurrences is the brand frequency threshold used by the original analysis
const DefaultMinOccurrences = 100

// FilterLowercase drops records of exempt keywords whose matched word appears
// verbatim (case-sensitive) in the comment. Matched words are lowercase, so a
// hit means the brand was written like the common word ("giant", "rose").
func FilterLowercase(records []model.MatchRecord, exempt []string) []model.MatchRecord {
	if len(exempt) == 0 {
		return records
	}

	exemptSet := make(map[string]bool, len(exempt))
	for _, k := range exempt {
		exemptSet[k] = true
	}

	kept := make([]model.MatchRecord, 0, len(records))
	for _, r := range records {
		if exemptSet[r.Keyword] && strings.Contains(r.Comment, r.MatchedWord) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// FrequencyResult is the outcome of a frequency filter pass
type FrequencyResult[T any] struct {
	Kept    []T
	Dropped []string       // Keywords below the threshold, most frequent first; never nil
	Counts  map[string]int // Occurrences per keyword before filtering
}

// FilterByFrequency counts items per keyword and removes every item whose
// keyword occurs fewer than threshold times
func FilterByFrequency[T any](items []T, keyword func(T) string, threshold int) FrequencyResult[T] {
	counts := make(map[string]int)
	for _, item := range items {
		counts[keyword(item)]++
	}

	dropped := []string{}
	for k, n := range counts {
		if n < threshold {
			dropped = append(dropped, k)
		}
	}
	sort.Slice(dropped, func(i, j int) bool {
		if counts[dropped[i]] != counts[dropped[j]] {
			return counts[dropped[i]] > counts[dropped[j]]
		}
		return dropped[i] < dropped[j]
	})

	kept := make([]T, 0, len(items))
	for _, item := range items {
		if counts[keyword(item)] >= threshold {
			kept = append(kept, item)
		}
	}

	return FrequencyResult[T]{Kept: kept, Dropped: dropped, Counts: counts}
}

// FilterRecordsByFrequency applies FilterByFrequency to match records
func FilterRecordsByFrequency(records []model.MatchRecord, threshold int) FrequencyResult[model.MatchRecord] {
	return FilterByFrequency(records, func(r model.MatchRecord) string { return r.Keyword }, threshold)
}

// MarkMultiple sets Multiple on every record whose comment text is shared
// with at least one other record
func MarkMultiple(records []model.MatchRecord) []model.MatchRecord {
	counts := make(map[string]int, len(records))
	for _, r := range records {
		counts[r.Comment]++
	}

	out := make([]model.MatchRecord, len(records))
	for i, r := range records {
		r.Multiple = counts[r.Comment] > 1
		out[i] = r
	}
	return out
}

// ExactMentionShare returns the percentage of records whose comment contains
// one of brands as an exact, case-sensitive whitespace-delimited token
func ExactMentionShare(records []model.MatchRecord, brands []string) float64 {
	if len(records) == 0 {
		return 0
	}

	brandSet := make(map[string]bool, len(brands))
	for _, b := range brands {
		brandSet[b] = true
	}

	hits := 0
	for _, r := range records {
		for _, token := range strings.Fields(r.Comment) {
			if brandSet[token] {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(records)) * 100
}
