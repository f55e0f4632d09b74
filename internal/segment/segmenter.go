// Package segment splits multi-brand comments into brand-attributed sentence runs.
package segment

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/ppiankov/brandpulse/internal/model"
)

// Segmenter attributes sentence runs of multi-brand comments to brands
type Segmenter struct {
	splitter SentenceSplitter
}

// NewSegmenter creates a segmenter; a nil splitter selects HeuristicSplitter
func NewSegmenter(splitter SentenceSplitter) *Segmenter {
	if splitter == nil {
		splitter = HeuristicSplitter{}
	}
	return &Segmenter{splitter: splitter}
}

// Segment converts records into segments. Records not flagged Multiple pass
// through as one segment holding the whole comment. Each flagged record is
// segmented against its own keyword, recognising brand mentions from the
// matched words of every flagged record. Output is stably sorted by keyword.
func (s *Segmenter) Segment(records []model.MatchRecord) []model.Segment {
	var single, multiple []model.MatchRecord
	for _, r := range records {
		if r.Multiple {
			multiple = append(multiple, r)
		} else {
			single = append(single, r)
		}
	}

	out := make([]model.Segment, 0, len(records))
	for _, r := range single {
		out = append(out, model.SegmentFromRecord(r))
	}

	if index := newBrandIndex(multiple); index != nil {
		for _, r := range multiple {
			for _, p := range s.segmentRecord(r, index) {
				out = append(out, p.segment)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// SegmentComment segments the records of a single comment, one per matched
// brand, and returns the segments in sentence order
func (s *Segmenter) SegmentComment(group []model.MatchRecord) []model.Segment {
	index := newBrandIndex(group)
	if index == nil {
		return nil
	}

	var positioned []positionedSegment
	for _, r := range group {
		positioned = append(positioned, s.segmentRecord(r, index)...)
	}
	sort.SliceStable(positioned, func(i, j int) bool { return positioned[i].start < positioned[j].start })

	out := make([]model.Segment, len(positioned))
	for i, p := range positioned {
		out[i] = p.segment
	}
	return out
}

// positionedSegment remembers the index of the first sentence of a segment
type positionedSegment struct {
	start   int
	segment model.Segment
}

// segmentRecord walks the sentences of one comment. The run currently open
// belongs to the brand of the last sentence that named a brand. Sentences
// naming the record's brand open or extend its run; sentences naming only
// other brands close it; brandless sentences extend whatever run is open.
func (s *Segmenter) segmentRecord(r model.MatchRecord, index *brandIndex) []positionedSegment {
	target := r.Keyword

	var segments []positionedSegment
	var run []string
	owner := ""
	start := 0

	flush := func() {
		if owner == target && len(run) > 0 {
			segments = append(segments, positionedSegment{
				start: start,
				segment: model.Segment{
					Forum:       r.Forum,
					Keyword:     r.Keyword,
					MatchedWord: r.MatchedWord,
					Text:        strings.Join(run, " "),
					Multiple:    r.Multiple,
				},
			})
		}
		run = nil
	}

	for i, sentence := range trimSentences(s.splitter.Split(r.Comment)) {
		brands := index.mentions(sentence)
		switch {
		case brands[target]:
			if owner != target {
				flush()
				owner = target
				start = i
			}
			run = append(run, sentence)
		case len(brands) > 0:
			flush()
			owner = index.firstMention(sentence)
		case owner == target:
			run = append(run, sentence)
		}
	}
	flush()

	return segments
}

// brandIndex recognises the matched words of a batch of records and maps
// each occurrence back to the keywords it was matched for
type brandIndex struct {
	pattern  *regexp.Regexp
	keywords map[string][]string // lowercased matched word -> keywords, first-seen order
}

// newBrandIndex builds a case-insensitive alternation of the distinct matched
// words; nil when there is nothing to match. Longer words come first so that
// "trek." is not shadowed by its prefix "trek".
func newBrandIndex(records []model.MatchRecord) *brandIndex {
	keywords := make(map[string][]string)
	var words []string
	for _, r := range records {
		if r.MatchedWord == "" {
			continue
		}
		w := strings.ToLower(r.MatchedWord)
		if _, ok := keywords[w]; !ok {
			words = append(words, w)
		}
		if !slices.Contains(keywords[w], r.Keyword) {
			keywords[w] = append(keywords[w], r.Keyword)
		}
	}
	if len(words) == 0 {
		return nil
	}

	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	alternatives := make([]string, len(words))
	for i, w := range words {
		alternatives[i] = regexp.QuoteMeta(w)
	}

	return &brandIndex{
		pattern:  regexp.MustCompile("(?i)" + strings.Join(alternatives, "|")),
		keywords: keywords,
	}
}

// mentions returns the keywords named in sentence
func (b *brandIndex) mentions(sentence string) map[string]bool {
	found := make(map[string]bool)
	for _, m := range b.pattern.FindAllString(sentence, -1) {
		for _, k := range b.keywords[strings.ToLower(m)] {
			found[k] = true
		}
	}
	return found
}

// firstMention returns the keyword of the leftmost brand token in sentence
func (b *brandIndex) firstMention(sentence string) string {
	kws := b.keywords[strings.ToLower(b.pattern.FindString(sentence))]
	if len(kws) == 0 {
		return ""
	}
	return kws[0]
}
