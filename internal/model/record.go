package model

// MatchRecord is one (comment, keyword) attribution produced by the keyword matcher
type MatchRecord struct {
	Forum       string `json:"subreddit"`
	Keyword     string `json:"keyword"`      // Canonical brand name
	MatchedWord string `json:"matched_word"` // Literal (lowercased) token that matched the brand
	Comment     string `json:"comment"`      // Normalized comment text
	Multiple    bool   `json:"multiple"`     // Comment text appears in more than one record
}

// Segment is a brand-attributed span of a comment.
// Single-brand comments become one Segment carrying the whole comment.
type Segment struct {
	Forum       string `json:"subreddit"`
	Keyword     string `json:"keyword"`
	MatchedWord string `json:"matched_word"`
	Text        string `json:"comment"`
	Multiple    bool   `json:"multiple"`
}

// SegmentFromRecord converts a record into a Segment spanning its whole comment
func SegmentFromRecord(r MatchRecord) Segment {
	return Segment{
		Forum:       r.Forum,
		Keyword:     r.Keyword,
		MatchedWord: r.MatchedWord,
		Text:        r.Comment,
		Multiple:    r.Multiple,
	}
}

// Sentiment labels observed from the sentiment collaborator
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Sentiment is the label and confidence returned for one text span
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"` // Confidence in [0,1]
}

// ScoredSegment is a Segment labelled by the sentiment collaborator
type ScoredSegment struct {
	Segment
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}
