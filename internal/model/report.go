package model

import "time"

// Report represents the aggregated brand/forum sentiment summary
type Report struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Totals      Totals    `json:"totals"`

	Brands []BrandSummary `json:"brands"` // Sorted by positive ratio ascending
	Forums []ForumSummary `json:"forums"` // Sorted by forum, then brand

	Rankings []ForumRanking `json:"rankings,omitempty"` // Most liked/disliked brands per forum

	DroppedBrands []string `json:"dropped_brands"` // Brands removed by the frequency threshold (may be empty)
}

// Totals holds report-wide counts
type Totals struct {
	Segments int     `json:"segments"`
	Brands   int     `json:"brands"`
	Forums   int     `json:"forums"`
	Coverage float64 `json:"coverage,omitempty"` // Percentage of records with an exact brand token
}

// SentimentCounts is the positive/negative breakdown shared by brand and forum rows
type SentimentCounts struct {
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Total         int     `json:"total"`
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
}

// BrandSummary aggregates all segments of one brand
type BrandSummary struct {
	Brand string `json:"brand"`
	SentimentCounts
	Controversy float64 `json:"controversy_score"` // Negative share damped by mention volume
}

// ForumSummary aggregates the segments of one brand within one forum
type ForumSummary struct {
	Forum string `json:"subreddit"`
	Brand string `json:"keyword"`
	SentimentCounts
}

// ForumRanking lists the most liked and most disliked brands of a forum
type ForumRanking struct {
	Forum        string         `json:"subreddit"`
	MostLiked    []ForumSummary `json:"most_liked"`
	MostDisliked []ForumSummary `json:"most_disliked"`
}
