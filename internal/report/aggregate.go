// Package report aggregates scored segments into brand and forum tables and
// renders them.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

// controversyDamping inflates the largest brand total so the most discussed
// brand keeps a non-zero controversy score
const controversyDamping = 1.1

// Build aggregates scored segments. Any label other than positive counts as
// negative. RunID, coverage and dropped brands are left for the caller.
func Build(scored []model.ScoredSegment, cfg model.ReportConfig) *model.Report {
	brandCounts := make(map[string]*model.SentimentCounts)
	forumCounts := make(map[[2]string]*model.SentimentCounts)

	for _, s := range scored {
		positive := s.Sentiment == model.LabelPositive

		b, ok := brandCounts[s.Keyword]
		if !ok {
			b = &model.SentimentCounts{}
			brandCounts[s.Keyword] = b
		}
		tally(b, positive)

		key := [2]string{s.Forum, s.Keyword}
		f, ok := forumCounts[key]
		if !ok {
			f = &model.SentimentCounts{}
			forumCounts[key] = f
		}
		tally(f, positive)
	}

	brands := make([]model.BrandSummary, 0, len(brandCounts))
	maxTotal := 0
	for brand, c := range brandCounts {
		finish(c)
		brands = append(brands, model.BrandSummary{Brand: brand, SentimentCounts: *c})
		maxTotal = max(maxTotal, c.Total)
	}
	for i := range brands {
		brands[i].Controversy = controversy(brands[i].SentimentCounts, maxTotal)
	}
	sort.Slice(brands, func(i, j int) bool {
		if brands[i].PositiveRatio != brands[j].PositiveRatio {
			return brands[i].PositiveRatio < brands[j].PositiveRatio
		}
		return brands[i].Brand < brands[j].Brand
	})

	forums := make([]model.ForumSummary, 0, len(forumCounts))
	forumSet := make(map[string]bool)
	for key, c := range forumCounts {
		finish(c)
		forums = append(forums, model.ForumSummary{Forum: key[0], Brand: key[1], SentimentCounts: *c})
		forumSet[key[0]] = true
	}
	sort.Slice(forums, func(i, j int) bool {
		if forums[i].Forum != forums[j].Forum {
			return forums[i].Forum < forums[j].Forum
		}
		return forums[i].Brand < forums[j].Brand
	})

	return &model.Report{
		GeneratedAt: time.Now().UTC(),
		Totals: model.Totals{
			Segments: len(scored),
			Brands:   len(brands),
			Forums:   len(forumSet),
		},
		Brands:        brands,
		Forums:        forums,
		Rankings:      Rank(forums, cfg.MinForumTotal, cfg.TopN),
		DroppedBrands: []string{},
	}
}

// Rank picks, per forum, the topN most liked and most disliked brands among
// rows with at least minTotal segments. forums must be sorted by forum.
func Rank(forums []model.ForumSummary, minTotal, topN int) []model.ForumRanking {
	if topN <= 0 {
		return nil
	}

	var rankings []model.ForumRanking
	for start := 0; start < len(forums); {
		end := start
		for end < len(forums) && forums[end].Forum == forums[start].Forum {
			end++
		}

		var eligible []model.ForumSummary
		for _, f := range forums[start:end] {
			if f.Total >= minTotal {
				eligible = append(eligible, f)
			}
		}
		if len(eligible) > 0 {
			rankings = append(rankings, model.ForumRanking{
				Forum:        forums[start].Forum,
				MostLiked:    top(eligible, topN, func(f model.ForumSummary) float64 { return f.PositiveRatio }),
				MostDisliked: top(eligible, topN, func(f model.ForumSummary) float64 { return f.NegativeRatio }),
			})
		}
		start = end
	}
	return rankings
}

// ByControversy returns a copy of brands ordered by controversy descending
func ByControversy(brands []model.BrandSummary) []model.BrandSummary {
	out := append([]model.BrandSummary(nil), brands...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Controversy != out[j].Controversy {
			return out[i].Controversy > out[j].Controversy
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

func top(rows []model.ForumSummary, n int, metric func(model.ForumSummary) float64) []model.ForumSummary {
	sorted := append([]model.ForumSummary(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := metric(sorted[i]), metric(sorted[j])
		if mi != mj {
			return mi > mj
		}
		return sorted[i].Brand < sorted[j].Brand
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func tally(c *model.SentimentCounts, positive bool) {
	if positive {
		c.Positive++
	} else {
		c.Negative++
	}
	c.Total++
}

func finish(c *model.SentimentCounts) {
	if c.Total == 0 {
		return
	}
	c.PositiveRatio = round4(float64(c.Positive) / float64(c.Total))
	c.NegativeRatio = round4(1 - c.PositiveRatio)
}

func controversy(c model.SentimentCounts, maxTotal int) float64 {
	if c.Total == 0 || maxTotal == 0 {
		return 0
	}
	share := float64(c.Negative) / float64(c.Total)
	return round4(share * (1 - float64(c.Total)/(controversyDamping*float64(maxTotal))))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
