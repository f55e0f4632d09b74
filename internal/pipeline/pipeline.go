// Package pipeline wires the brand sentiment stages together.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/brandpulse/internal/extract"
	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/normalize"
	"github.com/ppiankov/brandpulse/internal/report"
	"github.com/ppiankov/brandpulse/internal/segment"
	"github.com/ppiankov/brandpulse/internal/sentiment"
)

// Pipeline orchestrates preparation, segmentation, scoring and aggregation
type Pipeline struct {
	matcher    *extract.Matcher
	segmenter  *segment.Segmenter
	classifier *sentiment.BatchClassifier // nil when no provider is configured
	config     *model.Config
	log        logger.Logger
}

// NewPipeline creates a pipeline. provider may be nil for runs that stop
// before the sentiment stage.
func NewPipeline(cfg *model.Config, log logger.Logger, provider sentiment.Provider) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}

	var classifier *sentiment.BatchClassifier
	if provider != nil {
		classifier = sentiment.NewBatchClassifier(provider, cfg.Sentiment.BatchSize, cfg.Sentiment.Workers, log)
	}

	return &Pipeline{
		matcher:    extract.NewMatcher(cfg.Matching.Threshold),
		segmenter:  segment.NewSegmenter(nil),
		classifier: classifier,
		config:     cfg,
		log:        log,
	}
}

// PrepareResult is the output of Prepare
type PrepareResult struct {
	Records  []model.MatchRecord
	Dropped  []string       // Brands under the frequency threshold; never nil
	Counts   map[string]int // Records per brand before the frequency filter
	Coverage float64        // Percentage of kept records with an exact brand token
}

// Prepare normalizes comments, attributes them to brands and applies the
// case and frequency filters
func (p *Pipeline) Prepare(comments []model.Comment) PrepareResult {
	keywords := p.config.Brands.Keywords

	var records []model.MatchRecord
	for _, c := range comments {
		text := normalize.Text(c.Body)
		records = append(records, p.matcher.Match(c.Forum, text, keywords)...)
	}
	matched := len(records)

	records = extract.FilterLowercase(records, p.config.Brands.NoLowercase)
	freq := extract.FilterRecordsByFrequency(records, p.config.Matching.MinOccurrences)
	p.log.Info("dropped brands",
		logger.String("stage", "prepare"),
		logger.Strings("brands", freq.Dropped),
	)

	kept := extract.MarkMultiple(freq.Kept)
	coverage := extract.ExactMentionShare(kept, keywords)

	p.log.Info("prepared comments",
		logger.Int("comments", len(comments)),
		logger.Int("matched", matched),
		logger.Int("kept", len(kept)),
		logger.Float64("coverage", coverage),
	)

	return PrepareResult{
		Records:  kept,
		Dropped:  freq.Dropped,
		Counts:   freq.Counts,
		Coverage: coverage,
	}
}

// Segment splits multi-brand comments into brand-attributed spans
func (p *Pipeline) Segment(records []model.MatchRecord) []model.Segment {
	segments := p.segmenter.Segment(records)
	p.log.Info("segmented records",
		logger.Int("records", len(records)),
		logger.Int("segments", len(segments)),
	)
	return segments
}

// Score labels every segment. A failed batch fails the whole call.
func (p *Pipeline) Score(ctx context.Context, segments []model.Segment) ([]model.ScoredSegment, error) {
	if p.classifier == nil {
		return nil, fmt.Errorf("score: %w: no sentiment provider configured", sentiment.ErrUnavailable)
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}

	start := time.Now()
	labels, err := p.classifier.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	scored := make([]model.ScoredSegment, len(segments))
	for i, s := range segments {
		scored[i] = model.ScoredSegment{Segment: s, Sentiment: labels[i].Label, Score: labels[i].Score}
	}

	p.log.Info("scored segments",
		logger.Int("segments", len(scored)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return scored, nil
}

// SentimentFilterResult is the output of FilterSentiment
type SentimentFilterResult struct {
	Kept    []model.ScoredSegment
	Dropped []string // Brands under the frequency threshold after confidence filtering; never nil
}

// FilterSentiment keeps confident, non-excluded labels and re-applies the
// brand frequency threshold
func (p *Pipeline) FilterSentiment(scored []model.ScoredSegment) SentimentFilterResult {
	minConfidence := p.config.Sentiment.MinConfidence
	excluded := p.config.Sentiment.ExcludedLabels

	confident := make([]model.ScoredSegment, 0, len(scored))
	for _, s := range scored {
		if s.Score < minConfidence || slices.Contains(excluded, s.Sentiment) {
			continue
		}
		confident = append(confident, s)
	}

	freq := extract.FilterByFrequency(confident,
		func(s model.ScoredSegment) string { return s.Keyword },
		p.config.Matching.MinOccurrences,
	)
	p.log.Info("dropped brands",
		logger.String("stage", "sentiment"),
		logger.Strings("brands", freq.Dropped),
	)

	return SentimentFilterResult{Kept: freq.Kept, Dropped: freq.Dropped}
}

// RunResult contains every intermediate product of a full run
type RunResult struct {
	RunID    string
	Prepared PrepareResult
	Segments []model.Segment
	Scored   []model.ScoredSegment
	Filtered SentimentFilterResult
	Report   *model.Report
}

// Run executes every stage on comments and builds the report
func (p *Pipeline) Run(ctx context.Context, comments []model.Comment) (*RunResult, error) {
	runID := uuid.NewString()
	log := p.log.With(logger.String("run_id", runID))
	stage := p.withLogger(log)

	// 1. Normalize, match and filter
	prepared := stage.Prepare(comments)

	// 2. Segment multi-brand comments
	segments := stage.Segment(prepared.Records)

	// 3. Classify sentiment
	scored, err := stage.Score(ctx, segments)
	if err != nil {
		return nil, err
	}

	// 4. Confidence and frequency filter
	filtered := stage.FilterSentiment(scored)

	// 5. Aggregate
	rep := report.Build(filtered.Kept, p.config.Report)
	rep.RunID = runID
	rep.Totals.Coverage = prepared.Coverage
	rep.DroppedBrands = mergeDropped(prepared.Dropped, filtered.Dropped)

	log.Info("run complete",
		logger.Int("segments", rep.Totals.Segments),
		logger.Int("brands", rep.Totals.Brands),
	)

	return &RunResult{
		RunID:    runID,
		Prepared: prepared,
		Segments: segments,
		Scored:   scored,
		Filtered: filtered,
		Report:   rep,
	}, nil
}

func (p *Pipeline) withLogger(log logger.Logger) *Pipeline {
	cp := *p
	cp.log = log
	return &cp
}

// mergeDropped concatenates dropped brand lists without duplicates, keeping
// first-seen order
func mergeDropped(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, b := range list {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}
