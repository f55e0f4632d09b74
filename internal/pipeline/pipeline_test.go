package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/sentiment"
)

var testBrands = []string{
	"Bianchi", "BMC", "Cannondale", "Canyon", "Cervelo", "Cinelli", "Colnago",
	"Cube", "Giant", "Merida", "Orbea", "Pinarello", "Ridley", "Rose", "Scott",
	"Specialized", "Trek", "Wilier", "Focus", "Ventum",
}

// fixedProvider labels every text with the same sentiment
type fixedProvider struct {
	label string
	score float64
	err   error
}

func (p fixedProvider) Name() string                         { return "fixed" }
func (p fixedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p fixedProvider) Classify(ctx context.Context, texts []string) ([]model.Sentiment, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]model.Sentiment, len(texts))
	for i := range out {
		out[i] = model.Sentiment{Label: p.label, Score: p.score}
	}
	return out, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Brands.Keywords = testBrands
	cfg.Sentiment.BatchSize = 64
	cfg.Sentiment.Workers = 4
	return cfg
}

// syntheticComments builds 995 two-brand comments cycling through the first
// 19 brands plus 5 comments naming only Ventum
func syntheticComments() []model.Comment {
	common := testBrands[:19]
	comments := make([]model.Comment, 0, 1000)
	for i := 0; i < 995; i++ {
		a := common[i%len(common)]
		b := common[(i+1)%len(common)]
		comments = append(comments, model.Comment{
			Forum: fmt.Sprintf("forum%d", i%3),
			Body:  fmt.Sprintf("I ride a %s every day. My friend prefers %s for climbing.", a, b),
		})
	}
	for i := 0; i < 5; i++ {
		comments = append(comments, model.Comment{Forum: "forum0", Body: "The Ventum looks fast."})
	}
	return comments
}

func TestPipeline_EndToEnd(t *testing.T) {
	comments := syntheticComments()
	p := NewPipeline(testConfig(), nil, fixedProvider{label: model.LabelPositive, score: 0.9})

	result, err := p.Run(context.Background(), comments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Prepared.Dropped) != 1 || result.Prepared.Dropped[0] != "Ventum" {
		t.Errorf("expected [Ventum] dropped, got %v", result.Prepared.Dropped)
	}

	keywords := make(map[string]bool)
	for _, s := range result.Filtered.Kept {
		keywords[s.Keyword] = true
	}
	if len(keywords) != 19 {
		t.Errorf("expected 19 distinct keywords, got %d", len(keywords))
	}
	if keywords["Ventum"] {
		t.Error("expected Ventum to be dropped")
	}

	sources := make(map[string]bool)
	for _, r := range result.Prepared.Records {
		sources[r.Comment] = true
	}
	for _, s := range result.Segments {
		found := false
		for src := range sources {
			if len(s.Text) < len(src) && strings.Contains(src, s.Text) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("segment %q is not a strict substring of any source comment", s.Text)
		}
	}

	if result.Report == nil {
		t.Fatal("expected report")
	}
	if result.Report.RunID == "" || result.Report.RunID != result.RunID {
		t.Errorf("expected report run id %q, got %q", result.RunID, result.Report.RunID)
	}
	if len(result.Report.Brands) != 19 {
		t.Errorf("expected 19 brand rows, got %d", len(result.Report.Brands))
	}
	if len(result.Report.DroppedBrands) != 1 || result.Report.DroppedBrands[0] != "Ventum" {
		t.Errorf("expected [Ventum] in report dropped brands, got %v", result.Report.DroppedBrands)
	}
}

func TestPipeline_RunIdempotent(t *testing.T) {
	comments := syntheticComments()
	p := NewPipeline(testConfig(), nil, fixedProvider{label: model.LabelPositive, score: 0.9})

	first := p.Segment(p.Prepare(comments).Records)
	second := p.Segment(p.Prepare(comments).Records)

	if len(first) != len(second) {
		t.Fatalf("expected same segment count, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("segment %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPipeline_PrepareNormalizesAndFilters(t *testing.T) {
	cfg := testConfig()
	cfg.Brands.Keywords = []string{"Trek", "Giant"}
	cfg.Brands.NoLowercase = []string{"Giant"}
	cfg.Matching.MinOccurrences = 1
	p := NewPipeline(cfg, nil, nil)

	result := p.Prepare([]model.Comment{
		{Forum: "cycling", Body: "My Trek\\nis great https://example.com/x"},
		{Forum: "cycling", Body: "that hill was a giant pain"},
		{Forum: "cycling", Body: ""},
	})

	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(result.Records), result.Records)
	}
	r := result.Records[0]
	if r.Keyword != "Trek" {
		t.Errorf("expected Trek, got %s", r.Keyword)
	}
	if strings.Contains(r.Comment, "http") || strings.Contains(r.Comment, "\\n") {
		t.Errorf("expected normalized comment, got %q", r.Comment)
	}
	if result.Dropped == nil || len(result.Dropped) != 0 {
		t.Errorf("expected empty non-nil dropped list, got %v", result.Dropped)
	}
	if result.Coverage != 100 {
		t.Errorf("expected coverage 100, got %.2f", result.Coverage)
	}
}

func TestPipeline_ScoreWithoutProvider(t *testing.T) {
	p := NewPipeline(testConfig(), nil, nil)
	_, err := p.Score(context.Background(), []model.Segment{{Keyword: "Trek", Text: "nice"}})
	if !errors.Is(err, sentiment.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestPipeline_ScoreFailsWholeBatch(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(testConfig(), nil, fixedProvider{err: boom})

	scored, err := p.Score(context.Background(), []model.Segment{{Keyword: "Trek", Text: "nice"}})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
	if scored != nil {
		t.Errorf("expected no partial results, got %d", len(scored))
	}
}

func TestPipeline_ScoreAttachesLabels(t *testing.T) {
	p := NewPipeline(testConfig(), nil, fixedProvider{label: model.LabelNegative, score: 0.7})
	segments := []model.Segment{{Keyword: "Trek", Text: "bad"}, {Keyword: "Giant", Text: "worse"}}

	scored, err := p.Score(context.Background(), segments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored segments, got %d", len(scored))
	}
	if scored[1].Keyword != "Giant" || scored[1].Sentiment != model.LabelNegative || scored[1].Score != 0.7 {
		t.Errorf("unexpected scored segment: %+v", scored[1])
	}
}

func TestPipeline_FilterSentiment(t *testing.T) {
	cfg := testConfig()
	cfg.Matching.MinOccurrences = 2
	p := NewPipeline(cfg, nil, nil)

	scored := []model.ScoredSegment{
		{Segment: model.Segment{Keyword: "Trek"}, Sentiment: model.LabelPositive, Score: 0.9},
		{Segment: model.Segment{Keyword: "Trek"}, Sentiment: model.LabelNegative, Score: 0.5},
		{Segment: model.Segment{Keyword: "Trek"}, Sentiment: model.LabelNegative, Score: 0.49},
		{Segment: model.Segment{Keyword: "Giant"}, Sentiment: model.LabelPositive, Score: 0.8},
		{Segment: model.Segment{Keyword: "Giant"}, Sentiment: model.LabelNeutral, Score: 0.99},
	}

	result := p.FilterSentiment(scored)
	if len(result.Kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(result.Kept))
	}
	for _, s := range result.Kept {
		if s.Keyword != "Trek" {
			t.Errorf("expected only Trek to survive, got %s", s.Keyword)
		}
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "Giant" {
		t.Errorf("expected [Giant] dropped, got %v", result.Dropped)
	}
}

func TestMergeDropped(t *testing.T) {
	got := mergeDropped([]string{"A", "B"}, []string{"B", "C"}, nil)
	want := []string{"A", "B", "C"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
	if empty := mergeDropped(nil, nil); empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
