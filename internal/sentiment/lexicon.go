package sentiment

import (
	"context"
	"math"

	"github.com/jonreiter/govader"

	"github.com/ppiankov/brandpulse/internal/model"
)

// compound scores within this distance of zero are neutral
const vaderNeutralBand = 0.05

// LexiconProvider scores texts offline with the VADER lexicon
type LexiconProvider struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexiconProvider creates the offline provider
func NewLexiconProvider() *LexiconProvider {
	return &LexiconProvider{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (p *LexiconProvider) Name() string { return "lexicon" }

func (p *LexiconProvider) IsAvailable(ctx context.Context) bool { return true }

// Classify maps the VADER compound score onto a label. The confidence of a
// polar label is |compound|; of a neutral label, 1-|compound|.
func (p *LexiconProvider) Classify(ctx context.Context, texts []string) ([]model.Sentiment, error) {
	out := make([]model.Sentiment, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.score(t)
	}
	return out, nil
}

func (p *LexiconProvider) score(text string) model.Sentiment {
	compound := p.analyzer.PolarityScores(text).Compound
	strength := math.Abs(compound)
	switch {
	case compound >= vaderNeutralBand:
		return Normalize(model.LabelPositive, strength)
	case compound <= -vaderNeutralBand:
		return Normalize(model.LabelNegative, strength)
	default:
		return Normalize(model.LabelNeutral, 1-strength)
	}
}
