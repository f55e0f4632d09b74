package sentiment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/brandpulse/internal/cache"
	"github.com/ppiankov/brandpulse/internal/model"
)

// CachedProvider remembers labels per (provider, model, text) so reruns only
// send new spans to the service
type CachedProvider struct {
	inner Provider
	model string
	cache cache.Cache
}

// NewCachedProvider wraps inner with c
func NewCachedProvider(inner Provider, modelName string, c cache.Cache) *CachedProvider {
	return &CachedProvider{inner: inner, model: modelName, cache: c}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) IsAvailable(ctx context.Context) bool { return p.inner.IsAvailable(ctx) }

func (p *CachedProvider) Classify(ctx context.Context, texts []string) ([]model.Sentiment, error) {
	out := make([]model.Sentiment, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		if raw, ok := p.cache.Get(p.key(t)); ok {
			var s model.Sentiment
			if json.Unmarshal(raw, &s) == nil {
				out[i] = s
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	labels, err := p.inner.Classify(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(missTexts) {
		return nil, fmt.Errorf("%w: %s returned %d labels for %d texts", ErrBatchMismatch, p.inner.Name(), len(labels), len(missTexts))
	}

	for j, s := range labels {
		out[missIdx[j]] = s
		if raw, err := json.Marshal(s); err == nil {
			_ = p.cache.Set(p.key(missTexts[j]), raw, 0)
		}
	}
	return out, nil
}

func (p *CachedProvider) key(text string) string {
	return cache.Key("sentiment", p.inner.Name(), p.model, text)
}
