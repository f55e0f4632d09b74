package sentiment

import (
	"context"
	"fmt"

	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/worker"
)

// DefaultBatchSize matches the chunk size the inference API handles comfortably
const DefaultBatchSize = 256

// BatchClassifier splits large inputs into fixed-size chunks and classifies
// them concurrently with a provider
type BatchClassifier struct {
	provider  Provider
	batchSize int
	workers   int
	log       logger.Logger
}

// NewBatchClassifier creates a classifier. Non-positive sizes fall back to defaults.
func NewBatchClassifier(provider Provider, batchSize, workers int, log logger.Logger) *BatchClassifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &BatchClassifier{provider: provider, batchSize: batchSize, workers: workers, log: log}
}

// Classify labels every text, preserving input order. Any failed chunk fails
// the whole call and no partial results are returned.
func (b *BatchClassifier) Classify(ctx context.Context, texts []string) ([]model.Sentiment, error) {
	if len(texts) == 0 {
		return []model.Sentiment{}, nil
	}

	chunks := Chunk(texts, b.batchSize)
	outcomes := worker.Map(ctx, b.workers, chunks, func(ctx context.Context, chunk []string) ([]model.Sentiment, error) {
		labels, err := b.provider.Classify(ctx, chunk)
		if err != nil {
			return nil, err
		}
		if len(labels) != len(chunk) {
			return nil, fmt.Errorf("%w: %s returned %d labels for %d texts", ErrBatchMismatch, b.provider.Name(), len(labels), len(chunk))
		}
		return labels, nil
	})

	out := make([]model.Sentiment, 0, len(texts))
	for i, o := range outcomes {
		if o.Err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", i+1, len(chunks), o.Err)
		}
		out = append(out, o.Value...)
		b.log.Debug("sentiment batch done",
			logger.String("provider", b.provider.Name()),
			logger.Int("batch", i+1),
			logger.Int("size", len(o.Value)),
		)
	}
	return out, nil
}

// Chunk splits items into consecutive slices of at most size elements
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
