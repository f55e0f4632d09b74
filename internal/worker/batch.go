package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/brandpulse/internal/model"
)

// CommentFetcher loads the top-level comments of one post
type CommentFetcher interface {
	Comments(ctx context.Context, postID string) ([]model.Comment, error)
}

// CommentResult is the outcome of fetching one post
type CommentResult struct {
	PostID   string
	Comments []model.Comment
	Error    error
}

// BatchProcessor fetches comments for many posts concurrently
type BatchProcessor struct {
	fetcher     CommentFetcher
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(fetcher CommentFetcher, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// ProcessPostIDs fetches every post; results follow the order of ids
func (b *BatchProcessor) ProcessPostIDs(ctx context.Context, ids []string) []CommentResult {
	outcomes := Map(ctx, b.concurrency, ids, b.fetcher.Comments)

	results := make([]CommentResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = CommentResult{PostID: ids[i], Comments: o.Value, Error: o.Err}
	}
	return results
}

// ProcessFile reads post ids from a file and fetches them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]CommentResult, error) {
	ids, err := ReadIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read post ids: %w", err)
	}
	return b.ProcessPostIDs(ctx, ids), nil
}

// ReadIDsFromFile reads one id per line, skipping blanks and # comments.
// Duplicates keep their first position.
func ReadIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return ids, nil
}

// Dedupe returns ids without duplicates, keeping first-seen order
func Dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
