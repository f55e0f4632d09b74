package ingest

import (
	"context"

	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/worker"
)

// PostLister yields the posts of one forum listing
type PostLister interface {
	PostIDs(ctx context.Context, forum, listing string) ([]model.Post, error)
}

// Source is the forum API as seen by the collector
type Source interface {
	PostLister
	worker.CommentFetcher
}

// CollectResult is the outcome of one collection run
type CollectResult struct {
	PostIDs  []string
	Comments []model.Comment
	Failed   map[string]error // post id -> fetch error
}

// Collector gathers comments from every configured forum and listing
type Collector struct {
	source   Source
	forums   []string
	listings []string
	workers  int
	log      logger.Logger
}

// NewCollector creates a collector over forums x listings
func NewCollector(source Source, forums, listings []string, workers int, log logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Collector{
		source:   source,
		forums:   forums,
		listings: listings,
		workers:  workers,
		log:      log,
	}
}

// Collect lists posts, de-duplicates their ids in first-seen order and
// fetches the comments of each. Failed posts are recorded in the result.
func (c *Collector) Collect(ctx context.Context) (*CollectResult, error) {
	var ids []string
	for _, forum := range c.forums {
		for _, l := range c.listings {
			posts, err := c.source.PostIDs(ctx, forum, l)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.log.Warn("listing failed", logger.String("forum", forum), logger.String("listing", l), logger.Error(err))
			}
			for _, p := range posts {
				ids = append(ids, p.ID)
			}
			c.log.Info("listing collected",
				logger.String("forum", forum),
				logger.String("listing", l),
				logger.Int("posts", len(posts)),
			)
		}
	}

	ids = worker.Dedupe(ids)
	res, err := c.CollectPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CollectPosts fetches the comments of the given post ids
func (c *Collector) CollectPosts(ctx context.Context, ids []string) (*CollectResult, error) {
	res := &CollectResult{PostIDs: ids, Failed: make(map[string]error)}

	processor := worker.NewBatchProcessor(c.source, c.workers)
	for _, r := range processor.ProcessPostIDs(ctx, ids) {
		if r.Error != nil {
			res.Failed[r.PostID] = r.Error
			c.log.Warn("post comments failed", logger.String("post_id", r.PostID), logger.Error(r.Error))
			continue
		}
		res.Comments = append(res.Comments, r.Comments...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.log.Info("comments collected",
		logger.Int("posts", len(ids)),
		logger.Int("failed", len(res.Failed)),
		logger.Int("comments", len(res.Comments)),
	)
	return res, nil
}
