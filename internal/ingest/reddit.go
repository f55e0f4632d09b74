package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
)

// JSONFetcher retrieves and decodes one JSON document
type JSONFetcher interface {
	FetchJSON(ctx context.Context, rawURL string, v any) error
}

// listing is the envelope of every forum API collection
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID      string  `json:"id"`
	Created float64 `json:"created"`
}

type commentData struct {
	Subreddit string  `json:"subreddit"`
	Body      *string `json:"body"`
}

// Client reads post listings and comment threads
type Client struct {
	fetcher  JSONFetcher
	baseURL  string
	pages    int
	pageSize int
	since    time.Time
	log      logger.Logger
}

// NewClient creates a client for cfg.BaseURL
func NewClient(fetcher JSONFetcher, cfg model.IngestConfig, log logger.Logger) (*Client, error) {
	since, err := cfg.SinceTime()
	if err != nil {
		return nil, fmt.Errorf("parse since: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	pages := cfg.Pages
	if pages <= 0 {
		pages = 1
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return &Client{
		fetcher:  fetcher,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pages:    pages,
		pageSize: pageSize,
		since:    since,
		log:      log,
	}, nil
}

// ListingURL builds the URL of one listing page. The "top" listing is
// requested over the past year.
func (c *Client) ListingURL(forum, listingName, after string) string {
	path := c.baseURL + "/r/" + url.PathEscape(forum) + "/" + url.PathEscape(listingName) + ".json"
	if listingName == "top" {
		path = c.baseURL + "/r/" + url.PathEscape(forum) + "/top/.json"
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("t", "year")
	if after != "" {
		q.Set("after", after)
	}
	return path + "?" + q.Encode()
}

// CommentsURL builds the URL of a post's comment thread
func (c *Client) CommentsURL(postID string) string {
	return c.baseURL + "/comments/" + url.PathEscape(postID) + ".json"
}

// PostIDs pages through one listing following the after cursor. Posts created
// before the configured cutoff are skipped. A failed page is logged and uses
// up its round; the next round retries from the same cursor.
func (c *Client) PostIDs(ctx context.Context, forum, listingName string) ([]model.Post, error) {
	var posts []model.Post
	after := ""
	cutoff := float64(c.since.Unix())
	if c.since.IsZero() {
		cutoff = 0
	}

	for page := 0; page < c.pages; page++ {
		if err := ctx.Err(); err != nil {
			return posts, err
		}

		pageURL := c.ListingURL(forum, listingName, after)
		var l listing
		if err := c.fetcher.FetchJSON(ctx, pageURL, &l); err != nil {
			c.log.Warn("listing page failed",
				logger.String("forum", forum),
				logger.String("listing", listingName),
				logger.Int("page", page),
				logger.Error(err),
			)
			continue
		}

		for _, child := range l.Data.Children {
			var p postData
			if err := json.Unmarshal(child.Data, &p); err != nil || p.ID == "" {
				continue
			}
			if p.Created < cutoff {
				continue
			}
			posts = append(posts, model.Post{ID: p.ID, Created: p.Created})
		}

		c.log.Debug("listing page fetched",
			logger.String("forum", forum),
			logger.String("listing", listingName),
			logger.Int("page", page),
			logger.Int("children", len(l.Data.Children)),
		)

		if l.Data.After == "" {
			break
		}
		after = l.Data.After
	}

	return posts, nil
}

// Comments returns the top-level comments of a post. Replies, "more"
// placeholders and malformed children are ignored.
func (c *Client) Comments(ctx context.Context, postID string) ([]model.Comment, error) {
	var thread []listing
	if err := c.fetcher.FetchJSON(ctx, c.CommentsURL(postID), &thread); err != nil {
		return nil, fmt.Errorf("comments %s: %w", postID, err)
	}
	if len(thread) < 2 {
		return nil, fmt.Errorf("comments %s: expected post and comment listings, got %d", postID, len(thread))
	}

	var comments []model.Comment
	for _, child := range thread[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		body := ""
		if d.Body != nil {
			body = *d.Body
		}
		comments = append(comments, model.Comment{Forum: d.Subreddit, Body: body})
	}
	return comments, nil
}
