package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/brandpulse/internal/cache"
	"github.com/ppiankov/brandpulse/internal/ingest"
	"github.com/ppiankov/brandpulse/internal/logger"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/store"
	"github.com/ppiankov/brandpulse/internal/worker"
)

var (
	fetchOut     string
	fetchIDsOut  string
	fetchIDsFile string
	fetchTimeout time.Duration
	noCache      bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch forum comments",
	Long: `Fetch lists the configured forums and listings, de-duplicates the post ids
and downloads the top-level comments of every post.

Requests are paced per host, robots.txt is honoured when ingest.respect_robots
is set, and responses are cached on disk so an interrupted fetch can resume.

Example:
  brandpulse fetch --out data/comments.ndjson
  brandpulse fetch --forums cycling,RoadBikes --listings new --since 2024-06-01
  brandpulse fetch --ids data/posts.txt --out data/comments.ndjson`,
	Args: cobra.NoArgs,
	PreRunE: bindPreRun(map[string]string{
		"forums":   "ingest.forums",
		"listings": "ingest.listings",
		"since":    "ingest.since",
		"rps":      "ingest.requests_per_second",
		"workers":  "ingest.workers",
	}),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchOut, "out", "comments.ndjson", "output comments path")
	fetchCmd.Flags().StringVar(&fetchIDsOut, "ids-out", "", "write collected post ids to this path (optional)")
	fetchCmd.Flags().StringVar(&fetchIDsFile, "ids", "", "fetch comments of the post ids in this file instead of listing forums")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 6*time.Hour, "overall fetch timeout")
	fetchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")

	fetchCmd.Flags().StringSlice("forums", nil, "forums to list (default from config)")
	fetchCmd.Flags().StringSlice("listings", nil, "listings per forum: hot, new, top")
	fetchCmd.Flags().String("since", "", "ignore posts created before this date (YYYY-MM-DD)")
	fetchCmd.Flags().Float64("rps", 0.5, "requests per second per host")
	fetchCmd.Flags().Int("workers", 2, "concurrent comment fetches")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	collector, err := newCollector(cfg, log)
	if err != nil {
		return err
	}

	var result *ingest.CollectResult
	if fetchIDsFile != "" {
		ids, err := worker.ReadIDsFromFile(fetchIDsFile)
		if err != nil {
			return err
		}
		step("Fetching comments of %d posts...", len(ids))
		result, err = collector.CollectPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
	} else {
		step("Listing %s x %s...", strings.Join(cfg.Ingest.Forums, ","), strings.Join(cfg.Ingest.Listings, ","))
		result, err = collector.Collect(ctx)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
	}

	if err := store.Write(fetchOut, result.Comments); err != nil {
		return err
	}
	success("Wrote %d comments from %d posts: %s", len(result.Comments), len(result.PostIDs), fetchOut)

	if fetchIDsOut != "" {
		if err := writeLines(fetchIDsOut, result.PostIDs); err != nil {
			return err
		}
		success("Wrote %d post ids: %s", len(result.PostIDs), fetchIDsOut)
	}

	if n := len(result.Failed); n > 0 {
		if verbose {
			for id, ferr := range result.Failed {
				failure("%s: %v", id, ferr)
			}
		}
		warning("%d posts failed, rerun with --ids to retry them", n)
	}
	return nil
}

func newCollector(cfg *model.Config, log logger.Logger) (*ingest.Collector, error) {
	cacheCfg := cfg.Cache
	if noCache {
		cacheCfg.Enabled = false
	}

	fetcher := ingest.NewFetcher(cfg.Ingest, cache.New(cacheCfg), log)
	client, err := ingest.NewClient(fetcher, cfg.Ingest, log)
	if err != nil {
		return nil, err
	}
	return ingest.NewCollector(client, cfg.Ingest.Forums, cfg.Ingest.Listings, cfg.Ingest.Workers, log), nil
}

func writeLines(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
