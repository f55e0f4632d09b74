package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/pipeline"
	"github.com/ppiankov/brandpulse/internal/store"
)

var (
	runOutputDir string
	runWithFetch bool
	runTimeout   time.Duration
	runOutputs   outputPaths
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [comments.ndjson]...",
	Short: "Run every stage and write the report",
	Long: `Run prepares, segments, labels and aggregates comments in one go and keeps
every intermediate file in the output directory.

Comments are read from the given files; with --fetch they are fetched first
and the fetched comments are appended to the inputs.

Example:
  brandpulse run data/comments.ndjson --output-dir out
  brandpulse run --fetch --output-dir out --xlsx out/report.xlsx`,
	PreRunE: bindPreRun(merge(matchingFlags, sentimentFlags)),
	RunE:    runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "./brandpulse-out", "directory for intermediate files")
	runCmd.Flags().BoolVar(&runWithFetch, "fetch", false, "fetch comments before running")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 12*time.Hour, "overall timeout")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response and label caches")
	addMatchingFlags(runCmd)
	addSentimentFlags(runCmd)
	runOutputs.register(runCmd, "")
}

func runRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !runWithFetch {
		return fmt.Errorf("no input: pass comment files or --fetch")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	out := func(name string) string { return filepath.Join(runOutputDir, name) }

	comments, err := store.ReadComments(args...)
	if err != nil {
		return err
	}
	if comments.Skipped > 0 {
		warning("Skipped %d malformed lines", comments.Skipped)
	}

	if runWithFetch {
		collector, err := newCollector(cfg, log)
		if err != nil {
			return err
		}
		step("Fetching comments...")
		fetched, err := collector.Collect(ctx)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		if err := store.Write(out("comments.ndjson"), fetched.Comments); err != nil {
			return err
		}
		success("Fetched %d comments from %d posts", len(fetched.Comments), len(fetched.PostIDs))
		if n := len(fetched.Failed); n > 0 {
			warning("%d posts failed", n)
		}
		comments.Items = append(comments.Items, fetched.Comments...)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	step("Running pipeline on %d comments with %s...", len(comments.Items), provider.Name())
	result, err := pipeline.NewPipeline(cfg, log, provider).Run(ctx, comments.Items)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := writeIntermediates(out, result); err != nil {
		return err
	}
	success("Run %s: %d records, %d segments, %d confident", result.RunID,
		len(result.Prepared.Records), len(result.Segments), len(result.Filtered.Kept))
	printDropped(result.Report.DroppedBrands)

	if runOutputs.json == "" {
		runOutputs.json = out("report.json")
	}
	return runOutputs.render(result.Report, cfg.Report.IncludeFooter)
}

func writeIntermediates(out func(string) string, result *pipeline.RunResult) error {
	if err := store.Write(out("records.ndjson"), result.Prepared.Records); err != nil {
		return err
	}
	if err := store.Write(out("segments.ndjson"), result.Segments); err != nil {
		return err
	}
	if err := store.Write(out("scored.ndjson"), result.Scored); err != nil {
		return err
	}
	return store.Write[model.ScoredSegment](out("filtered.ndjson"), result.Filtered.Kept)
}
