package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/brandpulse/internal/cache"
	"github.com/ppiankov/brandpulse/internal/model"
	"github.com/ppiankov/brandpulse/internal/pipeline"
	"github.com/ppiankov/brandpulse/internal/report"
	"github.com/ppiankov/brandpulse/internal/sentiment"
	"github.com/ppiankov/brandpulse/internal/store"
)

var (
	prepareOut       string
	segmentOut       string
	sentimentOut     string
	sentimentKeptOut string
	reportOutputs    outputPaths
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <comments.ndjson>...",
	Short: "Normalize comments and attribute them to brands",
	Long: `Prepare normalizes every comment, finds the configured brands with fuzzy
matching, drops lowercase false positives and brands below the frequency
threshold, and flags comments that name several brands.

Several input files are concatenated in order, so archived dumps and fresh
fetches can be combined.

Example:
  brandpulse prepare data/archive.ndjson data/comments.ndjson --out data/records.ndjson`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindPreRun(matchingFlags),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		comments, err := store.ReadComments(args...)
		if err != nil {
			return err
		}
		if comments.Skipped > 0 {
			warning("Skipped %d malformed lines", comments.Skipped)
		}

		prepared := pipeline.NewPipeline(cfg, log, nil).Prepare(comments.Items)
		if err := store.Write(prepareOut, prepared.Records); err != nil {
			return err
		}

		success("Wrote %d records from %d comments: %s", len(prepared.Records), len(comments.Items), prepareOut)
		printDropped(prepared.Dropped)
		fmt.Fprintf(os.Stderr, "  Exact brand mentions: %.2f%%\n", prepared.Coverage)
		return nil
	},
}

var segmentCmd = &cobra.Command{
	Use:   "segment <records.ndjson>",
	Short: "Split multi-brand comments into brand segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		records, err := store.Read[model.MatchRecord](args[0])
		if err != nil {
			return err
		}

		segments := pipeline.NewPipeline(cfg, log, nil).Segment(records.Items)
		if err := store.Write(segmentOut, segments); err != nil {
			return err
		}
		success("Wrote %d segments from %d records: %s", len(segments), len(records.Items), segmentOut)
		return nil
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <segments.ndjson>",
	Short: "Label segment sentiment",
	Long: `Sentiment labels every segment with the configured provider, then keeps
confident, non-neutral labels and re-applies the brand frequency threshold.

Example:
  brandpulse sentiment data/segments.ndjson
  brandpulse sentiment data/segments.ndjson --provider huggingface
  brandpulse sentiment data/segments.ndjson --provider openai --model gpt-4o-mini`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindPreRun(merge(sentimentFlags, map[string]string{"min-occurrences": "matching.min_occurrences"})),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		segments, err := store.Read[model.Segment](args[0])
		if err != nil {
			return err
		}

		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}
		step("Classifying %d segments with %s...", len(segments.Items), provider.Name())

		p := pipeline.NewPipeline(cfg, log, provider)
		scored, err := p.Score(cmd.Context(), segments.Items)
		if err != nil {
			return err
		}
		if err := store.Write(sentimentOut, scored); err != nil {
			return err
		}
		success("Wrote %d scored segments: %s", len(scored), sentimentOut)

		filtered := p.FilterSentiment(scored)
		if err := store.Write(sentimentKeptOut, filtered.Kept); err != nil {
			return err
		}
		success("Wrote %d confident segments: %s", len(filtered.Kept), sentimentKeptOut)
		printDropped(filtered.Dropped)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <filtered.ndjson>",
	Short: "Aggregate labelled segments per brand and forum",
	Long: `Report builds the brand table, the forum x brand table and the most liked
and disliked brands of every forum.

Example:
  brandpulse report data/filtered.ndjson --md report.md --xlsx report.xlsx`,
	Args: cobra.ExactArgs(1),
	PreRunE: bindPreRun(map[string]string{
		"min-forum-total": "report.min_forum_total",
		"top":             "report.top_n",
	}),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		scored, err := store.Read[model.ScoredSegment](args[0])
		if err != nil {
			return err
		}

		rep := report.Build(scored.Items, cfg.Report)
		return reportOutputs.render(rep, cfg.Report.IncludeFooter)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd, segmentCmd, sentimentCmd, reportCmd)

	prepareCmd.Flags().StringVar(&prepareOut, "out", "records.ndjson", "output records path")
	addMatchingFlags(prepareCmd)

	segmentCmd.Flags().StringVar(&segmentOut, "out", "segments.ndjson", "output segments path")

	sentimentCmd.Flags().StringVar(&sentimentOut, "out", "scored.ndjson", "output path for every labelled segment")
	sentimentCmd.Flags().StringVar(&sentimentKeptOut, "filtered-out", "filtered.ndjson", "output path for confident segments")
	sentimentCmd.Flags().Int("min-occurrences", 100, "drop brands with fewer confident segments")
	sentimentCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the label cache")
	addSentimentFlags(sentimentCmd)

	reportOutputs.register(reportCmd, "report.json")
	reportCmd.Flags().Int("min-forum-total", 100, "minimum segments for a forum ranking row")
	reportCmd.Flags().Int("top", 3, "brands per forum ranking")
}

// outputPaths are the report destinations selected by flags
type outputPaths struct {
	json    string
	md      string
	xlsx    string
	noTable bool
	noFoot  bool
}

func (o *outputPaths) register(cmd *cobra.Command, defaultJSON string) {
	cmd.Flags().StringVar(&o.json, "json", defaultJSON, "output JSON path")
	cmd.Flags().StringVar(&o.md, "md", "", "output Markdown path (optional)")
	cmd.Flags().StringVar(&o.xlsx, "xlsx", "", "output workbook path (optional)")
	cmd.Flags().BoolVar(&o.noTable, "no-table", false, "do not print tables to stdout")
	cmd.Flags().BoolVar(&o.noFoot, "no-footer", false, "disable footer in Markdown reports")
}

func (o *outputPaths) render(rep *model.Report, includeFooter bool) error {
	renderer := report.NewRenderer(includeFooter && !o.noFoot)

	if o.json != "" {
		if err := renderer.RenderJSON(rep, o.json); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		success("Wrote JSON: %s", o.json)
	}
	if o.md != "" {
		if err := renderer.RenderMarkdown(rep, o.md); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		success("Wrote Markdown: %s", o.md)
	}
	if o.xlsx != "" {
		if err := renderer.RenderXLSX(rep, o.xlsx); err != nil {
			return fmt.Errorf("render workbook: %w", err)
		}
		success("Wrote workbook: %s", o.xlsx)
	}

	if !o.noTable {
		renderer.RenderTables(rep, os.Stdout)
	}
	renderer.RenderSummary(rep, os.Stdout)
	return nil
}

// newProvider builds the configured sentiment provider. Remote providers are
// wrapped with the response cache.
func newProvider(cfg *model.Config) (sentiment.Provider, error) {
	provider, err := sentiment.NewProvider(sentiment.ConfigFromModel(cfg))
	if err != nil {
		return nil, err
	}
	if _, offline := provider.(*sentiment.LexiconProvider); offline || !cfg.Cache.Enabled || noCache {
		return provider, nil
	}
	return sentiment.NewCachedProvider(provider, cfg.Sentiment.Model, cache.New(cfg.Cache)), nil
}

func printDropped(dropped []string) {
	if len(dropped) == 0 {
		fmt.Fprintln(os.Stderr, "  Dropped brands: none")
		return
	}
	fmt.Fprintf(os.Stderr, "  Dropped brands: %s\n", strings.Join(dropped, ", "))
}
