package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/brandpulse/internal/model"
)

const footer = "_Generated by brandpulse. Brands below the frequency threshold are omitted; labels other than positive count as negative._"

// Renderer writes reports in the supported output formats
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the brand, forum and ranking tables as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown returns the Markdown rendition of report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Brand sentiment report\n\n")
	if report.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	}
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Segments: %d\n", report.Totals.Segments)
	fmt.Fprintf(&b, "- Brands: %d across %d forums\n", report.Totals.Brands, report.Totals.Forums)
	if report.Totals.Coverage > 0 {
		fmt.Fprintf(&b, "- Exact brand mentions: %.2f%%\n", report.Totals.Coverage)
	}
	if len(report.DroppedBrands) > 0 {
		fmt.Fprintf(&b, "- Dropped brands: %s\n", strings.Join(report.DroppedBrands, ", "))
	} else {
		b.WriteString("- Dropped brands: none\n")
	}

	b.WriteString("\n## Brands\n\n")
	b.WriteString("| Brand | Positive | Negative | Total | Positive % | Negative % | Controversy |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
	for _, s := range report.Brands {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s | %s | %.4f |\n",
			s.Brand, s.Positive, s.Negative, s.Total,
			percent(s.PositiveRatio), percent(s.NegativeRatio), s.Controversy)
	}

	if len(report.Rankings) > 0 {
		b.WriteString("\n## Forum rankings\n")
		for _, rk := range report.Rankings {
			fmt.Fprintf(&b, "\n### r/%s\n\n", rk.Forum)
			b.WriteString("Most liked: ")
			b.WriteString(rankingLine(rk.MostLiked, func(f model.ForumSummary) float64 { return f.PositiveRatio }))
			b.WriteString("\n\nMost disliked: ")
			b.WriteString(rankingLine(rk.MostDisliked, func(f model.ForumSummary) float64 { return f.NegativeRatio }))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Forums\n\n")
	b.WriteString("| Forum | Brand | Positive | Negative | Total | Positive % |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, f := range report.Forums {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			f.Forum, f.Brand, f.Positive, f.Negative, f.Total, percent(f.PositiveRatio))
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString(footer)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a short plain-text summary
func (r *Renderer) RenderSummary(report *model.Report, w io.Writer) {
	fmt.Fprintf(w, "\nSegments: %d  Brands: %d  Forums: %d\n",
		report.Totals.Segments, report.Totals.Brands, report.Totals.Forums)
	if len(report.Brands) == 0 {
		fmt.Fprintln(w, "No brand passed the frequency threshold")
		return
	}

	least := report.Brands[0]
	most := report.Brands[len(report.Brands)-1]
	fmt.Fprintf(w, "Most liked:    %s (%s positive)\n", most.Brand, percent(most.PositiveRatio))
	fmt.Fprintf(w, "Least liked:   %s (%s positive)\n", least.Brand, percent(least.PositiveRatio))
	if c := ByControversy(report.Brands); c[0].Controversy > 0 {
		fmt.Fprintf(w, "Controversial: %s (%.4f)\n", c[0].Brand, c[0].Controversy)
	}
	if len(report.DroppedBrands) > 0 {
		fmt.Fprintf(w, "Dropped:       %s\n", strings.Join(report.DroppedBrands, ", "))
	}
}

func rankingLine(rows []model.ForumSummary, metric func(model.ForumSummary) float64) string {
	parts := make([]string, len(rows))
	for i, f := range rows {
		parts[i] = fmt.Sprintf("%s (%s)", f.Brand, percent(metric(f)))
	}
	return strings.Join(parts, ", ")
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
