package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/brandpulse/internal/model"
)

const (
	brandsSheet = "Brands"
	forumsSheet = "Forums"

	positiveColor = "3CB371" // mediumseagreen
	negativeColor = "FF6347" // tomato

	percentNumFmt = 10 // 0.00%
)

// RenderXLSX writes the brand and forum tables to a workbook with a
// percent-stacked bar chart of brand sentiment
func (r *Renderer) RenderXLSX(report *model.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", brandsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(forumsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: percentNumFmt})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	brandRows := [][]any{{"brand", "positive", "negative", "total", "positive_ratio", "negative_ratio", "controversy_score"}}
	for _, s := range report.Brands {
		brandRows = append(brandRows, []any{s.Brand, s.Positive, s.Negative, s.Total, s.PositiveRatio, s.NegativeRatio, s.Controversy})
	}
	if err := writeSheet(f, brandsSheet, brandRows, headerStyle, percentStyle, "E", "F"); err != nil {
		return err
	}

	forumRows := [][]any{{"subreddit", "keyword", "positive", "negative", "total", "positive_ratio", "negative_ratio"}}
	for _, s := range report.Forums {
		forumRows = append(forumRows, []any{s.Forum, s.Brand, s.Positive, s.Negative, s.Total, s.PositiveRatio, s.NegativeRatio})
	}
	if err := writeSheet(f, forumsSheet, forumRows, headerStyle, percentStyle, "F", "G"); err != nil {
		return err
	}

	if n := len(report.Brands); n > 0 {
		if err := f.AddChart(brandsSheet, "I2", brandChart(n)); err != nil {
			return fmt.Errorf("add chart: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// writeSheet writes rows starting at A1, bolds the header and applies the
// percent format to the given ratio columns
func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle, percentStyle int, ratioCols ...string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	if len(rows) > 1 {
		for _, col := range ratioCols {
			if err := f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, len(rows)), percentStyle); err != nil {
				return fmt.Errorf("style %s column %s: %w", sheet, col, err)
			}
		}
	}
	return nil
}

func brandChart(n int) *excelize.Chart {
	last := n + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", brandsSheet, last)
	return &excelize.Chart{
		Type: excelize.BarPercentStacked,
		Series: []excelize.ChartSeries{
			{
				Name:       brandsSheet + "!$B$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", brandsSheet, last),
				Fill:       excelize.Fill{Type: "pattern", Color: []string{positiveColor}, Pattern: 1},
			},
			{
				Name:       brandsSheet + "!$C$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", brandsSheet, last),
				Fill:       excelize.Fill{Type: "pattern", Color: []string{negativeColor}, Pattern: 1},
			},
		},
		Title:     []excelize.RichTextRun{{Text: "Brand sentiment"}},
		Legend:    excelize.ChartLegend{Position: "top"},
		Dimension: excelize.ChartDimension{Width: 720, Height: uint(max(320, 24*n))},
	}
}
