package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ppiankov/brandpulse/internal/model"
)

// RenderTables prints the brand table and the per-forum rankings
func (r *Renderer) RenderTables(report *model.Report, w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Brand sentiment")
	t.AppendHeader(table.Row{"Brand", "Positive", "Negative", "Total", "Positive %", "Negative %", "Controversy"})
	for _, s := range report.Brands {
		t.AppendRow(table.Row{
			s.Brand, s.Positive, s.Negative, s.Total,
			percent(s.PositiveRatio), percent(s.NegativeRatio), fmt.Sprintf("%.4f", s.Controversy),
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", report.Totals.Segments})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()

	if len(report.Rankings) == 0 {
		return
	}

	rt := table.NewWriter()
	rt.SetOutputMirror(w)
	rt.SetStyle(table.StyleLight)
	rt.SetTitle("Forum rankings")
	rt.AppendHeader(table.Row{"Forum", "Rank", "Most liked", "Positive %", "Most disliked", "Negative %"})
	for _, rk := range report.Rankings {
		n := max(len(rk.MostLiked), len(rk.MostDisliked))
		for i := 0; i < n; i++ {
			row := table.Row{rk.Forum, i + 1, "", "", "", ""}
			if i < len(rk.MostLiked) {
				row[2] = rk.MostLiked[i].Brand
				row[3] = percent(rk.MostLiked[i].PositiveRatio)
			}
			if i < len(rk.MostDisliked) {
				row[4] = rk.MostDisliked[i].Brand
				row[5] = percent(rk.MostDisliked[i].NegativeRatio)
			}
			rt.AppendRow(row)
		}
		rt.AppendSeparator()
	}
	rt.Render()
}
