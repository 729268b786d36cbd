package render

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"discogscatalog/pkg/models"
	"discogscatalog/pkg/pricing"
	"discogscatalog/pkg/report"
)

// SummaryTable renders the processed rows and folder totals for the terminal
func SummaryTable(result *report.Result, currency string) string {
	if result == nil {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("%s", result.Folder.Name)
	tw.AppendHeader(table.Row{"ID", "Artist", "Title", "Label", "Avg price", "Lowest"})

	for _, row := range result.Rows {
		tw.AppendRow(table.Row{
			row.ID,
			truncate(row.Artist, 28),
			truncate(row.Title, 36),
			truncate(labelText(row), 28),
			priceText(row.AveragePriceSuggestion, currency),
			priceText(row.LowestPrice, currency),
		})
	}

	tw.AppendFooter(table.Row{
		"", "", "", "Total",
		pricing.Format(result.TotalAverage, currency),
		pricing.Format(result.TotalLowest, currency),
	})
	tw.SetCaption("%d of %d releases, %d from cache, %d fetched",
		len(result.Rows), result.TotalReleases, result.CacheHits, result.Fetched)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	return tw.Render()
}

func labelText(row models.ReportRow) string {
	if row.CatNo == "" {
		return row.Label
	}
	return row.Label + " (" + row.CatNo + ")"
}

func priceText(v *float64, currency string) string {
	if v == nil {
		return "-"
	}
	return pricing.Format(*v, currency)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// CacheTable lists cached rows, one per release
func CacheTable(rows []models.ReportRow, currency string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Artist", "Title", "Released", "Avg price", "Lowest"})
	for _, row := range rows {
		tw.AppendRow(table.Row{
			row.ID,
			truncate(row.Artist, 28),
			truncate(row.Title, 36),
			row.Released,
			priceText(row.AveragePriceSuggestion, currency),
			priceText(row.LowestPrice, currency),
		})
	}
	tw.SetCaption("%d cached releases", len(rows))
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}
