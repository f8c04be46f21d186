package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/grantlens/internal/export"
)

// ReportWriter writes a report to a spreadsheet.
type ReportWriter interface {
	Write(ctx context.Context, data *ReportData) error
}

// ReportData is everything written for one export.
type ReportData struct {
	GeneratedAt time.Time
	Title       string
	RunID       string
	Tabs        []export.Tab
}

// cell converts an exported value into what the Sheets API accepts with the
// USER_ENTERED input option.
func cell(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return x
	}
}

// tabValues lays out a tab as a header row followed by its data rows.
func tabValues(tab export.Tab) [][]any {
	values := make([][]any, 0, len(tab.Rows)+1)

	header := make([]any, len(tab.Columns))
	for i, name := range tab.Header() {
		header[i] = name
	}
	values = append(values, header)

	for _, row := range tab.Rows {
		out := make([]any, len(row))
		for i, v := range row {
			out[i] = cell(v)
		}
		values = append(values, out)
	}
	return values
}
