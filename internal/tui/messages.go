package tui

import (
	"context"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/nih"
)

// Data is everything the dashboard displays. NIH and Assets are optional;
// their tabs explain what is missing when they are nil.
type Data struct {
	Report *analysis.Report
	NIH    *nih.Data
	// NIHErr is set when the NIH directory could not be read at all.
	NIHErr error
	Assets []assets.PageResult
}

// LoadFunc produces the dashboard data. It is called on start and on reload.
type LoadFunc func(ctx context.Context) (*Data, error)

// Data loading messages.
type dataLoadedMsg struct {
	data *Data
	err  error
}
