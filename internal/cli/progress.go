package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// LoadProgress shows a bar that advances once per organization loaded.
type LoadProgress struct {
	bar *progressbar.ProgressBar
}

// NewLoadProgress creates a progress bar for total organizations.
func NewLoadProgress(w io.Writer, total int, description string) *LoadProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &LoadProgress{bar: bar}
}

// Update matches the pipeline progress callback. The bar is set to done
// rather than incremented since callbacks report absolute counts.
func (p *LoadProgress) Update(org string, done, _ int) {
	p.bar.Describe("[cyan][bold]Loaded " + org + "[reset]")
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
