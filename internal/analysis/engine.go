package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
)

// ProgressCallback receives the stage being computed and a completion
// percentage.
type ProgressCallback func(stage string, percent int)

// Options selects what a single Analyze call computes.
type Options struct {
	// ProgressFunc is called before each section. May be nil.
	ProgressFunc ProgressCallback
	// Sections limits the report to these sections. Empty means all.
	Sections []Section
}

type sectionBuilder func(ctx context.Context, ds *model.Dataset, report *Report) error

// Run analyzes every section of the dataset.
func (e *Engine) Run(ctx context.Context, ds *model.Dataset) (*Report, error) {
	return e.Analyze(ctx, ds, Options{})
}

// Analyze loads the dataset into the store and builds the requested sections.
// Store failures abort the run. A section whose statistical precondition does
// not hold is skipped and recorded in Report.Warnings.
func (e *Engine) Analyze(ctx context.Context, ds *model.Dataset, opts Options) (*Report, error) {
	if ds == nil || ds.Report == nil {
		return nil, ErrNoDataset
	}

	progress := opts.ProgressFunc
	if progress == nil {
		progress = func(string, int) {}
	}

	sections := opts.Sections
	if len(sections) == 0 {
		sections = AllSections()
	}

	progress("Loading dataset", 5)
	if err := e.deps.Store.SaveDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to load dataset into store: %w", err)
	}

	report := &Report{
		ID:          uuid.New().String(),
		RunID:       ds.Report.RunID,
		GeneratedAt: time.Now(),
		Sections:    sections,
		Alpha:       e.config.Alpha,
	}

	builders := map[Section]sectionBuilder{
		SectionOverview:     e.buildOverview,
		SectionQuality:      e.buildQuality,
		SectionCompanies:    e.buildCompanies,
		SectionStates:       e.buildStates,
		SectionDistribution: e.buildDistributions,
		SectionTrends:       e.buildTrends,
		SectionCategories:   e.buildCategories,
		SectionTransforms:   e.buildTransforms,
		SectionHypotheses:   e.buildHypotheses,
		SectionRecipients:   e.buildRecipients,
		SectionFindings:     e.buildFindings,
	}

	for i, section := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		build, ok := builders[section]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
		}

		progress(section.Title(), 10+85*i/len(sections))
		if err := build(ctx, ds, report); err != nil {
			return nil, fmt.Errorf("failed to build %s section: %w", section, err)
		}
	}

	if len(report.Warnings) > 0 {
		e.deps.Logger.Warn("Some analyses were skipped", "count", len(report.Warnings))
		for _, w := range report.Warnings {
			e.deps.Logger.Debug("Skipped analysis", "section", w.Section, "reason", w.Message)
		}
	}

	progress("Analysis complete", 100)
	e.deps.Logger.Info("Analysis complete",
		"report_id", report.ID,
		"run_id", report.RunID,
		"sections", len(sections),
		"grants", len(ds.Grants))
	return report, nil
}

// isPrecondition reports whether err means a statistic could not be
// computed from the data rather than a failure of the engine itself.
func isPrecondition(err error) bool {
	return errors.Is(err, stats.ErrEmptyInput) ||
		errors.Is(err, stats.ErrConstantInput) ||
		errors.Is(err, stats.ErrInsufficientData) ||
		errors.Is(err, stats.ErrLengthMismatch)
}
