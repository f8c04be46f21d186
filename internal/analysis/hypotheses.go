package analysis

import (
	"context"
	"slices"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
)

// minGrantmakers is the fewest grantmakers the count/funding correlation
// accepts.
const minGrantmakers = 3

func (e *Engine) buildHypotheses(ctx context.Context, _ *model.Dataset, report *Report) error {
	h := &Hypotheses{}
	var err error

	if h.Assets, err = e.testAssets(ctx, report); err != nil {
		return err
	}
	if h.Counts, err = e.testCounts(ctx, report); err != nil {
		return err
	}
	if h.Categories, err = e.testCategories(ctx, report); err != nil {
		return err
	}

	report.Hypotheses = h
	return nil
}

// testAssets splits matched grants at the median grantmaker assets and
// compares the amounts on each side.
func (e *Engine) testAssets(ctx context.Context, report *Report) (*AssetTest, error) {
	pairs, err := e.deps.Store.MergedAmountsWithAssets(ctx)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		report.warn(SectionHypotheses, "asset test skipped: no grants matched a grantmaker")
		return nil, nil
	}

	assets := make([]float64, len(pairs))
	for i, p := range pairs {
		assets[i] = p.TotalAssets
	}
	median := stats.Median(assets)

	var high, low []float64
	for _, p := range pairs {
		if p.TotalAssets >= median {
			high = append(high, p.Amount)
		} else {
			low = append(low, p.Amount)
		}
	}

	tt, err := stats.TTestInd(high, low)
	if err != nil {
		return nil, e.skip(report, "asset t-test", err)
	}
	mw, err := stats.MannWhitneyU(high, low)
	if err != nil {
		return nil, e.skip(report, "asset Mann-Whitney test", err)
	}

	return &AssetTest{
		High:        summarizeGroup(high),
		Low:         summarizeGroup(low),
		TTest:       tt,
		MannWhitney: mw,
		AssetMedian: median,
	}, nil
}

// testCounts correlates each grantmaker's grant count with its total.
func (e *Engine) testCounts(ctx context.Context, report *Report) (*CountFundingTest, error) {
	totals, err := e.deps.Store.GrantmakerTotals(ctx)
	if err != nil {
		return nil, err
	}
	if len(totals) < minGrantmakers {
		report.warn(SectionHypotheses, "count/funding test skipped: %d grantmakers, need at least %d", len(totals), minGrantmakers)
		return nil, nil
	}

	counts := make([]float64, len(totals))
	sums := make([]float64, len(totals))
	for i, t := range totals {
		counts[i] = float64(t.Count)
		sums[i] = t.Total
	}

	pearson, err := stats.Pearson(counts, sums)
	if err != nil {
		return nil, e.skip(report, "count/funding Pearson correlation", err)
	}
	spearman, err := stats.Spearman(counts, sums)
	if err != nil {
		return nil, e.skip(report, "count/funding Spearman correlation", err)
	}

	return &CountFundingTest{
		Pearson:     pearson,
		Spearman:    spearman,
		Grantmakers: len(totals),
	}, nil
}

// testCategories runs a one-way ANOVA across category groups.
func (e *Engine) testCategories(ctx context.Context, report *Report) (*CategoryTest, error) {
	byCategory, err := e.deps.Store.AmountsByCategory(ctx, "")
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	var groups [][]float64
	for _, c := range model.AllCategories() {
		if amounts := byCategory[c]; len(amounts) > 0 {
			categories = append(categories, c)
			groups = append(groups, amounts)
		}
	}
	if len(groups) <= 2 {
		report.warn(SectionHypotheses, "category test skipped: %d categories, need more than 2", len(groups))
		return nil, nil
	}

	anova, err := stats.OneWayANOVA(groups...)
	if err != nil {
		return nil, e.skip(report, "category ANOVA", err)
	}

	return &CategoryTest{
		Categories: slices.Clip(categories),
		ANOVA:      anova,
	}, nil
}

// skip records a precondition failure as a warning and swallows it. Any
// other error is returned unchanged.
func (e *Engine) skip(report *Report, what string, err error) error {
	if !isPrecondition(err) {
		return err
	}
	report.warn(SectionHypotheses, "%s skipped: %v", what, err)
	return nil
}

func summarizeGroup(values []float64) GroupSummary {
	return GroupSummary{
		N:      len(values),
		Mean:   stats.Mean(values),
		Median: stats.Median(values),
	}
}
