package analysis

import (
	"cmp"
	"context"
	"slices"
	"sort"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
	"github.com/Veraticus/grantlens/internal/storage"
)

// maxMissingColumns bounds the missing-data table.
const maxMissingColumns = 10

func (e *Engine) buildOverview(_ context.Context, ds *model.Dataset, report *Report) error {
	amounts := grantAmounts(ds.Grants)
	makers := make(map[string]struct{})
	categories := make(map[model.Category]struct{})
	var total float64
	for _, g := range ds.Grants {
		makers[g.GrantmakerName] = struct{}{}
		categories[g.Category] = struct{}{}
		total += g.Amount
	}

	report.Overview = &Overview{
		Grants:      len(ds.Grants),
		Grantmakers: len(makers),
		Companies:   len(ds.Companies()),
		Categories:  len(categories),
		Total:       total,
		Mean:        stats.Mean(amounts),
		Median:      stats.Median(amounts),
	}
	if len(ds.Grants) == 0 {
		report.warn(SectionOverview, "no grants survived cleaning")
	}
	return nil
}

func (e *Engine) buildQuality(_ context.Context, ds *model.Dataset, report *Report) error {
	report.Quality = &Quality{
		Cleaning: ds.Report,
		Missing:  missingColumns(ds.Merged),
	}
	return nil
}

// missingColumns counts empty cells per merged column and returns the
// columns with the most gaps first.
func missingColumns(merged []model.MergedGrant) []MissingColumn {
	if len(merged) == 0 {
		return nil
	}

	counts := map[string]int{
		model.ColGrantmakerName: 0,
		model.ColRecipientName:  0,
		model.ColDescription:    0,
		model.ColPrimarySubject: 0,
		model.ColTotalAssets:    0,
		model.ColTotalGiving:    0,
		model.ColState:          0,
	}
	for _, m := range merged {
		if m.GrantmakerName == "" {
			counts[model.ColGrantmakerName]++
		}
		if m.RecipientName == "" {
			counts[model.ColRecipientName]++
		}
		if m.Description == nil {
			counts[model.ColDescription]++
		}
		if m.PrimarySubject == nil {
			counts[model.ColPrimarySubject]++
		}
		if m.TotalAssets == nil {
			counts[model.ColTotalAssets]++
		}
		if m.TotalGiving == nil {
			counts[model.ColTotalGiving]++
		}
		if m.State == nil {
			counts[model.ColState]++
		}
		for col, v := range m.Extra {
			if _, ok := counts[col]; !ok {
				counts[col] = 0
			}
			if v == "" {
				counts[col]++
			}
		}
	}

	n := float64(len(merged))
	out := make([]MissingColumn, 0, len(counts))
	for col, c := range counts {
		out = append(out, MissingColumn{Column: col, Count: c, Pct: float64(c) / n * 100})
	}
	slices.SortFunc(out, func(a, b MissingColumn) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	if len(out) > maxMissingColumns {
		out = out[:maxMissingColumns]
	}
	return out
}

func (e *Engine) buildCompanies(ctx context.Context, _ *model.Dataset, report *Report) error {
	metrics, err := e.deps.Store.CompanyMetrics(ctx)
	if err != nil {
		return err
	}
	amounts, err := e.deps.Store.AmountsByCompany(ctx)
	if err != nil {
		return err
	}
	for i := range metrics {
		metrics[i].Median = stats.Median(amounts[metrics[i].Company])
	}
	report.Companies = metrics
	if len(metrics) == 0 {
		report.warn(SectionCompanies, "no company has grants to compare")
	}
	return nil
}

// buildStates ranks states across all companies first, then per company.
func (e *Engine) buildStates(ctx context.Context, ds *model.Dataset, report *Report) error {
	scopes := append([]string{""}, sortedCompanies(ds)...)
	for _, company := range scopes {
		byCount, err := e.deps.Store.StateSummary(ctx, company, storage.StateByCount, e.config.StateLimit)
		if err != nil {
			return err
		}
		byGiving, err := e.deps.Store.StateSummary(ctx, company, storage.StateByGiving, e.config.StateLimit)
		if err != nil {
			return err
		}
		if len(byCount) == 0 {
			report.warn(SectionStates, "%s has no grantmakers with a state", companyLabel(company))
			continue
		}

		total, err := e.deps.Store.TotalGiving(ctx, company)
		if err != nil {
			return err
		}
		var top5 float64
		for i := 0; i < len(byGiving) && i < 5; i++ {
			top5 += byGiving[i].TotalGiving
		}
		share := 0.0
		if total > 0 {
			share = top5 / total * 100
		}

		report.States = append(report.States, StateAnalysis{
			Company:   company,
			ByCount:   byCount,
			ByGiving:  byGiving,
			Top5Share: share,
		})
	}
	return nil
}

func (e *Engine) buildDistributions(ctx context.Context, _ *model.Dataset, report *Report) error {
	amounts, err := e.deps.Store.AmountsByCompany(ctx)
	if err != nil {
		return err
	}
	for _, company := range sortedKeys(amounts) {
		summary, err := stats.Describe(amounts[company])
		if err != nil {
			if isPrecondition(err) {
				report.warn(SectionDistribution, "%s: %v", company, err)
				continue
			}
			return err
		}
		report.Distributions = append(report.Distributions, Distribution{Company: company, Summary: summary})
	}
	return nil
}

func (e *Engine) buildTrends(ctx context.Context, ds *model.Dataset, report *Report) error {
	for _, company := range sortedCompanies(ds) {
		rows, err := e.deps.Store.YearlyTrend(ctx, company)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			report.warn(SectionTrends, "%s has no grants by year", company)
			continue
		}
		report.Trends = append(report.Trends, Trend{Company: company, Years: withGrowth(rows)})
	}
	return nil
}

// withGrowth attaches the percentage change in total from the previous row.
func withGrowth(rows []storage.YearRow) []YearPoint {
	points := make([]YearPoint, len(rows))
	for i, row := range rows {
		points[i].YearRow = row
		if i == 0 || rows[i-1].Total == 0 {
			continue
		}
		g := (row.Total - rows[i-1].Total) / rows[i-1].Total * 100
		points[i].Growth = &g
	}
	return points
}

func (e *Engine) buildCategories(ctx context.Context, ds *model.Dataset, report *Report) error {
	for _, company := range sortedCompanies(ds) {
		summary, err := e.deps.Store.CategorySummary(ctx, company)
		if err != nil {
			return err
		}
		trend, err := e.deps.Store.CategoryTrend(ctx, company)
		if err != nil {
			return err
		}
		if len(summary) == 0 {
			report.warn(SectionCategories, "%s has no categorized grants", company)
			continue
		}
		report.Categories = append(report.Categories, CategoryBreakdown{
			Company: company,
			Summary: summary,
			Trend:   trend,
		})
	}
	return nil
}

// buildTransforms compares the raw amounts with their power transforms. The
// Shapiro-Wilk test sees a seeded sample of the raw amounts and a prefix of
// the Box-Cox values; D'Agostino sees everything.
func (e *Engine) buildTransforms(_ context.Context, ds *model.Dataset, report *Report) error {
	t, err := stats.TransformDistribution(grantAmounts(ds.Grants))
	if err != nil {
		if isPrecondition(err) {
			report.warn(SectionTransforms, "transforms skipped: %v", err)
			return nil
		}
		return err
	}

	limit := e.config.NormalitySampleSize
	boxPrefix := t.BoxCox
	if len(boxPrefix) > limit {
		boxPrefix = boxPrefix[:limit]
	}

	best, bestSkew := stats.BestTransform(t)
	report.Transforms = &Transforms{
		Count:     len(t.Original),
		Lambda:    t.Lambda,
		Original:  e.normality(report, "original", stats.Sample(t.Original, limit, e.config.SampleSeed), t.Original),
		BoxCox:    e.normality(report, "Box-Cox", boxPrefix, t.BoxCox),
		LogSkew:   stats.Skewness(t.Log),
		Log10Skew: stats.Skewness(t.Log10),
		Best:      best,
		BestSkew:  bestSkew,
	}
	return nil
}

func (e *Engine) normality(report *Report, label string, shapiroInput, full []float64) NormalityResult {
	res := NormalityResult{Skewness: stats.Skewness(full)}

	if sw, err := stats.ShapiroWilk(shapiroInput); err == nil {
		res.Shapiro = &sw
	} else {
		report.warn(SectionTransforms, "Shapiro-Wilk on %s values skipped: %v", label, err)
	}
	if k2, err := stats.DAgostinoK2(full); err == nil {
		res.DAgostino = &k2
	} else {
		report.warn(SectionTransforms, "D'Agostino on %s values skipped: %v", label, err)
	}
	return res
}

func (e *Engine) buildRecipients(ctx context.Context, ds *model.Dataset, report *Report) error {
	for _, company := range sortedCompanies(ds) {
		top, err := e.deps.Store.TopRecipients(ctx, company, e.config.RecipientLimit)
		if err != nil {
			return err
		}
		subjects, err := e.deps.Store.SubjectSummary(ctx, company, e.config.SubjectLimit)
		if err != nil {
			return err
		}
		counts, err := e.deps.Store.RecipientCounts(ctx, company)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			report.warn(SectionRecipients, "%s has no named recipients", company)
			continue
		}

		ra := RecipientAnalysis{
			Company:  company,
			Top:      top,
			Subjects: subjects,
			Unique:   len(counts),
		}
		for _, c := range counts {
			if c.Count > 1 {
				ra.Repeat++
			}
		}
		ra.RepeatPct = float64(ra.Repeat) / float64(ra.Unique) * 100
		report.Recipients = append(report.Recipients, ra)
	}
	return nil
}

func grantAmounts(grants []model.Grant) []float64 {
	out := make([]float64, len(grants))
	for i, g := range grants {
		out[i] = g.Amount
	}
	return out
}

func sortedCompanies(ds *model.Dataset) []string {
	companies := ds.Companies()
	sort.Strings(companies)
	return companies
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func companyLabel(company string) string {
	if company == "" {
		return "All companies"
	}
	return company
}
