package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
)

// buildFindings writes the per-company summary lines and the comparative
// lines across companies. It reads the dataset directly so it does not
// depend on which other sections were requested.
func (e *Engine) buildFindings(_ context.Context, ds *model.Dataset, report *Report) error {
	for _, company := range sortedCompanies(ds) {
		grants := ds.GrantsFor(company)
		if len(grants) == 0 {
			report.warn(SectionFindings, "%s has no grants after cleaning", company)
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Company: company,
			Lines:   companyFindings(grants, ds.Report.ByOrg[company]),
		})
	}

	report.Comparative = e.comparativeFindings(ds, report)
	return nil
}

func companyFindings(grants []model.Grant, cleaning model.OrgReport) []FindingLine {
	amounts := grantAmounts(grants)
	summary, _ := stats.Describe(amounts)

	lines := []FindingLine{
		{
			Label: "Data quality",
			Text: fmt.Sprintf("processed %s grants with %s retention",
				cli.Count(len(grants)), cli.Percent(cleaning.GrantsRetention()*100)),
		},
		{Label: "Distribution", Text: skewText(summary.Skewness)},
		{
			Label: "Total funding",
			Text:  fmt.Sprintf("%s across %s grants", cli.MoneyShort(summary.Sum), cli.Count(summary.Count)),
		},
	}

	if top, ok := topCategory(grants); ok {
		lines = append(lines, FindingLine{Label: "Top category", Text: fmt.Sprintf("%s has the most grants", top)})
	}

	lines = append(lines,
		FindingLine{
			Label: "Outliers",
			Text:  fmt.Sprintf("%s of grants are statistical outliers (IQR method)", cli.Percent(summary.OutlierPct)),
		},
		FindingLine{
			Label: "Grant range",
			Text:  fmt.Sprintf("from %s to %s", cli.Money(summary.Min), cli.Money(summary.Max)),
		},
	)
	return lines
}

func skewText(skew float64) string {
	switch {
	case math.IsNaN(skew):
		return "skewness is undefined for this sample"
	case skew > 0:
		return fmt.Sprintf("skewness of %.2f indicates a right-skewed distribution", skew)
	case skew < 0:
		return fmt.Sprintf("skewness of %.2f indicates a left-skewed distribution", skew)
	default:
		return "skewness of 0.00 indicates a symmetric distribution"
	}
}

// topCategory returns the category with the most grants. Ties go to the
// category listed first in model.AllCategories.
func topCategory(grants []model.Grant) (model.Category, bool) {
	counts := make(map[model.Category]int)
	for _, g := range grants {
		counts[g.Category]++
	}

	var best model.Category
	bestCount := 0
	for _, c := range model.AllCategories() {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best, bestCount > 0
}

func (e *Engine) comparativeFindings(ds *model.Dataset, report *Report) []FindingLine {
	var total float64
	for _, g := range ds.Grants {
		total += g.Amount
	}

	lines := []FindingLine{
		{
			Label: "Total dataset",
			Text: fmt.Sprintf("analyzed %s grants across %d companies",
				cli.Count(len(ds.Grants)), len(ds.Companies())),
		},
		{Label: "Combined funding", Text: fmt.Sprintf("%s in total grant amounts", cli.MoneyShort(total))},
	}

	if h := report.Hypotheses; h != nil {
		var parts []string
		if h.Assets != nil {
			parts = append(parts, "asset size "+e.verdict(h.Assets.TTest))
		}
		if h.Counts != nil {
			parts = append(parts, "grant count "+e.verdict(h.Counts.Pearson))
		}
		if h.Categories != nil {
			parts = append(parts, "category "+e.verdict(h.Categories.ANOVA))
		}
		if len(parts) > 0 {
			lines = append(lines, FindingLine{Label: "Hypotheses", Text: strings.Join(parts, "; ")})
		}
	}
	return lines
}

func (e *Engine) verdict(r stats.TestResult) string {
	if r.SignificantAt(e.config.Alpha) {
		return fmt.Sprintf("significant (p = %s)", cli.PValue(r.PValue))
	}
	return fmt.Sprintf("not significant (p = %s)", cli.PValue(r.PValue))
}
