// Package export turns an analysis report into tabular sheets for
// spreadsheet output.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
)

// Tab names in workbook order.
const (
	TabCleaning   = "Cleaning"
	TabCompanies  = "Companies"
	TabCategories = "Categories"
	TabYearly     = "Yearly"
	TabHypotheses = "Hypotheses"
	TabFindings   = "Findings"
)

// Kind describes how a column is formatted.
type Kind int

// Column kinds.
const (
	KindText Kind = iota
	KindInt
	KindMoney
	KindPercent
	KindNumber
)

// Column is one header cell and the format of the values below it.
type Column struct {
	Name string
	Kind Kind
}

// Tab is one sheet of exported rows. Money cells hold decimal.Decimal,
// percentages are fractions (0.5 is 50%), and a nil cell is left blank.
type Tab struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Header returns the column names.
func (t Tab) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Money converts a float amount to a decimal rounded to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// BuildTabs lays out the report as Cleaning, Companies, Categories, Yearly,
// Hypotheses and Findings tabs. Sections the report did not compute produce
// a tab with only its header.
func BuildTabs(r *analysis.Report) ([]Tab, error) {
	if r == nil {
		return nil, common.ErrNoReport
	}
	return []Tab{
		cleaningTab(r),
		companiesTab(r),
		categoriesTab(r),
		yearlyTab(r),
		hypothesesTab(r),
		findingsTab(r),
	}, nil
}

func cleaningTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabCleaning,
		Columns: []Column{
			{"Company", KindText},
			{"Grants Original", KindInt},
			{"Grants Removed", KindInt},
			{"Grants Final", KindInt},
			{"Grants Retention", KindPercent},
			{"Grantmakers Original", KindInt},
			{"Grantmakers Removed", KindInt},
			{"Grantmakers Final", KindInt},
			{"Grantmakers Retention", KindPercent},
		},
	}
	if r.Quality == nil || r.Quality.Cleaning == nil {
		return t
	}
	cleaning := r.Quality.Cleaning
	row := func(name string, o model.OrgReport) []any {
		return []any{
			name,
			o.GrantsOriginal, o.GrantsRemoved, o.GrantsFinal, o.GrantsRetention(),
			o.GrantmakersOriginal, o.GrantmakersRemoved, o.GrantmakersFinal, o.GrantmakersRetention(),
		}
	}
	for _, org := range cleaning.Orgs {
		t.Rows = append(t.Rows, row(org, cleaning.ByOrg[org]))
	}
	t.Rows = append(t.Rows, row("Total", cleaning.Totals()))
	return t
}

func companiesTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabCompanies,
		Columns: []Column{
			{"Company", KindText},
			{"Grants", KindInt},
			{"Grantmakers", KindInt},
			{"Total Funding", KindMoney},
			{"Mean Grant", KindMoney},
			{"Median Grant", KindMoney},
		},
	}
	if len(r.Companies) == 0 {
		return t
	}

	total := decimal.Zero
	grants, grantmakers := 0, 0
	for _, c := range r.Companies {
		amount := Money(c.Total)
		total = total.Add(amount)
		grants += c.Count
		grantmakers += c.Grantmakers
		t.Rows = append(t.Rows, []any{c.Company, c.Count, c.Grantmakers, amount, Money(c.Mean), Money(c.Median)})
	}
	t.Rows = append(t.Rows, []any{"Total", grants, grantmakers, total, nil, nil})
	return t
}

func categoriesTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabCategories,
		Columns: []Column{
			{"Company", KindText},
			{"Category", KindText},
			{"Grants", KindInt},
			{"Total Funding", KindMoney},
			{"Mean Grant", KindMoney},
			{"Share of Funding", KindPercent},
		},
	}

	combined := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, b := range r.Categories {
		companyTotal := decimal.Zero
		for _, c := range b.Summary {
			companyTotal = companyTotal.Add(Money(c.Total))
		}
		for _, c := range b.Summary {
			amount := Money(c.Total)
			combined[c.Category] = combined[c.Category].Add(amount)
			counts[c.Category] += c.Count
			t.Rows = append(t.Rows, []any{b.Company, c.Category, c.Count, amount, Money(c.Mean), share(amount, companyTotal)})
		}
	}
	if len(combined) == 0 {
		return t
	}

	grand := decimal.Zero
	for _, v := range combined {
		grand = grand.Add(v)
	}
	for _, cat := range model.AllCategories() {
		amount, ok := combined[string(cat)]
		if !ok {
			continue
		}
		mean := amount.Div(decimal.NewFromInt(int64(counts[string(cat)]))).Round(2)
		t.Rows = append(t.Rows, []any{"All", string(cat), counts[string(cat)], amount, mean, share(amount, grand)})
	}
	return t
}

func share(part, whole decimal.Decimal) any {
	if whole.IsZero() {
		return nil
	}
	return part.Div(whole).InexactFloat64()
}

func yearlyTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabYearly,
		Columns: []Column{
			{"Company", KindText},
			{"Year", KindInt},
			{"Grants", KindInt},
			{"Total Funding", KindMoney},
			{"Mean Grant", KindMoney},
			{"Growth", KindPercent},
		},
	}
	for _, trend := range r.Trends {
		for _, y := range trend.Years {
			var growth any
			if y.Growth != nil {
				growth = *y.Growth / 100
			}
			t.Rows = append(t.Rows, []any{trend.Company, y.Year, y.Count, Money(y.Total), Money(y.Mean), growth})
		}
	}
	return t
}

func hypothesesTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabHypotheses,
		Columns: []Column{
			{"Hypothesis", KindText},
			{"Test", KindText},
			{"Statistic", KindNumber},
			{"p-value", KindNumber},
			{"Significant", KindText},
		},
	}
	h := r.Hypotheses
	if h == nil {
		return t
	}

	alpha := r.Alpha
	add := func(hypothesis, test string, res stats.TestResult) {
		verdict := "No"
		if res.SignificantAt(alpha) {
			verdict = "Yes"
		}
		t.Rows = append(t.Rows, []any{hypothesis, test, res.Statistic, res.PValue, verdict})
	}

	if a := h.Assets; a != nil {
		add("H1 asset size", "Student t-test", a.TTest)
		add("H1 asset size", "Mann-Whitney U", a.MannWhitney)
	}
	if c := h.Counts; c != nil {
		add("H2 grant count", "Pearson", c.Pearson)
		add("H2 grant count", "Spearman", c.Spearman)
	}
	if c := h.Categories; c != nil {
		add("H3 category", fmt.Sprintf("ANOVA (%d groups)", len(c.Categories)), c.ANOVA)
	}
	return t
}

func findingsTab(r *analysis.Report) Tab {
	t := Tab{
		Name: TabFindings,
		Columns: []Column{
			{"Company", KindText},
			{"Finding", KindText},
			{"Detail", KindText},
		},
	}
	for _, f := range r.Findings {
		for _, line := range f.Lines {
			t.Rows = append(t.Rows, []any{f.Company, line.Label, line.Text})
		}
	}
	for _, line := range r.Comparative {
		t.Rows = append(t.Rows, []any{"All", line.Label, line.Text})
	}
	for _, w := range r.Warnings {
		t.Rows = append(t.Rows, []any{"", "Skipped (" + string(w.Section) + ")", w.Message})
	}
	return t
}
