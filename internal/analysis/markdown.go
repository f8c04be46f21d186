package analysis

import (
	"fmt"
	"strings"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/stats"
)

// Markdown renders the given sections, or every section the report holds
// when none are given. Sections that were not computed are left out.
func (r *Report) Markdown(sections ...Section) string {
	if len(sections) == 0 {
		sections = r.Sections
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Grant Analysis Report\n\n")
	fmt.Fprintf(&b, "_Run %s, generated %s_\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04"))

	for _, s := range sections {
		if !r.Has(s) {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", s.Title())
		r.writeSection(&b, s)
		for _, w := range r.WarningsFor(s) {
			fmt.Fprintf(&b, "> **Skipped:** %s\n\n", w.Message)
		}
	}
	return b.String()
}

func (r *Report) writeSection(b *strings.Builder, s Section) {
	switch s {
	case SectionOverview:
		r.writeOverview(b)
	case SectionQuality:
		r.writeQuality(b)
	case SectionCompanies:
		r.writeCompanies(b)
	case SectionStates:
		r.writeStates(b)
	case SectionDistribution:
		r.writeDistributions(b)
	case SectionTrends:
		r.writeTrends(b)
	case SectionCategories:
		r.writeCategories(b)
	case SectionTransforms:
		r.writeTransforms(b)
	case SectionHypotheses:
		r.writeHypotheses(b)
	case SectionRecipients:
		r.writeRecipients(b)
	case SectionFindings:
		r.writeFindings(b)
	}
}

func (r *Report) writeOverview(b *strings.Builder) {
	o := r.Overview
	if o == nil {
		return
	}
	writeTable(b, []string{"Metric", "Value"}, [][]string{
		{"Grants", cli.Count(o.Grants)},
		{"Grantmakers", cli.Count(o.Grantmakers)},
		{"Companies", cli.Count(o.Companies)},
		{"Categories", cli.Count(o.Categories)},
		{"Total funding", cli.Money(o.Total)},
		{"Mean grant", cli.Money(o.Mean)},
		{"Median grant", cli.Money(o.Median)},
	})
}

func (r *Report) writeQuality(b *strings.Builder) {
	q := r.Quality
	if q == nil {
		return
	}
	if q.Cleaning != nil {
		rows := make([][]string, 0, len(q.Cleaning.Orgs))
		for _, org := range q.Cleaning.Orgs {
			c := q.Cleaning.ByOrg[org]
			rows = append(rows, []string{
				org,
				cli.Count(c.GrantsOriginal),
				cli.Count(c.GrantsRemoved),
				cli.Count(c.GrantsFinal),
				cli.Percent(c.GrantsRetention() * 100),
				cli.Count(c.GrantmakersOriginal),
				cli.Count(c.GrantmakersFinal),
				cli.Percent(c.GrantmakersRetention() * 100),
			})
		}
		writeTable(b, []string{
			"Company", "Grants", "Removed", "Kept", "Retention",
			"Grantmakers", "Kept", "Retention",
		}, rows)
	}

	if len(q.Missing) > 0 {
		b.WriteString("### Missing values after merge\n\n")
		rows := make([][]string, len(q.Missing))
		for i, m := range q.Missing {
			rows[i] = []string{m.Column, cli.Count(m.Count), cli.Percent(m.Pct)}
		}
		writeTable(b, []string{"Column", "Missing", "Share"}, rows)
	}
}

func (r *Report) writeCompanies(b *strings.Builder) {
	if len(r.Companies) == 0 {
		return
	}
	rows := make([][]string, len(r.Companies))
	for i, c := range r.Companies {
		rows[i] = []string{
			c.Company,
			cli.Count(c.Count),
			cli.Money(c.Total),
			cli.Money(c.Mean),
			cli.Money(c.Median),
			cli.Count(c.Grantmakers),
		}
	}
	writeTable(b, []string{"Company", "Grants", "Total", "Mean", "Median", "Grantmakers"}, rows)
}

func (r *Report) writeStates(b *strings.Builder) {
	for _, sa := range r.States {
		fmt.Fprintf(b, "### %s\n\n", companyLabel(sa.Company))
		fmt.Fprintf(b, "The five largest states hold **%s** of total giving.\n\n", cli.Percent(sa.Top5Share))

		rows := make([][]string, len(sa.ByCount))
		for i, s := range sa.ByCount {
			rows[i] = []string{s.State, cli.Count(s.Grantmakers), cli.Money(s.TotalGiving)}
		}
		b.WriteString("By grantmaker count:\n\n")
		writeTable(b, []string{"State", "Grantmakers", "Total giving"}, rows)

		rows = make([][]string, len(sa.ByGiving))
		for i, s := range sa.ByGiving {
			rows[i] = []string{s.State, cli.Money(s.TotalGiving), cli.Count(s.Grantmakers)}
		}
		b.WriteString("By total giving:\n\n")
		writeTable(b, []string{"State", "Total giving", "Grantmakers"}, rows)
	}
}

func (r *Report) writeDistributions(b *strings.Builder) {
	if len(r.Distributions) == 0 {
		return
	}
	rows := make([][]string, len(r.Distributions))
	for i, d := range r.Distributions {
		rows[i] = []string{
			d.Company,
			cli.Count(d.Count),
			cli.Money(d.Mean),
			cli.Money(d.Median),
			cli.Money(d.Std),
			cli.Money(d.Q1),
			cli.Money(d.Q3),
			cli.Number(d.Skewness, 2),
			cli.Number(d.Kurtosis, 2),
			fmt.Sprintf("%s (%s)", cli.Count(d.OutlierCount), cli.Percent(d.OutlierPct)),
		}
	}
	writeTable(b, []string{
		"Company", "N", "Mean", "Median", "Std", "Q1", "Q3", "Skew", "Kurtosis", "Outliers",
	}, rows)
}

func (r *Report) writeTrends(b *strings.Builder) {
	for _, t := range r.Trends {
		fmt.Fprintf(b, "### %s\n\n", t.Company)
		rows := make([][]string, len(t.Years))
		for i, y := range t.Years {
			growth := "n/a"
			if y.Growth != nil {
				growth = fmt.Sprintf("%+.1f%%", *y.Growth)
			}
			rows[i] = []string{
				fmt.Sprintf("%d", y.Year),
				cli.Count(y.Count),
				cli.Money(y.Total),
				cli.Money(y.Mean),
				growth,
			}
		}
		writeTable(b, []string{"Year", "Grants", "Total", "Mean", "Growth"}, rows)
	}
}

func (r *Report) writeCategories(b *strings.Builder) {
	for _, c := range r.Categories {
		fmt.Fprintf(b, "### %s\n\n", c.Company)
		var count int
		for _, row := range c.Summary {
			count += row.Count
		}
		rows := make([][]string, len(c.Summary))
		for i, row := range c.Summary {
			share := 0.0
			if count > 0 {
				share = float64(row.Count) / float64(count) * 100
			}
			rows[i] = []string{
				row.Category,
				cli.Count(row.Count),
				cli.Percent(share),
				cli.Money(row.Total),
				cli.Money(row.Mean),
			}
		}
		writeTable(b, []string{"Category", "Grants", "Share", "Total", "Mean"}, rows)
	}
}

func (r *Report) writeTransforms(b *strings.Builder) {
	t := r.Transforms
	if t == nil {
		return
	}
	fmt.Fprintf(b, "%s positive amounts. Box-Cox lambda = %s.\n\n", cli.Count(t.Count), cli.Number(t.Lambda, 4))

	rows := [][]string{
		r.normalityRow("Original", t.Original),
		r.normalityRow("Box-Cox", t.BoxCox),
	}
	writeTable(b, []string{"Values", "Skewness", "Shapiro-Wilk W", "p", "D'Agostino K²", "p"}, rows)

	writeTable(b, []string{"Transform", "Skewness"}, [][]string{
		{"Original", cli.Number(t.Original.Skewness, 4)},
		{"Box-Cox", cli.Number(t.BoxCox.Skewness, 4)},
		{"Natural log", cli.Number(t.LogSkew, 4)},
		{"Common log", cli.Number(t.Log10Skew, 4)},
	})
	if t.Best != "" {
		fmt.Fprintf(b, "Best transform: **%s** (|skewness| = %s).\n\n", t.Best, cli.Number(t.BestSkew, 4))
	}
}

func (r *Report) normalityRow(label string, n NormalityResult) []string {
	row := []string{label, cli.Number(n.Skewness, 4), "n/a", "n/a", "n/a", "n/a"}
	if n.Shapiro != nil {
		row[2], row[3] = cli.Number(n.Shapiro.Statistic, 4), cli.PValue(n.Shapiro.PValue)
	}
	if n.DAgostino != nil {
		row[4], row[5] = cli.Number(n.DAgostino.Statistic, 4), cli.PValue(n.DAgostino.PValue)
	}
	return row
}

func (r *Report) writeHypotheses(b *strings.Builder) {
	h := r.Hypotheses
	if h == nil {
		return
	}
	fmt.Fprintf(b, "Significance level: %s.\n\n", cli.Number(r.Alpha, 2))

	if a := h.Assets; a != nil {
		b.WriteString("### H1: Higher-asset grantmakers give larger grants\n\n")
		fmt.Fprintf(b, "Split at median assets of %s.\n\n", cli.Money(a.AssetMedian))
		writeTable(b, []string{"Group", "N", "Mean", "Median"}, [][]string{
			{"High assets", cli.Count(a.High.N), cli.Money(a.High.Mean), cli.Money(a.High.Median)},
			{"Low assets", cli.Count(a.Low.N), cli.Money(a.Low.Mean), cli.Money(a.Low.Median)},
		})
		writeTable(b, testHeader, [][]string{
			r.testRow("Student t-test", a.TTest),
			r.testRow("Mann-Whitney U", a.MannWhitney),
		})
	}
	if c := h.Counts; c != nil {
		b.WriteString("### H2: Grantmakers with more grants give more in total\n\n")
		fmt.Fprintf(b, "%s grantmakers.\n\n", cli.Count(c.Grantmakers))
		writeTable(b, testHeader, [][]string{
			r.testRow("Pearson r", c.Pearson),
			r.testRow("Spearman rho", c.Spearman),
		})
	}
	if c := h.Categories; c != nil {
		b.WriteString("### H3: Grant amounts differ by category\n\n")
		names := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			names[i] = string(cat)
		}
		fmt.Fprintf(b, "Groups: %s.\n\n", strings.Join(names, ", "))
		writeTable(b, testHeader, [][]string{r.testRow("One-way ANOVA F", c.ANOVA)})
	}
}

var testHeader = []string{"Test", "Statistic", "p-value", "Result"}

func (r *Report) testRow(name string, t stats.TestResult) []string {
	result := "Not significant"
	if t.SignificantAt(r.Alpha) {
		result = "**Significant**"
	}
	return []string{name, cli.Number(t.Statistic, 4), cli.PValue(t.PValue), result}
}

func (r *Report) writeRecipients(b *strings.Builder) {
	for _, ra := range r.Recipients {
		fmt.Fprintf(b, "### %s\n\n", ra.Company)
		fmt.Fprintf(b, "%s unique recipients, %s received more than one grant (%s).\n\n",
			cli.Count(ra.Unique), cli.Count(ra.Repeat), cli.Percent(ra.RepeatPct))

		rows := make([][]string, len(ra.Top))
		for i, t := range ra.Top {
			rows[i] = []string{t.Recipient, cli.Count(t.Count), cli.Money(t.Total)}
		}
		writeTable(b, []string{"Recipient", "Grants", "Total"}, rows)

		if len(ra.Subjects) > 0 {
			rows = make([][]string, len(ra.Subjects))
			for i, s := range ra.Subjects {
				rows[i] = []string{s.Subject, cli.Count(s.Count), cli.Money(s.Total)}
			}
			writeTable(b, []string{"Subject", "Grants", "Total"}, rows)
		}
	}
}

func (r *Report) writeFindings(b *strings.Builder) {
	for _, f := range r.Findings {
		fmt.Fprintf(b, "### %s\n\n", f.Company)
		writeLines(b, f.Lines)
	}
	if len(r.Comparative) > 0 {
		b.WriteString("### Across companies\n\n")
		writeLines(b, r.Comparative)
	}
}

func writeLines(b *strings.Builder, lines []FindingLine) {
	for _, l := range lines {
		fmt.Fprintf(b, "- **%s:** %s\n", l.Label, l.Text)
	}
	b.WriteString("\n")
}

// writeTable writes a GitHub-flavored markdown table. Pipes in cells are
// escaped.
func writeTable(b *strings.Builder, header []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	escape := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		return "| " + strings.Join(out, " | ") + " |\n"
	}

	b.WriteString(escape(header))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		b.WriteString(escape(row))
	}
	b.WriteString("\n")
}
