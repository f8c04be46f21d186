package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/nih"
	"github.com/Veraticus/grantlens/internal/stats"
	"github.com/Veraticus/grantlens/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// Tab is one page of the dashboard.
type Tab int

// Dashboard tabs in display order.
const (
	TabOverview Tab = iota
	TabQuality
	TabCompanies
	TabDistribution
	TabTrends
	TabCategories
	TabTransforms
	TabHypotheses
	TabRecipients
	TabNIH
	TabAssets
	tabCount
)

// AllTabs returns every tab in display order.
func AllTabs() []Tab {
	out := make([]Tab, 0, tabCount)
	for t := range tabCount {
		out = append(out, t)
	}
	return out
}

// Title returns the label shown in the tab bar.
func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabQuality:
		return "Data Quality"
	case TabCompanies:
		return "Companies"
	case TabDistribution:
		return "Distribution"
	case TabTrends:
		return "Trends"
	case TabCategories:
		return "Categories"
	case TabTransforms:
		return "Transforms"
	case TabHypotheses:
		return "Hypotheses"
	case TabRecipients:
		return "Recipients"
	case TabNIH:
		return "NIH"
	case TabAssets:
		return "Assets"
	default:
		return fmt.Sprintf("Tab %d", int(t))
	}
}

// sections lists the report sections whose warnings belong on the tab.
func (t Tab) sections() []analysis.Section {
	switch t {
	case TabOverview:
		return []analysis.Section{analysis.SectionOverview, analysis.SectionFindings}
	case TabQuality:
		return []analysis.Section{analysis.SectionQuality}
	case TabCompanies:
		return []analysis.Section{analysis.SectionCompanies, analysis.SectionStates}
	case TabDistribution:
		return []analysis.Section{analysis.SectionDistribution}
	case TabTrends:
		return []analysis.Section{analysis.SectionTrends}
	case TabCategories:
		return []analysis.Section{analysis.SectionCategories}
	case TabTransforms:
		return []analysis.Section{analysis.SectionTransforms}
	case TabHypotheses:
		return []analysis.Section{analysis.SectionHypotheses}
	case TabRecipients:
		return []analysis.Section{analysis.SectionRecipients}
	default:
		return nil
	}
}

// renderer builds the text of one tab.
type renderer struct {
	theme themes.Theme
	data  *Data
	b     strings.Builder
	topN  int
}

func renderTab(t Tab, data *Data, theme themes.Theme, topN int) string {
	r := &renderer{theme: theme, data: data, topN: topN}
	if data == nil || data.Report == nil {
		return theme.Muted.Render("No report loaded")
	}

	switch t {
	case TabOverview:
		r.overview()
	case TabQuality:
		r.quality()
	case TabCompanies:
		r.companies()
	case TabDistribution:
		r.distribution()
	case TabTrends:
		r.trends()
	case TabCategories:
		r.categories()
	case TabTransforms:
		r.transforms()
	case TabHypotheses:
		r.hypotheses()
	case TabRecipients:
		r.recipients()
	case TabNIH:
		r.nih()
	case TabAssets:
		r.assets()
	}
	r.warnings(t.sections())

	out := strings.TrimRight(r.b.String(), "\n")
	if out == "" {
		return theme.Muted.Render("Nothing to show for this tab")
	}
	return out
}

func (r *renderer) heading(format string, args ...any) {
	r.b.WriteString(r.theme.Heading.Render(fmt.Sprintf(format, args...)))
	r.b.WriteString("\n")
}

func (r *renderer) line(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteString("\n")
}

func (r *renderer) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		r.line("%s", r.theme.Muted.Render("(no rows)"))
		return
	}
	r.b.WriteString(cli.Table(header, rows))
}

func (r *renderer) muted(text string) {
	r.line("%s", r.theme.Muted.Render(text))
}

// bar draws a fraction in [0, 1] as a fixed-width block bar.
func bar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (r *renderer) overview() {
	rep := r.data.Report
	r.line("%s", r.theme.Title.Render("Grant Analysis"))
	r.line("%s", r.theme.Subtitle.Render(fmt.Sprintf("Run %s, generated %s",
		rep.RunID, rep.GeneratedAt.Format("2006-01-02 15:04"))))

	if o := rep.Overview; o != nil {
		r.heading("Headline")
		r.table([]string{"Metric", "Value"}, [][]string{
			{"Grants", cli.Count(o.Grants)},
			{"Grantmakers", cli.Count(o.Grantmakers)},
			{"Companies", cli.Count(o.Companies)},
			{"Categories", cli.Count(o.Categories)},
			{"Total funding", cli.MoneyShort(o.Total)},
			{"Mean grant", cli.Money(o.Mean)},
			{"Median grant", cli.Money(o.Median)},
		})
	}

	if len(rep.Comparative) > 0 {
		r.heading("Across companies")
		r.findingLines(rep.Comparative)
	}
	for _, f := range rep.Findings {
		r.heading("%s", f.Company)
		r.findingLines(f.Lines)
	}
}

func (r *renderer) findingLines(lines []analysis.FindingLine) {
	for _, l := range lines {
		r.line("• %s %s", r.theme.Bold.Render(l.Label+":"), l.Text)
	}
}

func (r *renderer) quality() {
	q := r.data.Report.Quality
	if q == nil {
		return
	}
	if c := q.Cleaning; c != nil {
		r.heading("Grant retention after cleaning")
		width := 0
		for _, org := range c.Orgs {
			width = max(width, len(org))
		}
		for _, org := range c.Orgs {
			ret := c.ByOrg[org].GrantsRetention()
			r.line("%-*s %s %s", width, org, r.retentionStyle(ret).Render(bar(ret, 24)), cli.Percent(ret*100))
		}

		rows := make([][]string, 0, len(c.Orgs)+1)
		for _, org := range c.Orgs {
			rows = append(rows, orgReportRow(org, c.ByOrg[org]))
		}
		rows = append(rows, orgReportRow("Total", c.Totals()))
		r.heading("Rows removed")
		r.table([]string{"Company", "Grants", "Removed", "Kept", "Grantmakers", "Removed", "Kept"}, rows)
	}

	if len(q.Missing) > 0 {
		r.heading("Missing values after merge")
		rows := make([][]string, len(q.Missing))
		for i, m := range q.Missing {
			rows[i] = []string{m.Column, cli.Count(m.Count), cli.Percent(m.Pct)}
		}
		r.table([]string{"Column", "Missing", "Share"}, rows)
	}
}

func orgReportRow(name string, c model.OrgReport) []string {
	return []string{
		name,
		cli.Count(c.GrantsOriginal),
		cli.Count(c.GrantsRemoved),
		cli.Count(c.GrantsFinal),
		cli.Count(c.GrantmakersOriginal),
		cli.Count(c.GrantmakersRemoved),
		cli.Count(c.GrantmakersFinal),
	}
}

func (r *renderer) retentionStyle(ret float64) lipgloss.Style {
	switch {
	case ret >= 0.9:
		return r.theme.Good
	case ret >= 0.7:
		return r.theme.Caution
	default:
		return r.theme.Bad
	}
}

func (r *renderer) companies() {
	rep := r.data.Report
	if len(rep.Companies) > 0 {
		var total float64
		for _, c := range rep.Companies {
			total += c.Total
		}
		rows := make([][]string, len(rep.Companies))
		for i, c := range rep.Companies {
			share := 0.0
			if total > 0 {
				share = c.Total / total
			}
			rows[i] = []string{
				c.Company,
				cli.Count(c.Count),
				cli.MoneyShort(c.Total),
				cli.Money(c.Mean),
				cli.Money(c.Median),
				cli.Count(c.Grantmakers),
				bar(share, 12) + " " + cli.Percent(share*100),
			}
		}
		r.heading("Company comparison")
		r.table([]string{"Company", "Grants", "Total", "Mean", "Median", "Grantmakers", "Share of funding"}, rows)
	}

	for _, sa := range rep.States {
		r.heading("States: %s", stateLabel(sa.Company))
		r.line("Top five states hold %s of total giving.", r.theme.Bold.Render(cli.Percent(sa.Top5Share)))
		rows := make([][]string, 0, max(len(sa.ByCount), len(sa.ByGiving)))
		for i := range max(len(sa.ByCount), len(sa.ByGiving)) {
			row := make([]string, 4)
			if i < len(sa.ByCount) {
				row[0] = sa.ByCount[i].State
				row[1] = cli.Count(sa.ByCount[i].Grantmakers)
			}
			if i < len(sa.ByGiving) {
				row[2] = sa.ByGiving[i].State
				row[3] = cli.MoneyShort(sa.ByGiving[i].TotalGiving)
			}
			rows = append(rows, row)
		}
		r.table([]string{"By count", "Grantmakers", "By giving", "Total giving"}, rows)
	}
}

func stateLabel(company string) string {
	if company == "" {
		return "All companies"
	}
	return company
}

func (r *renderer) distribution() {
	for _, d := range r.data.Report.Distributions {
		r.heading("%s", d.Company)
		r.table([]string{"Statistic", "Value"}, [][]string{
			{"Grants", cli.Count(d.Count)},
			{"Mean", cli.Money(d.Mean)},
			{"Median", cli.Money(d.Median)},
			{"Std", cli.Money(d.Std)},
			{"Min / Max", cli.Money(d.Min) + " / " + cli.Money(d.Max)},
			{"Q1 / Q3", cli.Money(d.Q1) + " / " + cli.Money(d.Q3)},
			{"IQR", cli.Money(d.IQR)},
			{"Skewness", cli.Number(d.Skewness, 3)},
			{"Kurtosis", cli.Number(d.Kurtosis, 3)},
			{"Outliers", fmt.Sprintf("%s (%s)", cli.Count(d.OutlierCount), cli.Percent(d.OutlierPct))},
		})
		if d.RightSkewed() {
			r.muted("Right skewed: a few large grants pull the mean above the median.")
		}
	}
}

func (r *renderer) trends() {
	for _, t := range r.data.Report.Trends {
		r.heading("%s", t.Company)
		var peak float64
		for _, y := range t.Years {
			peak = max(peak, y.Total)
		}
		rows := make([][]string, len(t.Years))
		for i, y := range t.Years {
			growth := "n/a"
			if y.Growth != nil {
				growth = fmt.Sprintf("%+.1f%%", *y.Growth)
			}
			fraction := 0.0
			if peak > 0 {
				fraction = y.Total / peak
			}
			rows[i] = []string{
				fmt.Sprintf("%d", y.Year),
				cli.Count(y.Count),
				cli.MoneyShort(y.Total),
				growth,
				bar(fraction, 20),
			}
		}
		r.table([]string{"Year", "Grants", "Total", "Growth", ""}, rows)
	}
}

func (r *renderer) categories() {
	for _, c := range r.data.Report.Categories {
		r.heading("%s", c.Company)
		var count int
		for _, row := range c.Summary {
			count += row.Count
		}
		rows := make([][]string, len(c.Summary))
		for i, row := range c.Summary {
			share := 0.0
			if count > 0 {
				share = float64(row.Count) / float64(count)
			}
			rows[i] = []string{
				row.Category,
				cli.Count(row.Count),
				bar(share, 12) + " " + cli.Percent(share*100),
				cli.MoneyShort(row.Total),
				cli.Money(row.Mean),
			}
		}
		r.table([]string{"Category", "Grants", "Share", "Total", "Mean"}, rows)
	}
}

func (r *renderer) transforms() {
	t := r.data.Report.Transforms
	if t == nil {
		return
	}
	r.heading("Power transforms")
	r.line("%s positive amounts, Box-Cox lambda %s", cli.Count(t.Count), cli.Number(t.Lambda, 4))
	r.table([]string{"Values", "Skewness", "Shapiro-Wilk", "D'Agostino K²"}, [][]string{
		r.normalityRow("Original", t.Original),
		r.normalityRow("Box-Cox", t.BoxCox),
	})

	r.heading("Skewness by transform")
	r.table([]string{"Transform", "Skewness"}, [][]string{
		{"Original", cli.Number(t.Original.Skewness, 4)},
		{"Box-Cox", cli.Number(t.BoxCox.Skewness, 4)},
		{"Natural log", cli.Number(t.LogSkew, 4)},
		{"Common log", cli.Number(t.Log10Skew, 4)},
	})
	if t.Best != "" {
		r.line("Best transform: %s (|skewness| %s)", r.theme.Bold.Render(t.Best), cli.Number(t.BestSkew, 4))
	}
}

func (r *renderer) normalityRow(label string, n analysis.NormalityResult) []string {
	test := func(res *stats.TestResult) string {
		if res == nil {
			return "skipped"
		}
		return fmt.Sprintf("%s (p %s)", cli.Number(res.Statistic, 4), cli.PValue(res.PValue))
	}
	return []string{label, cli.Number(n.Skewness, 4), test(n.Shapiro), test(n.DAgostino)}
}

func (r *renderer) hypotheses() {
	rep := r.data.Report
	h := rep.Hypotheses
	if h == nil {
		return
	}
	r.line("Significance level %s", cli.Number(rep.Alpha, 2))

	if a := h.Assets; a != nil {
		r.heading("H1: higher-asset grantmakers give larger grants")
		r.line("Split at median assets of %s", cli.Money(a.AssetMedian))
		r.table([]string{"Group", "N", "Mean", "Median"}, [][]string{
			{"High assets", cli.Count(a.High.N), cli.Money(a.High.Mean), cli.Money(a.High.Median)},
			{"Low assets", cli.Count(a.Low.N), cli.Money(a.Low.Mean), cli.Money(a.Low.Median)},
		})
		r.testLine("Student t-test", "t", a.TTest)
		r.testLine("Mann-Whitney", "U", a.MannWhitney)
	}
	if c := h.Counts; c != nil {
		r.heading("H2: grantmakers with more grants give more in total")
		r.line("%s grantmakers", cli.Count(c.Grantmakers))
		r.testLine("Pearson", "r", c.Pearson)
		r.testLine("Spearman", "rho", c.Spearman)
	}
	if c := h.Categories; c != nil {
		r.heading("H3: grant amounts differ by category")
		names := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			names[i] = string(cat)
		}
		r.line("Groups: %s", strings.Join(names, ", "))
		r.testLine("One-way ANOVA", "F", c.ANOVA)
	}
}

func (r *renderer) testLine(name, symbol string, res stats.TestResult) {
	alpha := r.data.Report.Alpha
	verdict := r.theme.Muted.Render("not significant")
	if res.SignificantAt(alpha) {
		verdict = r.theme.Good.Render("significant")
	}
	r.line("%s %s = %s, p = %s  %s",
		r.theme.Bold.Render(name+":"), symbol, cli.Number(res.Statistic, 4), cli.PValue(res.PValue), verdict)
}

func (r *renderer) recipients() {
	for _, ra := range r.data.Report.Recipients {
		r.heading("%s", ra.Company)
		r.line("%s unique recipients, %s repeat (%s)",
			cli.Count(ra.Unique), cli.Count(ra.Repeat), cli.Percent(ra.RepeatPct))

		rows := make([][]string, len(ra.Top))
		for i, t := range ra.Top {
			rows[i] = []string{t.Recipient, cli.Count(t.Count), cli.MoneyShort(t.Total)}
		}
		r.table([]string{"Recipient", "Grants", "Total"}, rows)

		if len(ra.Subjects) > 0 {
			rows = make([][]string, len(ra.Subjects))
			for i, s := range ra.Subjects {
				rows[i] = []string{s.Subject, cli.Count(s.Count), cli.MoneyShort(s.Total)}
			}
			r.table([]string{"Subject", "Grants", "Total"}, rows)
		}
	}
}

func (r *renderer) nih() {
	if r.data.NIHErr != nil {
		r.line("%s", r.theme.Bad.Render("NIH data unavailable: "+r.data.NIHErr.Error()))
		return
	}
	d := r.data.NIH
	if d == nil {
		r.muted("NIH data was not loaded")
		return
	}

	r.line("%s awards from %s", cli.Count(len(d.Awards)), d.Dir)
	for _, name := range d.Failed() {
		r.line("%s", r.theme.Caution.Render(fmt.Sprintf("%s: %v", name, d.Errors[name])))
	}

	if agencies := nih.TopAgencies(d.Awards, r.topN); len(agencies) > 0 {
		r.heading("Top agencies")
		rows := make([][]string, len(agencies))
		for i, a := range agencies {
			first, last := "", ""
			if len(a.Years) > 0 {
				first = fmt.Sprintf("%d", a.Years[0].FiscalYear)
				last = fmt.Sprintf("%d", a.Years[len(a.Years)-1].FiscalYear)
			}
			rows[i] = []string{a.Agency, cli.MoneyShort(a.Total), first + "-" + last}
		}
		r.table([]string{"Agency", "Total", "Years"}, rows)
	}

	for _, kind := range nih.AllTopicKinds() {
		topics := nih.TopTopics(d.Topics[kind], r.topN)
		if len(topics) == 0 {
			continue
		}
		r.heading("Top %s topics", kind)
		rows := make([][]string, len(topics))
		for i, t := range topics {
			rows[i] = []string{t.Topic, cli.MoneyShort(t.Total), cli.Count(len(t.Years))}
		}
		r.table([]string{"Topic", "Total", "Years"}, rows)
	}

	if orgs := nih.OrganizationDistributions(d.Awards); len(orgs) > 0 {
		r.heading("Awards by organization")
		rows := make([][]string, 0, min(len(orgs), r.topN))
		for _, o := range orgs[:min(len(orgs), r.topN)] {
			rows = append(rows, []string{
				o.Organization,
				cli.Count(o.Amount.Count),
				cli.Money(o.Amount.Median),
				cli.Number(o.Duration.Median, 0),
			})
		}
		r.table([]string{"Organization", "Awards", "Median award", "Median days"}, rows)
	}
}

func (r *renderer) assets() {
	results := r.data.Assets
	if len(results) == 0 {
		r.muted("No asset manifest was checked")
		return
	}
	s := assets.Summarize(results)
	r.line("%d of %d pages complete, %d assets present, %d missing",
		s.PagesOK, s.Pages, s.Present, s.Missing)

	for _, p := range results {
		if p.OK() {
			r.line("%s %s (%d assets)", r.theme.Good.Render("✓"), p.Page.Name, p.Present)
			continue
		}
		r.line("%s %s", r.theme.Bad.Render("✗"), p.Message())
		for _, a := range p.Missing {
			r.line("    %s", r.theme.Muted.Render(a.File))
		}
	}
}

func (r *renderer) warnings(sections []analysis.Section) {
	rep := r.data.Report
	var lines []string
	for _, s := range sections {
		for _, w := range rep.WarningsFor(s) {
			lines = append(lines, r.theme.Caution.Render("⚠ "+w.Message))
		}
	}
	if len(lines) == 0 {
		return
	}
	r.heading("Skipped")
	for _, l := range lines {
		r.line("%s", l)
	}
}
