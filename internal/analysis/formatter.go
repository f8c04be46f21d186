package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/stats"
)

// CLIFormatter renders reports for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// WithWidth returns a formatter whose boxes fit the given terminal width.
func (f *CLIFormatter) WithWidth(width int) *CLIFormatter {
	return &CLIFormatter{styles: f.styles.WithWidth(width)}
}

// FormatSummary creates a high-level summary of the report: headline
// numbers, cleaning retention, hypothesis verdicts, findings and warnings.
func (f *CLIFormatter) FormatSummary(report *Report) string {
	if report == nil {
		return f.styles.Error.Render("No report available")
	}

	sections := []string{f.formatHeader(report)}

	if report.Overview != nil {
		sections = append(sections, f.formatQuickStats(report.Overview))
	}
	if report.Quality != nil && report.Quality.Cleaning != nil {
		sections = append(sections, f.formatRetention(report.Quality))
	}
	if report.Hypotheses != nil {
		sections = append(sections, f.FormatHypotheses(report))
	}
	if len(report.Comparative) > 0 {
		sections = append(sections, f.formatFindings("Key Findings", report.Comparative))
	}
	if len(report.Warnings) > 0 {
		sections = append(sections, f.formatWarnings(report.Warnings))
	}

	return strings.Join(sections, "\n\n")
}

// FormatHypotheses lists each test with its statistic, p-value and verdict.
func (f *CLIFormatter) FormatHypotheses(report *Report) string {
	title := f.styles.SectionHeader.Render(cli.ChartIcon + " Hypothesis Tests")
	h := report.Hypotheses
	if h == nil {
		return title + "\n" + f.styles.Subtle.Render("Not computed")
	}

	var lines []string
	if h.Assets != nil {
		lines = append(lines,
			f.formatTest("H1 asset size, t-test", "t", h.Assets.TTest, report.Alpha),
			f.formatTest("H1 asset size, Mann-Whitney", "U", h.Assets.MannWhitney, report.Alpha))
	}
	if h.Counts != nil {
		lines = append(lines,
			f.formatTest("H2 grant count, Pearson", "r", h.Counts.Pearson, report.Alpha),
			f.formatTest("H2 grant count, Spearman", "rho", h.Counts.Spearman, report.Alpha))
	}
	if h.Categories != nil {
		lines = append(lines, f.formatTest("H3 category, ANOVA", "F", h.Categories.ANOVA, report.Alpha))
	}
	if len(lines) == 0 {
		lines = append(lines, f.styles.Subtle.Render("Every test was skipped"))
	}

	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatHeader(report *Report) string {
	title := f.styles.Title.Render(cli.GrantIcon + " Grant Analysis Report")
	run := f.styles.Subtitle.Render(fmt.Sprintf("Run: %s", report.RunID))
	generated := f.styles.Subtle.Render(fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	return fmt.Sprintf("%s\n%s\n%s", title, run, generated)
}

func (f *CLIFormatter) formatQuickStats(o *Overview) string {
	items := []struct {
		label string
		value string
	}{
		{label: "Grants", value: cli.Count(o.Grants)},
		{label: "Grantmakers", value: cli.Count(o.Grantmakers)},
		{label: "Companies", value: cli.Count(o.Companies)},
		{label: "Total", value: cli.MoneyShort(o.Total)},
		{label: "Median", value: cli.Money(o.Median)},
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		label := f.styles.Subtle.Render(item.label + ":")
		parts = append(parts, fmt.Sprintf("%s %s", label, f.styles.Stat.Render(item.value)))
	}
	return f.styles.Box.Render(strings.Join(parts, "  │  "))
}

func (f *CLIFormatter) formatRetention(q *Quality) string {
	title := f.styles.SectionHeader.Render("Cleaning Retention")

	width := 0
	for _, org := range q.Cleaning.Orgs {
		width = max(width, len(org))
	}

	lines := make([]string, 0, len(q.Cleaning.Orgs))
	for _, org := range q.Cleaning.Orgs {
		r := q.Cleaning.ByOrg[org].GrantsRetention()
		style := f.styles.ForRetention(r)
		lines = append(lines, fmt.Sprintf("%-*s %s %s",
			width, org,
			style.Render(f.styles.RenderProgressBar(r, 20)),
			style.Render(cli.Percent(r*100))))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatTest(name, symbol string, r stats.TestResult, alpha float64) string {
	style := f.styles.ForPValue(r.PValue, alpha)
	verdict := "not significant"
	if r.SignificantAt(alpha) {
		verdict = "significant"
	}
	return fmt.Sprintf("%s %s = %s, p = %s  %s",
		f.styles.Label.Render(name+":"),
		symbol,
		cli.Number(r.Statistic, 4),
		cli.PValue(r.PValue),
		style.Render(verdict))
}

func (f *CLIFormatter) formatFindings(title string, lines []FindingLine) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		bullet := f.styles.Info.Render("•")
		out = append(out, fmt.Sprintf("%s %s %s", bullet, f.styles.Label.Render(l.Label+":"), l.Text))
	}
	return f.styles.RenderBox(strings.Join(out, "\n"), title, f.styles.FindingBox)
}

func (f *CLIFormatter) formatWarnings(warnings []Warning) string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, fmt.Sprintf("%s %s", f.styles.Subtle.Render("["+string(w.Section)+"]"), w.Message))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), cli.WarningIcon+" Skipped analyses", f.styles.WarningBox)
}
