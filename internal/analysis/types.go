package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
	"github.com/Veraticus/grantlens/internal/storage"
)

// Section names one part of the report.
type Section string

// Report sections in display order.
const (
	SectionOverview     Section = "overview"
	SectionQuality      Section = "quality"
	SectionCompanies    Section = "companies"
	SectionStates       Section = "states"
	SectionDistribution Section = "distribution"
	SectionTrends       Section = "trends"
	SectionCategories   Section = "categories"
	SectionTransforms   Section = "transforms"
	SectionHypotheses   Section = "hypotheses"
	SectionRecipients   Section = "recipients"
	SectionFindings     Section = "findings"
)

// AllSections returns every section in display order.
func AllSections() []Section {
	return []Section{
		SectionOverview,
		SectionQuality,
		SectionCompanies,
		SectionStates,
		SectionDistribution,
		SectionTrends,
		SectionCategories,
		SectionTransforms,
		SectionHypotheses,
		SectionRecipients,
		SectionFindings,
	}
}

// Title returns the heading used when rendering the section.
func (s Section) Title() string {
	switch s {
	case SectionOverview:
		return "Executive Summary"
	case SectionQuality:
		return "Data Cleaning & Quality"
	case SectionCompanies:
		return "Company Comparison"
	case SectionStates:
		return "State Analysis"
	case SectionDistribution:
		return "Distribution & Outliers"
	case SectionTrends:
		return "Yearly Trends"
	case SectionCategories:
		return "Categories"
	case SectionTransforms:
		return "Transformations & Normality"
	case SectionHypotheses:
		return "Hypothesis Tests"
	case SectionRecipients:
		return "Recipients & Subjects"
	case SectionFindings:
		return "Key Findings"
	default:
		return string(s)
	}
}

// ParseSection resolves a section name, case-insensitively.
func ParseSection(name string) (Section, error) {
	want := Section(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range AllSections() {
		if s == want {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// Warning records a section, or part of one, that was skipped because its
// statistical precondition did not hold.
type Warning struct {
	Section Section
	Message string
}

// Overview holds the headline metrics over all companies.
type Overview struct {
	Grants      int
	Grantmakers int
	Companies   int
	Categories  int
	Total       float64
	Mean        float64
	Median      float64
}

// MissingColumn counts null cells in one merged column.
type MissingColumn struct {
	Column string
	Count  int
	Pct    float64
}

// Quality describes what cleaning removed and what is still missing.
type Quality struct {
	Cleaning *model.CleaningReport
	Missing  []MissingColumn
}

// StateAnalysis ranks states for one company, or all when Company is empty.
type StateAnalysis struct {
	Company  string
	ByCount  []storage.StateRow
	ByGiving []storage.StateRow
	// Top5Share is the percentage of total giving held by the five largest states.
	Top5Share float64
}

// Distribution summarizes one company's grant amounts.
type Distribution struct {
	Company string
	stats.Summary
}

// YearPoint is one year of a company's trend. Growth is the percentage change
// in total from the previous listed year; nil for the first year or when the
// previous total was zero.
type YearPoint struct {
	Growth *float64
	storage.YearRow
}

// Trend is a company's year-by-year totals.
type Trend struct {
	Company string
	Years   []YearPoint
}

// CategoryBreakdown is a company's category summary and category trend.
type CategoryBreakdown struct {
	Company string
	Summary []storage.CategoryRow
	Trend   []storage.CategoryYearRow
}

// NormalityResult holds both normality tests for one sample. A nil test was
// skipped.
type NormalityResult struct {
	Shapiro   *stats.TestResult
	DAgostino *stats.TestResult
	Skewness  float64
}

// Transforms compares power transforms of all grant amounts.
type Transforms struct {
	Original  NormalityResult
	BoxCox    NormalityResult
	Best      string
	Count     int
	Lambda    float64
	LogSkew   float64
	Log10Skew float64
	BestSkew  float64
}

// GroupSummary describes one side of a two-group comparison.
type GroupSummary struct {
	N      int
	Mean   float64
	Median float64
}

// AssetTest is H1: grantmakers with higher assets give larger grants.
type AssetTest struct {
	High        GroupSummary
	Low         GroupSummary
	TTest       stats.TestResult
	MannWhitney stats.TestResult
	AssetMedian float64
}

// CountFundingTest is H2: grantmakers making more grants give more in total.
type CountFundingTest struct {
	Pearson     stats.TestResult
	Spearman    stats.TestResult
	Grantmakers int
}

// CategoryTest is H3: grant amounts differ across categories.
type CategoryTest struct {
	Categories []model.Category
	ANOVA      stats.TestResult
}

// Hypotheses holds the three tests. A nil test was skipped with a warning.
type Hypotheses struct {
	Assets     *AssetTest
	Counts     *CountFundingTest
	Categories *CategoryTest
}

// RecipientAnalysis covers a company's recipients and subjects.
type RecipientAnalysis struct {
	Company   string
	Top       []storage.RecipientRow
	Subjects  []storage.SubjectRow
	Unique    int
	Repeat    int
	RepeatPct float64
}

// FindingLine is one labeled summary statement.
type FindingLine struct {
	Label string
	Text  string
}

// Finding is the list of summary lines for one company.
type Finding struct {
	Company string
	Lines   []FindingLine
}

// Report is the full analysis of one dataset.
type Report struct {
	GeneratedAt   time.Time
	Transforms    *Transforms
	Overview      *Overview
	Quality       *Quality
	Hypotheses    *Hypotheses
	ID            string
	RunID         string
	Companies     []storage.CompanyMetric
	States        []StateAnalysis
	Distributions []Distribution
	Trends        []Trend
	Categories    []CategoryBreakdown
	Recipients    []RecipientAnalysis
	Findings      []Finding
	Comparative   []FindingLine
	Warnings      []Warning
	Sections      []Section
	Alpha         float64
}

// Has reports whether the section was requested for this report.
func (r *Report) Has(s Section) bool {
	for _, x := range r.Sections {
		if x == s {
			return true
		}
	}
	return false
}

// WarningsFor returns the warnings raised by one section.
func (r *Report) WarningsFor(s Section) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Section == s {
			out = append(out, w)
		}
	}
	return out
}

func (r *Report) warn(s Section, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Section: s, Message: fmt.Sprintf(format, args...)})
}
