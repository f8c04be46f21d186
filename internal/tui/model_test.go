package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/nih"
	"github.com/Veraticus/grantlens/internal/stats"
	"github.com/Veraticus/grantlens/internal/storage"
	"github.com/Veraticus/grantlens/internal/tui/themes"
)

func testReport() *analysis.Report {
	cleaning := model.NewCleaningReport("run-7", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	cleaning.Add("Corewell", model.OrgReport{GrantsOriginal: 10, GrantsRemoved: 1, GrantsFinal: 9, GrantmakersOriginal: 3, GrantmakersFinal: 3})
	cleaning.Add("Kaiser", model.OrgReport{GrantsOriginal: 4, GrantsRemoved: 2, GrantsFinal: 2, GrantmakersOriginal: 2, GrantmakersFinal: 2})

	growth := 25.0
	return &analysis.Report{
		RunID:       "run-7",
		GeneratedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Alpha:       0.05,
		Overview:    &analysis.Overview{Grants: 11, Grantmakers: 5, Companies: 2, Categories: 3, Total: 52000, Mean: 4727, Median: 3000},
		Quality: &analysis.Quality{
			Cleaning: cleaning,
			Missing:  []analysis.MissingColumn{{Column: "state", Count: 2, Pct: 18.2}},
		},
		Companies: []storage.CompanyMetric{
			{Company: "Corewell", Count: 9, Total: 40000, Mean: 4444, Median: 3000, Grantmakers: 3},
			{Company: "Kaiser", Count: 2, Total: 12000, Mean: 6000, Median: 6000, Grantmakers: 2},
		},
		States: []analysis.StateAnalysis{{
			ByCount:   []storage.StateRow{{State: "MI", Grantmakers: 3, TotalGiving: 9e6}},
			ByGiving:  []storage.StateRow{{State: "CA", Grantmakers: 1, TotalGiving: 2e7}},
			Top5Share: 100,
		}},
		Distributions: []analysis.Distribution{{Company: "Corewell", Summary: stats.Summary{Count: 9, Mean: 4444, Median: 3000, Skewness: 1.4, OutlierCount: 1, OutlierPct: 11.1}}},
		Trends: []analysis.Trend{{Company: "Corewell", Years: []analysis.YearPoint{
			{YearRow: storage.YearRow{Year: 2021, Count: 4, Total: 16000}},
			{YearRow: storage.YearRow{Year: 2022, Count: 5, Total: 20000}, Growth: &growth},
		}}},
		Categories: []analysis.CategoryBreakdown{{Company: "Corewell", Summary: []storage.CategoryRow{
			{Category: "Healthcare", Count: 6, Total: 30000, Mean: 5000},
			{Category: "Education", Count: 3, Total: 10000, Mean: 3333},
		}}},
		Transforms: &analysis.Transforms{
			Count:    11,
			Lambda:   0.12,
			Best:     "Box-Cox",
			BestSkew: 0.01,
			Original: analysis.NormalityResult{Skewness: 1.9, Shapiro: &stats.TestResult{Statistic: 0.8, PValue: 0.001}},
			BoxCox:   analysis.NormalityResult{Skewness: 0.01},
		},
		Hypotheses: &analysis.Hypotheses{
			Counts: &analysis.CountFundingTest{
				Pearson:     stats.TestResult{Statistic: 0.91, PValue: 0.002},
				Spearman:    stats.TestResult{Statistic: 0.4, PValue: 0.3},
				Grantmakers: 5,
			},
		},
		Recipients: []analysis.RecipientAnalysis{{
			Company: "Corewell",
			Top:     []storage.RecipientRow{{Recipient: "Detroit Clinic", Count: 3, Total: 15000}},
			Unique:  6,
			Repeat:  2,
		}},
		Findings:    []analysis.Finding{{Company: "Corewell", Lines: []analysis.FindingLine{{Label: "Top category", Text: "Healthcare"}}}},
		Comparative: []analysis.FindingLine{{Label: "Largest funder", Text: "Corewell"}},
		Warnings:    []analysis.Warning{{Section: analysis.SectionHypotheses, Message: "asset test skipped: no assets"}},
	}
}

func testData() *Data {
	return &Data{
		Report: testReport(),
		NIH: &nih.Data{
			Dir: "/data/nih",
			Awards: []model.Award{
				{MainOrganization: "Henry Ford Health System", AgencyName: "NCI", FiscalYear: 2020, AwardAmount: 500000, DurationDays: 365},
				{MainOrganization: "Henry Ford Health System", AgencyName: "NHLBI", FiscalYear: 2021, AwardAmount: 200000, DurationDays: 730},
			},
			Topics: map[nih.TopicKind][]model.TopicSummary{
				nih.TopicMain: {{Topic: "Oncology", FiscalYear: 2020, AwardAmountSum: 900000}},
			},
			Errors: map[string]error{"agency_locations.csv": errors.New("file not found")},
		},
		Assets: []assets.PageResult{
			{Page: assets.Page{Name: "Q1 Research Themes"}, Present: 8},
			{Page: assets.Page{Name: "Q3 Portfolio Evolution"}, DirMissing: true, MissingDir: "q3_package/images"},
		},
	}
}

func staticLoader(d *Data, err error) LoadFunc {
	return func(context.Context) (*Data, error) { return d, err }
}

func loadedModel(t *testing.T, load LoadFunc) Model {
	t.Helper()
	cfg := defaultConfig()
	cfg.Theme = themes.Plain
	cfg.Width = 200
	cfg.Height = 40
	m := newModel(context.Background(), load, cfg)

	updated, _ := m.Update(m.loadData()())
	return updated.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAllTabs(t *testing.T) {
	tabs := AllTabs()
	require.Len(t, tabs, 11)
	assert.Equal(t, TabOverview, tabs[0])
	assert.Equal(t, TabAssets, tabs[10])
	for _, tab := range tabs {
		assert.NotContains(t, tab.Title(), "Tab ", "tab %d has no title", int(tab))
	}
}

func TestRenderTab(t *testing.T) {
	data := testData()

	tests := []struct {
		tab  Tab
		want []string
	}{
		{TabOverview, []string{"Run run-7", "Grants", "$52.0K", "Largest funder:", "Top category:"}},
		{TabQuality, []string{"Corewell", "90.0%", "Total", "state", "18.2%"}},
		{TabCompanies, []string{"Corewell", "76.9%", "All companies", "MI", "CA", "100.0%"}},
		{TabDistribution, []string{"Corewell", "Right skewed", "1 (11.1%)"}},
		{TabTrends, []string{"2021", "+25.0%", "n/a"}},
		{TabCategories, []string{"Healthcare", "66.7%"}},
		{TabTransforms, []string{"Box-Cox", "skipped", "0.8000 (p 0.001000)"}},
		{TabHypotheses, []string{"H2", "r = 0.9100", "significant", "asset test skipped: no assets"}},
		{TabRecipients, []string{"Detroit Clinic", "6 unique recipients"}},
		{TabNIH, []string{"2 awards", "NCI", "Oncology", "agency_locations.csv", "Henry Ford Health System"}},
		{TabAssets, []string{"1 of 2 pages complete", "Q1 Research Themes", "directory not found: q3_package/images"}},
	}

	for _, tt := range tests {
		t.Run(tt.tab.Title(), func(t *testing.T) {
			out := renderTab(tt.tab, data, themes.Plain, 10)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRenderTab_WarningsStayOnTheirTab(t *testing.T) {
	data := testData()
	assert.Contains(t, renderTab(TabHypotheses, data, themes.Plain, 10), "Skipped")
	assert.NotContains(t, renderTab(TabTrends, data, themes.Plain, 10), "asset test skipped")
}

func TestRenderTab_MissingData(t *testing.T) {
	assert.Contains(t, renderTab(TabOverview, nil, themes.Plain, 10), "No report loaded")

	data := &Data{Report: &analysis.Report{}}
	assert.Contains(t, renderTab(TabNIH, data, themes.Plain, 10), "NIH data was not loaded")
	assert.Contains(t, renderTab(TabAssets, data, themes.Plain, 10), "No asset manifest")
	assert.Contains(t, renderTab(TabTransforms, data, themes.Plain, 10), "Nothing to show")

	data.NIHErr = nih.ErrDataDirMissing
	assert.Contains(t, renderTab(TabNIH, data, themes.Plain, 10), "NIH data unavailable")
}

func TestModel_Load(t *testing.T) {
	m := loadedModel(t, staticLoader(testData(), nil))
	assert.Equal(t, StateReady, m.State())
	assert.NoError(t, m.Err())
	assert.Contains(t, m.View(), "Overview")
	assert.Contains(t, m.View(), "1 skipped")
}

func TestModel_LoadError(t *testing.T) {
	m := loadedModel(t, staticLoader(nil, errors.New("grants file unreadable")))
	assert.Equal(t, StateError, m.State())
	assert.Contains(t, m.View(), "grants file unreadable")

	m, cmd := press(t, m, runes("r"))
	assert.Equal(t, StateLoading, m.State())
	assert.NotNil(t, cmd)
}

func TestModel_NilReportIsAnError(t *testing.T) {
	m := loadedModel(t, staticLoader(&Data{}, nil))
	assert.Equal(t, StateError, m.State())
}

func TestModel_TabNavigation(t *testing.T) {
	m := loadedModel(t, staticLoader(testData(), nil))

	tests := []struct {
		name string
		key  tea.KeyMsg
		want Tab
	}{
		{name: "tab", key: tea.KeyMsg{Type: tea.KeyTab}, want: TabQuality},
		{name: "right", key: tea.KeyMsg{Type: tea.KeyRight}, want: TabCompanies},
		{name: "shift+tab", key: tea.KeyMsg{Type: tea.KeyShiftTab}, want: TabQuality},
		{name: "left", key: tea.KeyMsg{Type: tea.KeyLeft}, want: TabOverview},
		{name: "wraps backwards", key: runes("h"), want: TabAssets},
		{name: "wraps forwards", key: runes("l"), want: TabOverview},
	}

	for _, tt := range tests {
		m, _ = press(t, m, tt.key)
		assert.Equal(t, tt.want, m.Tab(), tt.name)
	}
}

func TestModel_KeysIgnoredWhileLoading(t *testing.T) {
	cfg := defaultConfig()
	m := newModel(context.Background(), staticLoader(testData(), nil), cfg)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabOverview, m.Tab())
	assert.Contains(t, m.View(), "Loading grant data")
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := loadedModel(t, staticLoader(testData(), nil))
		m, cmd := press(t, m, key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, m.View())
	}
}

func TestModel_ResizeAndHelp(t *testing.T) {
	m := loadedModel(t, staticLoader(testData(), nil))

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = updated.(Model)
	assert.Equal(t, 60, m.viewport.Width)
	assert.Equal(t, 20-chromeHeight, m.viewport.Height)
	assert.Contains(t, m.renderTabBar(), "(1/11)", "narrow terminals show only the active tab")

	m, _ = press(t, m, runes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Less(t, m.viewport.Height, 20-chromeHeight)
}

func TestModel_Scroll(t *testing.T) {
	m := loadedModel(t, staticLoader(testData(), nil))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: chromeHeight + 3})
	m = updated.(Model)

	m, _ = press(t, m, runes("G"))
	assert.True(t, m.viewport.AtBottom())
	m, _ = press(t, m, runes("g"))
	assert.True(t, m.viewport.AtTop())
	m, _ = press(t, m, runes("j"))
	assert.Equal(t, 1, m.viewport.YOffset)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.viewport.AtTop(), "switching tabs scrolls to the top")
}

func TestRun_RequiresLoader(t *testing.T) {
	err := Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loader"))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", bar(0.5, 10))
	assert.Equal(t, "░░░░░░░░░░", bar(-1, 10))
	assert.Equal(t, "██████████", bar(2, 10))
}
