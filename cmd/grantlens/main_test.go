package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/grantlens/internal/analysis"
	"github.com/Veraticus/grantlens/internal/assets"
	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/nih"
	"github.com/Veraticus/grantlens/internal/sheets"
	"github.com/Veraticus/grantlens/internal/storage"
	"github.com/Veraticus/grantlens/internal/testutil"
)

// execute runs the root command with a fresh global configuration and a home
// directory that holds no config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func grantData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.StandardOrganizations(t, dir)
	return dir
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "grantlens dev\n", out)
}

func TestInvalidFlags(t *testing.T) {
	dataDir := grantData(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "log level", args: []string{"--log-level", "loud", "version"}},
		{name: "report section", args: []string{"--data-dir", dataDir, "report", "--section", "weather"}},
		{name: "export section", args: []string{"--data-dir", dataDir, "export", "xlsx", "--section", "weather"}},
		{name: "nih grouping", args: []string{"--data-dir", dataDir, "nih", "--by", "county"}},
		{name: "nih top", args: []string{"--data-dir", dataDir, "nih", "--top", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestMissingDataDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := execute(t, "--data-dir", missing, "clean", "--quiet")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDataDirMissing)
	assert.Contains(t, common.UserMessage(err), "Data directory not found")
}

func TestClean(t *testing.T) {
	out, err := execute(t, "--data-dir", grantData(t), "clean", "--quiet")
	require.NoError(t, err)

	assert.Contains(t, out, "Data Cleaning Report")
	for _, name := range []string{"Corewell", "Henry Ford", "Kaiser", "Pittsburgh", "Total"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "Saved dataset")
}

func TestClean_SavesDataset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grants.db")
	t.Setenv("GRANTLENS_STORAGE_PATH", dbPath)

	out, err := execute(t, "--data-dir", grantData(t), "clean", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved dataset to "+dbPath)
	assert.FileExists(t, dbPath)
}

func TestCheckpoints(t *testing.T) {
	dataDir := grantData(t)

	_, err := execute(t, "--data-dir", dataDir, "checkpoint", "list")
	require.Error(t, err, "in-memory storage has no checkpoints")

	dbPath := filepath.Join(t.TempDir(), "grants.db")
	t.Setenv("GRANTLENS_STORAGE_PATH", dbPath)

	out, err := execute(t, "--data-dir", dataDir, "clean", "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, out, "kept as checkpoint", "nothing to keep on first save")

	out, err = execute(t, "--data-dir", dataDir, "clean", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Previous dataset kept as checkpoint auto-clean-")

	out, err = execute(t, "--data-dir", dataDir, "checkpoint", "create", "--tag", "manual-one", "-d", "by hand")
	require.NoError(t, err)
	assert.Contains(t, out, "Created checkpoint manual-one")

	out, err = execute(t, "--data-dir", dataDir, "checkpoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "manual-one")
	assert.Contains(t, out, "auto")

	out, err = executeWithInput(t, "n\n", "--data-dir", dataDir, "checkpoint", "restore", "manual-one")
	require.NoError(t, err)
	assert.Contains(t, out, "Restore cancelled")

	out, err = execute(t, "--data-dir", dataDir, "checkpoint", "restore", "manual-one", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored from checkpoint manual-one")

	out, err = executeWithInput(t, "y\n", "--data-dir", dataDir, "checkpoint", "delete", "manual-one")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted checkpoint manual-one")

	_, err = execute(t, "--data-dir", dataDir, "checkpoint", "delete", "manual-one", "--force")
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestReport(t *testing.T) {
	dataDir := grantData(t)

	t.Run("plain markdown", func(t *testing.T) {
		out, err := execute(t, "--data-dir", dataDir, "report", "--plain")
		require.NoError(t, err)
		assert.Contains(t, out, "# Grant Analysis Report")
		assert.Contains(t, out, "## "+analysis.SectionOverview.Title())
		assert.Contains(t, out, "## "+analysis.SectionHypotheses.Title())
	})

	t.Run("single section", func(t *testing.T) {
		out, err := execute(t, "--data-dir", dataDir, "report", "--plain", "--section", "quality")
		require.NoError(t, err)
		assert.Contains(t, out, "## "+analysis.SectionQuality.Title())
		assert.NotContains(t, out, "## "+analysis.SectionHypotheses.Title())
	})

	t.Run("rendered", func(t *testing.T) {
		out, err := execute(t, "--data-dir", dataDir, "report", "--section", "overview", "--width", "80")
		require.NoError(t, err)
		assert.Contains(t, out, "Grant Analysis Report")
	})

	t.Run("summary", func(t *testing.T) {
		out, err := execute(t, "--data-dir", dataDir, "report", "--summary")
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}

func TestAssets(t *testing.T) {
	emptyDir := t.TempDir()

	t.Run("reports missing pages", func(t *testing.T) {
		out, err := execute(t, "--data-dir", grantData(t), "assets", "--dir", emptyDir)
		require.NoError(t, err)
		assert.Contains(t, out, "directory not found")
		assert.Contains(t, out, "0 of")
	})

	t.Run("strict fails", func(t *testing.T) {
		_, err := execute(t, "--data-dir", grantData(t), "assets", "--dir", emptyDir, "--strict")
		require.Error(t, err)
		assert.ErrorIs(t, err, assets.ErrAssetsMissing)
	})
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := execute(t, "--data-dir", grantData(t), "export", "xlsx", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestExportSheets(t *testing.T) {
	mock := sheets.NewMockWriter()
	original := newSheetsWriter
	t.Cleanup(func() { newSheetsWriter = original })

	var gotConfig sheets.Config
	newSheetsWriter = func(_ context.Context, cfg sheets.Config) (sheets.ReportWriter, error) {
		gotConfig = cfg
		return mock, nil
	}

	t.Run("not configured", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
		_, err := execute(t, "--data-dir", grantData(t), "export", "sheets")
		assert.Error(t, err)
		assert.Empty(t, mock.Calls())
	})

	t.Run("writes tabs", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", filepath.Join(t.TempDir(), "sa.json"))
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")

		_, err := execute(t, "--data-dir", grantData(t), "export", "sheets", "--spreadsheet-id", "abc123")
		require.NoError(t, err)

		assert.Equal(t, "abc123", gotConfig.SpreadsheetID)
		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.NotEmpty(t, calls[0].Data.Tabs)
		assert.NotEmpty(t, calls[0].Data.RunID)
	})

	t.Run("write error", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", filepath.Join(t.TempDir(), "sa.json"))
		writeErr := errors.New("quota exceeded")
		mock.SetWriteError(writeErr)
		t.Cleanup(func() { mock.SetWriteError(nil) })

		_, err := execute(t, "--data-dir", grantData(t), "export", "sheets")
		assert.ErrorIs(t, err, writeErr)
	})
}

var awardHeader = []string{
	"Main_Organization", "organization_org_state", "agency_state",
	"agency_ic_admin_name", "fiscal_year", "award_amount", "duration_days",
}

func TestNIH(t *testing.T) {
	nihDir := t.TempDir()
	testutil.WriteCSV(t, nihDir, nih.FileAwards, awardHeader, [][]string{
		{"Corewell Health", "MI", "MD", "NCI", "2020", "100000", "365"},
		{"Corewell Health", "MI", "MD", "NIA", "2021", "75000", "400"},
		{"Kaiser Permanente", "CA", "MD", "NCI", "2021", "300000", "500"},
	})
	testutil.WriteCSV(t, nihDir, nih.FileMainTopics, []string{
		"Topic", "fiscal_year", "duration_days_sum", "duration_days_avg",
		"award_amount_sum", "award_amount_avg", "num_projects",
	}, [][]string{
		{"Oncology", "2020", "1000", "400", "500000", "250000", "2"},
	})
	t.Setenv("GRANTLENS_DATA_NIH_DIR", nihDir)
	dataDir := grantData(t)

	t.Run("summary", func(t *testing.T) {
		out, err := execute(t, "--data-dir", dataDir, "nih", "--states")
		require.NoError(t, err)
		assert.Contains(t, out, "NCI")
		assert.Contains(t, out, "Oncology")
		assert.Contains(t, out, "Kaiser Permanente")
		assert.Contains(t, out, nih.FileDiseaseTopics)
	})

	t.Run("save", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nih.db")
		t.Setenv("GRANTLENS_STORAGE_PATH", dbPath)

		out, err := execute(t, "--data-dir", dataDir, "nih", "--save", "--top", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Saved 3 awards to "+dbPath)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Setenv("GRANTLENS_DATA_NIH_DIR", filepath.Join(nihDir, "nope"))
		_, err := execute(t, "--data-dir", dataDir, "nih")
		require.Error(t, err)
		assert.ErrorIs(t, err, nih.ErrDataDirMissing)
	})
}

func TestSheetsTokenFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := sheetsTokenFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "grantlens", "sheets-token.json"), path)
}
