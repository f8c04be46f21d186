package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/grantlens/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// testDataset builds two companies with a handful of grants. Alpha's
// "Orphan Fund" has no grantmaker row.
func testDataset() *model.Dataset {
	grants := []model.Grant{
		{Company: "Alpha", GrantmakerName: "Fund A", RecipientName: "Clinic One", Amount: 1000, Year: 2018, Category: model.CategoryHealthcare, PrimarySubject: strPtr("Health")},
		{Company: "Alpha", GrantmakerName: "Fund A", RecipientName: "Clinic One", Amount: 3000, Year: 2019, Category: model.CategoryHealthcare, PrimarySubject: strPtr("Health")},
		{Company: "Alpha", GrantmakerName: "Fund B", RecipientName: "School Two", Amount: 500, Year: 2019, Category: model.CategoryEducation, Description: strPtr("school supplies")},
		{Company: "Alpha", GrantmakerName: "Orphan Fund", RecipientName: "", Amount: 250, Year: 2020, Category: model.CategoryUncategorized},
		{Company: "Beta", GrantmakerName: "Fund C", RecipientName: "Museum", Amount: 10000, Year: 2019, Category: model.CategoryArtsCulture, PrimarySubject: strPtr("Arts")},
	}
	grantmakers := []model.Grantmaker{
		{Company: "Alpha", Name: "Fund A", TotalAssets: 1e6, TotalGiving: 5e4, State: strPtr("MI")},
		{Company: "Alpha", Name: "Fund B", TotalAssets: 2e5, TotalGiving: 1e4, State: strPtr("OH")},
		{Company: "Beta", Name: "Fund C", TotalAssets: 5e6, TotalGiving: 3e5, State: strPtr("MI")},
		{Company: "Beta", Name: "Fund D", TotalAssets: 1e5, TotalGiving: 2e3, State: nil},
	}
	merged := make([]model.MergedGrant, len(grants))
	for i, g := range grants {
		merged[i] = model.MergedGrant{Grant: g}
		for _, gm := range grantmakers {
			if gm.Company == g.Company && gm.Name == g.GrantmakerName {
				merged[i].TotalAssets = floatPtr(gm.TotalAssets)
				merged[i].TotalGiving = floatPtr(gm.TotalGiving)
				merged[i].State = gm.State
				break
			}
		}
	}

	report := model.NewCleaningReport("run-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	report.Add("Alpha", model.OrgReport{GrantsOriginal: 5, GrantsRemoved: 1, GrantsFinal: 4, GrantmakersOriginal: 2, GrantmakersFinal: 2})
	report.Add("Beta", model.OrgReport{GrantsOriginal: 1, GrantsFinal: 1, GrantmakersOriginal: 3, GrantmakersRemoved: 1, GrantmakersFinal: 2})

	return &model.Dataset{Grants: grants, Grantmakers: grantmakers, Merged: merged, Report: report}
}

func seededStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store := createTestStorage(t)
	require.NoError(t, store.SaveDataset(context.Background(), testDataset()))
	return store
}

func TestNewSQLiteStorage(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{name: "memory", path: func(*testing.T) string { return MemoryPath }},
		{
			name: "file in nested directory",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "a", "b", "grants.db") },
		},
		{name: "empty path", path: func(*testing.T) string { return "  " }, wantErr: ErrEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.path(t))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			version, err := store.SchemaVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, ExpectedSchemaVersion, version)
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))

	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}

func TestSaveDataset(t *testing.T) {
	ctx := context.Background()
	store := seededStorage(t)

	n, err := store.GrantCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = store.GrantCount(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Saving again replaces rather than appends.
	require.NoError(t, store.SaveDataset(ctx, testDataset()))
	n, err = store.GrantCount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSaveDataset_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		name    string
		ds      func() *model.Dataset
		wantErr error
	}{
		{name: "nil dataset", ds: func() *model.Dataset { return nil }, wantErr: ErrNilParameter},
		{
			name: "nil report",
			ds: func() *model.Dataset {
				ds := testDataset()
				ds.Report = nil
				return ds
			},
			wantErr: ErrNilParameter,
		},
		{
			name: "missing run id",
			ds: func() *model.Dataset {
				ds := testDataset()
				ds.Report.RunID = ""
				return ds
			},
			wantErr: ErrInvalidReport,
		},
		{
			name: "merged rows out of step",
			ds: func() *model.Dataset {
				ds := testDataset()
				ds.Merged = ds.Merged[:2]
				return ds
			},
			wantErr: ErrInvalidReport,
		},
		{
			name: "grant without company",
			ds: func() *model.Dataset {
				ds := testDataset()
				ds.Grants[1].Company = ""
				return ds
			},
			wantErr: ErrInvalidGrant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveDataset(ctx, tt.ds()), tt.wantErr)
		})
	}

	n, err := store.GrantCount(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCleaningReports(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.CleaningReports(ctx, "")
	require.ErrorIs(t, err, ErrNoReport)

	require.NoError(t, store.SaveDataset(ctx, testDataset()))

	second := testDataset()
	second.Report = model.NewCleaningReport("run-2", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	second.Report.Add("Beta", model.OrgReport{GrantsOriginal: 9, GrantsFinal: 9})
	require.NoError(t, store.SaveDataset(ctx, second))

	latest, err := store.CleaningReports(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, []string{"Beta"}, latest.Orgs)

	first, err := store.CleaningReports(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, first.Orgs)
	assert.Equal(t, 4, first.ByOrg["Alpha"].GrantsFinal)
	assert.Equal(t, 1, first.ByOrg["Beta"].GrantmakersRemoved)
	assert.True(t, first.LoadedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	ids, err := store.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-2", "run-1"}, ids)

	_, err = store.CleaningReports(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoReport)
}
