package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/model"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("GRANTLENS_TEST_DIR", "/srv/grants")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "home", in: "~", want: home},
		{name: "under home", in: "~/data/nih", want: filepath.Join(home, "data", "nih")},
		{name: "env var", in: "$GRANTLENS_TEST_DIR/csv", want: "/srv/grants/csv"},
		{name: "tilde elsewhere", in: "/tmp/~x", want: "/tmp/~x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestOrganizations(t *testing.T) {
	tests := []struct {
		name    string
		entries []OrganizationEntry
		want    []model.Organization
		wantErr bool
	}{
		{
			name:    "key derived from name",
			entries: []OrganizationEntry{{Name: "Henry Ford"}},
			want: []model.Organization{{
				Name:            "Henry Ford",
				GrantmakersPath: "/data/HenryFord_grantmakers.csv",
				GrantsPath:      "/data/HenryFord_grants.csv",
			}},
		},
		{
			name:    "explicit key",
			entries: []OrganizationEntry{{Name: "UPMC", Key: "Pittsburgh"}},
			want: []model.Organization{{
				Name:            "UPMC",
				GrantmakersPath: "/data/Pittsburgh_grantmakers.csv",
				GrantsPath:      "/data/Pittsburgh_grants.csv",
			}},
		},
		{
			name:    "explicit paths",
			entries: []OrganizationEntry{{Name: "Kaiser", Grantmakers: "kp/makers.csv", Grants: "/abs/grants.csv"}},
			want: []model.Organization{{
				Name:            "Kaiser",
				GrantmakersPath: "/data/kp/makers.csv",
				GrantsPath:      "/abs/grants.csv",
			}},
		},
		{name: "missing name", entries: []OrganizationEntry{{Key: "X"}}, wantErr: true},
		{name: "duplicate", entries: []OrganizationEntry{{Name: "A"}, {Name: "A"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Organizations("/data", tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDataDir, dir)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "nih"), cfg.NIHDir)
	assert.Equal(t, ":memory:", cfg.StoragePath)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.Organizations, 4)
	assert.Equal(t, "Henry Ford", cfg.Organizations[1].Name)
	assert.Equal(t, filepath.Join(dir, "HenryFord_grants.csv"), cfg.Organizations[1].GrantsPath)
}

func TestLoad_MissingDataDir(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDataDir, filepath.Join(t.TempDir(), "absent"))

	_, err := Load(v)
	require.ErrorIs(t, err, common.ErrDataDirMissing)
	assert.Contains(t, common.UserMessage(err), "Data directory not found")
}

func TestInit_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "grants")
	require.NoError(t, os.Mkdir(dataDir, 0o750))

	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
data:
  dir: `+dataDir+`
  organizations:
    - name: Corewell
    - name: UPMC
      key: Pittsburgh
storage:
  path: `+filepath.Join(dir, "grants.db")+`
`), 0o600))
	t.Setenv("GRANTLENS_LOGGING_LEVEL", "debug")

	v := viper.New()
	require.NoError(t, Init(v, cfgFile))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "grants.db"), cfg.StoragePath)
	require.Len(t, cfg.Organizations, 2)
	assert.Equal(t, filepath.Join(dataDir, "Pittsburgh_grants.csv"), cfg.Organizations[1].GrantsPath)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, LoadDotEnv(path), "a missing file is ignored")

	require.NoError(t, os.WriteFile(path, []byte("GRANTLENS_DOTENV_PROBE=loaded\n"), 0o600))
	t.Setenv("GRANTLENS_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("GRANTLENS_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("GRANTLENS_DOTENV_PROBE"))
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}

	v := viper.New()
	_, err := LoadSheetsConfig(v)
	assert.Error(t, err, "no credentials")

	v.Set("sheets.service_account_path", "/keys/sa.json")
	v.Set("sheets.batch_size", 50)
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")

	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "from-env", cfg.SpreadsheetID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.True(t, cfg.EnableFormatting)
}
