package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifest(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)

	require.Len(t, m.Pages, 5)
	assert.Equal(t, "Q1: Research Themes", m.Pages[0].Name)
	assert.Equal(t, 64, m.Count())

	q2 := m.Pages[1]
	assert.Equal(t, []string{"pages/plotly_charts", "pages/csv_tables"}, pageDirs(q2))
	tables := 0
	for _, a := range q2.Assets {
		if a.Kind == KindTable {
			tables++
		}
	}
	assert.Equal(t, 4, tables)
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "pages:\n  - name: P\n    dir: d\n    assets:\n      - {file: a.png, kind: image}\n",
		},
		{name: "no pages", yaml: "pages: []\n", wantErr: true},
		{name: "not yaml", yaml: "pages: [", wantErr: true},
		{
			name:    "unnamed page",
			yaml:    "pages:\n  - dir: d\n",
			wantErr: true,
		},
		{
			name:    "page without dir",
			yaml:    "pages:\n  - name: P\n",
			wantErr: true,
		},
		{
			name:    "unknown kind",
			yaml:    "pages:\n  - name: P\n    dir: d\n    assets:\n      - {file: a.gif, kind: video}\n",
			wantErr: true,
		},
		{
			name:    "asset without file",
			yaml:    "pages:\n  - name: P\n    dir: d\n    assets:\n      - {kind: chart}\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.yaml))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidManifest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, m.Count())
		})
	}
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Len(t, m.Pages, 5)

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pages:\n  - name: Only\n    dir: x\n"), 0o600))
	m, err = LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Pages, 1)
	assert.Equal(t, "Only", m.Pages[0].Name)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestCheck(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "charts", "a.html"))
	touch(t, filepath.Join(base, "charts", "b.html"))
	touch(t, filepath.Join(base, "tables", "t.csv"))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "charts", "dir.html"), 0o750))

	m := &Manifest{Pages: []Page{
		{
			Name: "Complete",
			Dir:  "charts",
			Assets: []Asset{
				{File: "a.html", Kind: KindChart},
				{File: "t.csv", Kind: KindTable, Dir: "tables"},
			},
		},
		{
			Name: "Partial",
			Dir:  "charts",
			Assets: []Asset{
				{File: "b.html", Kind: KindChart},
				{File: "gone.html", Kind: KindChart},
				{File: "dir.html", Kind: KindChart},
				{File: "gone.csv", Kind: KindTable, Dir: "tables"},
			},
		},
		{
			Name:   "No directory",
			Dir:    "images",
			Assets: []Asset{{File: "x.png", Kind: KindImage}},
		},
		{
			Name: "Table directory missing",
			Dir:  "charts",
			Assets: []Asset{
				{File: "a.html", Kind: KindChart},
				{File: "t.csv", Kind: KindTable, Dir: "csv_tables"},
			},
		},
	}}

	results := Check(base, m)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.Equal(t, 2, results[0].Present)
	assert.Empty(t, results[0].Message())

	assert.False(t, results[1].OK())
	assert.False(t, results[1].DirMissing)
	assert.Equal(t, 1, results[1].Present)
	require.Len(t, results[1].Missing, 3)
	assert.Equal(t, "gone.html", results[1].Missing[0].File)
	assert.Equal(t, "dir.html", results[1].Missing[1].File)
	assert.Equal(t, KindTable, results[1].Missing[2].Kind)
	assert.Equal(t, "Partial: 3 assets missing", results[1].Message())

	assert.True(t, results[2].DirMissing)
	assert.Equal(t, filepath.Join(base, "images"), results[2].MissingDir)
	assert.Empty(t, results[2].Missing)
	assert.Contains(t, results[2].Message(), "directory not found")

	assert.True(t, results[3].DirMissing)
	assert.Equal(t, filepath.Join(base, "csv_tables"), results[3].MissingDir)
	assert.Zero(t, results[3].Present, "page halts before checking files")

	assert.Equal(t, Summary{Pages: 4, PagesOK: 1, DirsMissing: 2, Present: 3, Missing: 3}, Summarize(results))
}
