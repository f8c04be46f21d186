package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/grantlens/internal/model"
)

// Raw column headers as they appear in the source extracts, with spaces.
var (
	GrantmakerHeader = []string{"Grantmaker Name", "Total Assets", "Total Giving", "State", "City"}
	GrantHeader      = []string{"Grantmaker Name", "Recipient Name", "Grant Amount", "Year Authorized", "Description", "Primary Subject"}
)

// WriteCSV writes header and rows to dir/name and returns the path.
func WriteCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("failed to write rows: %v", err)
	}
	return path
}

// WriteOrganization writes a grantmaker and grant file pair for one
// organization and returns its descriptor.
func WriteOrganization(t *testing.T, dir, name string, grantmakers, grants [][]string) model.Organization {
	t.Helper()

	key := strings.ReplaceAll(name, " ", "")
	return model.Organization{
		Name:            name,
		GrantmakersPath: WriteCSV(t, dir, key+"_grantmakers.csv", GrantmakerHeader, grantmakers),
		GrantsPath:      WriteCSV(t, dir, key+"_grants.csv", GrantHeader, grants),
	}
}

// OrgSpec describes a generated organization fixture.
type OrgSpec struct {
	Name        string
	Grantmakers int
	Grants      int
	BadAmounts  int
}

var (
	fixtureStates       = []string{"MI", "PA", "CA", "OH", "NY", "IL"}
	fixtureDescriptions = []string{
		"Support for the community health clinic",
		"Scholarship fund for university students",
		"Neighborhood community development program",
		"Cancer research study",
		"Museum exhibition on local music culture",
		"Watershed conservation project",
		"General operating support",
		"",
	}
)

// GenerateOrganization writes deterministic fixture files. Grant amounts
// grow with the row index; the first BadAmounts grants get a non-numeric
// amount. Grants cycle through Grantmakers names, and every fifth grant
// names a grantmaker that does not exist.
func GenerateOrganization(t *testing.T, dir string, spec OrgSpec) model.Organization {
	t.Helper()

	makers := make([][]string, spec.Grantmakers)
	for i := range makers {
		makers[i] = []string{
			fmt.Sprintf("%s Foundation %d", spec.Name, i),
			fmt.Sprintf("%d", 1_000_000*(i+1)),
			fmt.Sprintf("%d", 50_000*(i+1)),
			fixtureStates[i%len(fixtureStates)],
			"Springfield",
		}
	}

	grants := make([][]string, spec.Grants)
	for i := range grants {
		amount := fmt.Sprintf("%d", 1000+i*250)
		if i < spec.BadAmounts {
			amount = "not reported"
		}
		maker := fmt.Sprintf("%s Foundation %d", spec.Name, i%max(spec.Grantmakers, 1))
		if i%5 == 4 {
			maker = fmt.Sprintf("%s Unknown Fund %d", spec.Name, i)
		}
		grants[i] = []string{
			maker,
			fmt.Sprintf("Recipient %d", i%40),
			amount,
			fmt.Sprintf("%d", 2015+i%8),
			fixtureDescriptions[i%len(fixtureDescriptions)],
			fmt.Sprintf("Subject %d", i%12),
		}
	}

	return WriteOrganization(t, dir, spec.Name, makers, grants)
}

// StandardOrganizations generates the four-organization fixture used across
// tests: 100 grantmakers and 500 grants each, 50 with a bad amount.
func StandardOrganizations(t *testing.T, dir string) []model.Organization {
	t.Helper()

	names := []string{"Corewell", "Henry Ford", "Kaiser", "Pittsburgh"}
	orgs := make([]model.Organization, len(names))
	for i, name := range names {
		orgs[i] = GenerateOrganization(t, dir, OrgSpec{
			Name:        name,
			Grantmakers: 100,
			Grants:      500,
			BadAmounts:  50,
		})
	}
	return orgs
}
