package model

import "time"

// OrgReport counts rows before and after cleaning for one organization.
type OrgReport struct {
	GrantsOriginal      int
	GrantsRemoved       int
	GrantsFinal         int
	GrantmakersOriginal int
	GrantmakersRemoved  int
	GrantmakersFinal    int
}

// GrantsRetention is the fraction of grant rows that survived cleaning.
func (r OrgReport) GrantsRetention() float64 {
	return retention(r.GrantsFinal, r.GrantsOriginal)
}

// GrantmakersRetention is the fraction of grantmaker rows that survived cleaning.
func (r OrgReport) GrantmakersRetention() float64 {
	return retention(r.GrantmakersFinal, r.GrantmakersOriginal)
}

func retention(final, original int) float64 {
	if original == 0 {
		return 0
	}
	return float64(final) / float64(original)
}

// CleaningReport is the diagnostic produced once per load.
type CleaningReport struct {
	LoadedAt time.Time
	ByOrg    map[string]OrgReport
	RunID    string
	Orgs     []string
}

// NewCleaningReport creates an empty report for the given run.
func NewCleaningReport(runID string, loadedAt time.Time) *CleaningReport {
	return &CleaningReport{
		RunID:    runID,
		LoadedAt: loadedAt,
		ByOrg:    make(map[string]OrgReport),
	}
}

// Add records an organization's counts, keeping insertion order.
func (c *CleaningReport) Add(org string, r OrgReport) {
	if _, ok := c.ByOrg[org]; !ok {
		c.Orgs = append(c.Orgs, org)
	}
	c.ByOrg[org] = r
}

// Totals sums the per-organization counts.
func (c *CleaningReport) Totals() OrgReport {
	var t OrgReport
	for _, org := range c.Orgs {
		r := c.ByOrg[org]
		t.GrantsOriginal += r.GrantsOriginal
		t.GrantsRemoved += r.GrantsRemoved
		t.GrantsFinal += r.GrantsFinal
		t.GrantmakersOriginal += r.GrantmakersOriginal
		t.GrantmakersRemoved += r.GrantmakersRemoved
		t.GrantmakersFinal += r.GrantmakersFinal
	}
	return t
}
