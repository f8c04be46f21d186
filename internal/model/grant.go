// Package model defines the core records produced by the grant pipeline.
package model

// Normalized column names used by the foundation grant extracts.
const (
	ColCompany        = "Company"
	ColGrantmakerName = "Grantmaker.Name"
	ColRecipientName  = "Recipient.Name"
	ColGrantAmount    = "Grant.Amount"
	ColYearAuthorized = "Year.Authorized"
	ColDescription    = "Description"
	ColPrimarySubject = "Primary.Subject"
	ColTotalAssets    = "Total.Assets"
	ColTotalGiving    = "Total.Giving"
	ColState          = "State"
)

// Organization describes one source organization and its pair of extracts.
type Organization struct {
	Name            string
	GrantmakersPath string
	GrantsPath      string
}

// Grant is a single disbursement from a grantmaker to a recipient.
type Grant struct {
	Extra          map[string]string
	Description    *string
	PrimarySubject *string
	Company        string
	GrantmakerName string
	RecipientName  string
	Category       Category
	Amount         float64
	Year           int
}

// DescriptionText returns the description or an empty string when absent.
func (g Grant) DescriptionText() string {
	if g.Description == nil {
		return ""
	}
	return *g.Description
}

// Grantmaker is a foundation or philanthropic entity that issues grants.
type Grantmaker struct {
	Extra       map[string]string
	State       *string
	Company     string
	Name        string
	TotalAssets float64
	TotalGiving float64
}

// MergedGrant is a grant carrying its grantmaker's attributes.
// The attribute pointers are nil when no grantmaker matched.
type MergedGrant struct {
	TotalAssets *float64
	TotalGiving *float64
	State       *string
	Grant
}

// Matched reports whether the grant found its grantmaker during the join.
func (m MergedGrant) Matched() bool {
	return m.TotalAssets != nil
}

// Dataset holds the combined output of one pipeline load. It is never
// mutated after construction.
type Dataset struct {
	Report      *CleaningReport
	Grants      []Grant
	Grantmakers []Grantmaker
	Merged      []MergedGrant
}

// Companies returns the organization names in load order.
func (d *Dataset) Companies() []string {
	if d == nil || d.Report == nil {
		return nil
	}
	out := make([]string, len(d.Report.Orgs))
	copy(out, d.Report.Orgs)
	return out
}

// GrantsFor returns the grants belonging to one company. An empty company
// returns every grant.
func (d *Dataset) GrantsFor(company string) []Grant {
	if company == "" {
		return d.Grants
	}
	var out []Grant
	for _, g := range d.Grants {
		if g.Company == company {
			out = append(out, g)
		}
	}
	return out
}
