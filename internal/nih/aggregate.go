package nih

import (
	"cmp"
	"slices"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/stats"
)

// DefaultTopN is the number of agencies or topics reported by default.
const DefaultTopN = 10

// DefaultOrganizations returns the institutions compared by default.
func DefaultOrganizations() []string {
	return []string{
		"Corewell Health",
		"Henry Ford Health",
		"Kaiser Permanente",
		"University of Pittsburgh",
	}
}

// StateBy selects which state an award is attributed to.
type StateBy string

// State attributions.
const (
	ByOrganizationState StateBy = "organization"
	ByAgencyState       StateBy = "agency"
)

// StateYearTotal is the funding and duration for one organization, state and
// fiscal year.
type StateYearTotal struct {
	Organization string
	State        string
	FiscalYear   int
	AwardAmount  float64
	DurationDays float64
	Awards       int
}

type stateKey struct {
	org   string
	state string
	year  int
}

// StateYearTotals sums award amount and duration per organization, state and
// fiscal year for the given organizations. An empty orgs list uses
// DefaultOrganizations. Rows are ordered by organization, state, then year.
func StateYearTotals(awards []model.Award, orgs []string, by StateBy) []StateYearTotal {
	if len(orgs) == 0 {
		orgs = DefaultOrganizations()
	}
	selected := make(map[string]bool, len(orgs))
	for _, o := range orgs {
		selected[o] = true
	}

	totals := make(map[stateKey]*StateYearTotal)
	for _, a := range awards {
		if !selected[a.MainOrganization] {
			continue
		}
		state := a.OrgState
		if by == ByAgencyState {
			state = a.AgencyState
		}
		if state == "" {
			continue
		}

		key := stateKey{org: a.MainOrganization, state: state, year: a.FiscalYear}
		t, ok := totals[key]
		if !ok {
			t = &StateYearTotal{Organization: key.org, State: key.state, FiscalYear: key.year}
			totals[key] = t
		}
		t.AwardAmount += a.AwardAmount
		t.DurationDays += a.DurationDays
		t.Awards++
	}

	out := make([]StateYearTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b StateYearTotal) int {
		return cmp.Or(
			cmp.Compare(a.Organization, b.Organization),
			cmp.Compare(a.State, b.State),
			cmp.Compare(a.FiscalYear, b.FiscalYear),
		)
	})
	return out
}

// AgencyYear is one agency's funding in one fiscal year.
type AgencyYear struct {
	FiscalYear  int
	Total       float64
	AvgDuration float64
	Awards      int
}

// AgencySummary is an agency's total funding with its yearly breakdown.
type AgencySummary struct {
	Agency string
	Years  []AgencyYear
	Total  float64
}

// TopAgencies returns the n agencies with the most total funding, largest
// first, each with yearly totals and average durations in year order. Ties
// are broken by name.
func TopAgencies(awards []model.Award, n int) []AgencySummary {
	if n <= 0 {
		return nil
	}

	type yearAcc struct {
		total    float64
		duration float64
		count    int
	}
	byAgency := make(map[string]map[int]*yearAcc)
	totals := make(map[string]float64)
	for _, a := range awards {
		if a.AgencyName == "" {
			continue
		}
		years, ok := byAgency[a.AgencyName]
		if !ok {
			years = make(map[int]*yearAcc)
			byAgency[a.AgencyName] = years
		}
		acc, ok := years[a.FiscalYear]
		if !ok {
			acc = &yearAcc{}
			years[a.FiscalYear] = acc
		}
		acc.total += a.AwardAmount
		acc.duration += a.DurationDays
		acc.count++
		totals[a.AgencyName] += a.AwardAmount
	}

	out := make([]AgencySummary, 0, len(byAgency))
	for agency, years := range byAgency {
		s := AgencySummary{Agency: agency, Total: totals[agency]}
		for year, acc := range years {
			s.Years = append(s.Years, AgencyYear{
				FiscalYear:  year,
				Total:       acc.total,
				AvgDuration: acc.duration / float64(acc.count),
				Awards:      acc.count,
			})
		}
		slices.SortFunc(s.Years, func(a, b AgencyYear) int { return cmp.Compare(a.FiscalYear, b.FiscalYear) })
		out = append(out, s)
	}

	slices.SortFunc(out, func(a, b AgencySummary) int {
		return cmp.Or(cmp.Compare(b.Total, a.Total), cmp.Compare(a.Agency, b.Agency))
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopicTrend is one topic's summed funding with its per-year rows.
type TopicTrend struct {
	Topic string
	Years []model.TopicSummary
	Total float64
}

// TopTopics returns the n topics with the largest award_amount_sum across
// all years, largest first, each with its rows in year order.
func TopTopics(rows []model.TopicSummary, n int) []TopicTrend {
	if n <= 0 {
		return nil
	}

	byTopic := make(map[string]*TopicTrend)
	for _, r := range rows {
		t, ok := byTopic[r.Topic]
		if !ok {
			t = &TopicTrend{Topic: r.Topic}
			byTopic[r.Topic] = t
		}
		t.Years = append(t.Years, r)
		t.Total += r.AwardAmountSum
	}

	out := make([]TopicTrend, 0, len(byTopic))
	for _, t := range byTopic {
		slices.SortFunc(t.Years, func(a, b model.TopicSummary) int { return cmp.Compare(a.FiscalYear, b.FiscalYear) })
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b TopicTrend) int {
		return cmp.Or(cmp.Compare(b.Total, a.Total), cmp.Compare(a.Topic, b.Topic))
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// OrgDistribution describes award amounts and durations at one organization.
type OrgDistribution struct {
	Organization string
	Amount       stats.Summary
	Duration     stats.Summary
}

// OrganizationDistributions summarizes every organization's awards, ordered
// by median award amount, largest first.
func OrganizationDistributions(awards []model.Award) []OrgDistribution {
	amounts := make(map[string][]float64)
	durations := make(map[string][]float64)
	for _, a := range awards {
		amounts[a.MainOrganization] = append(amounts[a.MainOrganization], a.AwardAmount)
		durations[a.MainOrganization] = append(durations[a.MainOrganization], a.DurationDays)
	}

	out := make([]OrgDistribution, 0, len(amounts))
	for org, values := range amounts {
		amount, err := stats.Describe(values)
		if err != nil {
			continue
		}
		duration, _ := stats.Describe(durations[org])
		out = append(out, OrgDistribution{Organization: org, Amount: amount, Duration: duration})
	}
	slices.SortFunc(out, func(a, b OrgDistribution) int {
		return cmp.Or(cmp.Compare(b.Amount.Median, a.Amount.Median), cmp.Compare(a.Organization, b.Organization))
	})
	return out
}
