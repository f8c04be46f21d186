package model

// Award is one NIH award row from the agency/location extract.
type Award struct {
	MainOrganization string
	OrgState         string
	AgencyState      string
	AgencyName       string
	FiscalYear       int
	AwardAmount      float64
	DurationDays     float64
}

// TopicSummary is one pre-aggregated topic/year row.
type TopicSummary struct {
	Topic           string
	FiscalYear      int
	DurationDaysSum float64
	DurationDaysAvg float64
	AwardAmountSum  float64
	AwardAmountAvg  float64
	NumProjects     int
}

// Table is a generic tabular extract displayed as-is.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}
