package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNoReport is returned when no cleaning report has been stored.
var ErrNoReport = errors.New("no cleaning report stored")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type cleaningReportRow struct {
	LoadedAt            time.Time `db:"loaded_at"`
	RunID               string    `db:"run_id"`
	Company             string    `db:"company"`
	GrantsOriginal      int       `db:"grants_original"`
	GrantsRemoved       int       `db:"grants_removed"`
	GrantsFinal         int       `db:"grants_final"`
	GrantmakersOriginal int       `db:"grantmakers_original"`
	GrantmakersRemoved  int       `db:"grantmakers_removed"`
	GrantmakersFinal    int       `db:"grantmakers_final"`
}

// CompanyMetric summarizes one company's grants. Median is filled in by the
// caller from the raw amounts since SQLite has no median aggregate.
type CompanyMetric struct {
	Company     string  `db:"company"`
	Count       int     `db:"grant_count"`
	Total       float64 `db:"total"`
	Mean        float64 `db:"mean"`
	Grantmakers int     `db:"grantmakers"`
	Median      float64 `db:"-"`
}

// StateRow aggregates grantmakers by state.
type StateRow struct {
	State       string  `db:"state"`
	Grantmakers int     `db:"grantmakers"`
	TotalGiving float64 `db:"total_giving"`
}

// YearRow aggregates grants by year.
type YearRow struct {
	Year  int     `db:"year"`
	Count int     `db:"grant_count"`
	Total float64 `db:"total"`
	Mean  float64 `db:"mean"`
}

// CategoryRow aggregates grants by category.
type CategoryRow struct {
	Category string  `db:"category"`
	Count    int     `db:"grant_count"`
	Total    float64 `db:"total"`
	Mean     float64 `db:"mean"`
}

// CategoryYearRow aggregates grants by category and year.
type CategoryYearRow struct {
	Category string  `db:"category"`
	Year     int     `db:"year"`
	Count    int     `db:"grant_count"`
	Total    float64 `db:"total"`
}

// RecipientRow aggregates grants by recipient.
type RecipientRow struct {
	Recipient string  `db:"recipient"`
	Count     int     `db:"grant_count"`
	Total     float64 `db:"total"`
}

// SubjectRow aggregates grants by primary subject.
type SubjectRow struct {
	Subject string  `db:"subject"`
	Count   int     `db:"grant_count"`
	Total   float64 `db:"total"`
}

// GrantmakerTotal is one grantmaker's grant count and total.
type GrantmakerTotal struct {
	Grantmaker string  `db:"grantmaker"`
	Count      int     `db:"grant_count"`
	Total      float64 `db:"total"`
}

// AssetAmount pairs a merged grant's amount with its grantmaker's assets.
type AssetAmount struct {
	Amount      float64 `db:"amount"`
	TotalAssets float64 `db:"total_assets"`
}

// AgencyTotal is one NIH agency's funding total.
type AgencyTotal struct {
	Agency   string  `db:"agency_name"`
	Awards   int     `db:"awards"`
	Total    float64 `db:"total"`
	Duration float64 `db:"avg_duration"`
}
