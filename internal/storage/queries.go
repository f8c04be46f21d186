package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/grantlens/internal/model"
)

// Default row limits for the ranked queries.
const (
	DefaultStateLimit     = 15
	DefaultRecipientLimit = 15
	DefaultSubjectLimit   = 10
)

// StateRank selects how StateSummary orders states.
type StateRank string

// State rankings.
const (
	StateByCount  StateRank = "count"
	StateByGiving StateRank = "giving"
)

// companyFilter matches every row when the company argument is empty.
const companyFilter = `(? = '' OR company = ?)`

// CompanyMetrics returns per-company totals ordered by company name.
func (s *SQLiteStorage) CompanyMetrics(ctx context.Context) ([]CompanyMetric, error) {
	var rows []CompanyMetric
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT company,
			COUNT(*) AS grant_count,
			SUM(amount) AS total,
			AVG(amount) AS mean,
			COUNT(DISTINCT grantmaker_name) AS grantmakers
		FROM grants
		GROUP BY company
		ORDER BY company`); err != nil {
		return nil, fmt.Errorf("failed to query company metrics: %w", err)
	}
	return rows, nil
}

// StateSummary returns the top states by grantmaker count or total giving.
func (s *SQLiteStorage) StateSummary(ctx context.Context, company string, by StateRank, limit int) ([]StateRow, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	var order string
	switch by {
	case StateByCount:
		order = "grantmakers DESC, total_giving DESC"
	case StateByGiving:
		order = "total_giving DESC, grantmakers DESC"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRankBy, by)
	}

	var rows []StateRow
	query := `
		SELECT state,
			COUNT(*) AS grantmakers,
			SUM(total_giving) AS total_giving
		FROM grantmakers
		WHERE state IS NOT NULL AND TRIM(state) != '' AND ` + companyFilter + `
		GROUP BY state
		ORDER BY ` + order + `, state
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, query, company, company, limit); err != nil {
		return nil, fmt.Errorf("failed to query state summary: %w", err)
	}
	return rows, nil
}

// TotalGiving sums Total.Giving over grantmakers with a known state.
func (s *SQLiteStorage) TotalGiving(ctx context.Context, company string) (float64, error) {
	var total float64
	if err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total_giving), 0)
		FROM grantmakers
		WHERE state IS NOT NULL AND TRIM(state) != '' AND `+companyFilter,
		company, company); err != nil {
		return 0, fmt.Errorf("failed to query total giving: %w", err)
	}
	return total, nil
}

// YearlyTrend returns per-year totals in year order.
func (s *SQLiteStorage) YearlyTrend(ctx context.Context, company string) ([]YearRow, error) {
	var rows []YearRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT year,
			COUNT(*) AS grant_count,
			SUM(amount) AS total,
			AVG(amount) AS mean
		FROM grants
		WHERE `+companyFilter+`
		GROUP BY year
		ORDER BY year`, company, company); err != nil {
		return nil, fmt.Errorf("failed to query yearly trend: %w", err)
	}
	return rows, nil
}

// CategorySummary returns per-category totals, largest total first.
func (s *SQLiteStorage) CategorySummary(ctx context.Context, company string) ([]CategoryRow, error) {
	var rows []CategoryRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT category,
			COUNT(*) AS grant_count,
			SUM(amount) AS total,
			AVG(amount) AS mean
		FROM grants
		WHERE `+companyFilter+`
		GROUP BY category
		ORDER BY total DESC, category`, company, company); err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	return rows, nil
}

// CategoryTrend returns per-category, per-year totals.
func (s *SQLiteStorage) CategoryTrend(ctx context.Context, company string) ([]CategoryYearRow, error) {
	var rows []CategoryYearRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT category, year,
			COUNT(*) AS grant_count,
			SUM(amount) AS total
		FROM grants
		WHERE `+companyFilter+`
		GROUP BY category, year
		ORDER BY category, year`, company, company); err != nil {
		return nil, fmt.Errorf("failed to query category trend: %w", err)
	}
	return rows, nil
}

// TopRecipients returns the recipients receiving the largest totals.
func (s *SQLiteStorage) TopRecipients(ctx context.Context, company string, limit int) ([]RecipientRow, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	var rows []RecipientRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT recipient_name AS recipient,
			COUNT(*) AS grant_count,
			SUM(amount) AS total
		FROM grants
		WHERE recipient_name != '' AND `+companyFilter+`
		GROUP BY recipient_name
		ORDER BY total DESC, recipient_name
		LIMIT ?`, company, company, limit); err != nil {
		return nil, fmt.Errorf("failed to query top recipients: %w", err)
	}
	return rows, nil
}

// RecipientCounts returns every recipient with its grant count, most
// frequent first.
func (s *SQLiteStorage) RecipientCounts(ctx context.Context, company string) ([]RecipientRow, error) {
	var rows []RecipientRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT recipient_name AS recipient,
			COUNT(*) AS grant_count,
			SUM(amount) AS total
		FROM grants
		WHERE recipient_name != '' AND `+companyFilter+`
		GROUP BY recipient_name
		ORDER BY grant_count DESC, recipient_name`, company, company); err != nil {
		return nil, fmt.Errorf("failed to query recipient counts: %w", err)
	}
	return rows, nil
}

// SubjectSummary returns the most frequent primary subjects. It is empty when
// the extracts carried no subject column.
func (s *SQLiteStorage) SubjectSummary(ctx context.Context, company string, limit int) ([]SubjectRow, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	var rows []SubjectRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT primary_subject AS subject,
			COUNT(*) AS grant_count,
			SUM(amount) AS total
		FROM grants
		WHERE primary_subject IS NOT NULL AND TRIM(primary_subject) != '' AND `+companyFilter+`
		GROUP BY primary_subject
		ORDER BY grant_count DESC, subject
		LIMIT ?`, company, company, limit); err != nil {
		return nil, fmt.Errorf("failed to query subject summary: %w", err)
	}
	return rows, nil
}

// GrantmakerTotals returns each grantmaker's grant count and total across
// all companies, keyed by grantmaker name.
func (s *SQLiteStorage) GrantmakerTotals(ctx context.Context) ([]GrantmakerTotal, error) {
	var rows []GrantmakerTotal
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT grantmaker_name AS grantmaker,
			COUNT(*) AS grant_count,
			SUM(amount) AS total
		FROM grants
		GROUP BY grantmaker_name
		ORDER BY grantmaker_name`); err != nil {
		return nil, fmt.Errorf("failed to query grantmaker totals: %w", err)
	}
	return rows, nil
}

// AmountsByCompany returns the raw grant amounts keyed by company, in
// insertion order within each company.
func (s *SQLiteStorage) AmountsByCompany(ctx context.Context) (map[string][]float64, error) {
	var rows []struct {
		Company string  `db:"company"`
		Amount  float64 `db:"amount"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT company, amount FROM grants ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query amounts: %w", err)
	}
	out := make(map[string][]float64)
	for _, r := range rows {
		out[r.Company] = append(out[r.Company], r.Amount)
	}
	return out, nil
}

// AmountsByCategory returns the raw grant amounts keyed by category.
func (s *SQLiteStorage) AmountsByCategory(ctx context.Context, company string) (map[model.Category][]float64, error) {
	var rows []struct {
		Category string  `db:"category"`
		Amount   float64 `db:"amount"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT category, amount FROM grants
		WHERE `+companyFilter+`
		ORDER BY id`, company, company); err != nil {
		return nil, fmt.Errorf("failed to query category amounts: %w", err)
	}
	out := make(map[model.Category][]float64)
	for _, r := range rows {
		c := model.Category(r.Category)
		out[c] = append(out[c], r.Amount)
	}
	return out, nil
}

// MergedAmountsWithAssets returns merged grants whose grantmaker matched.
func (s *SQLiteStorage) MergedAmountsWithAssets(ctx context.Context) ([]AssetAmount, error) {
	var rows []AssetAmount
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT amount, total_assets
		FROM merged_grants
		WHERE total_assets IS NOT NULL
		ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query merged amounts: %w", err)
	}
	return rows, nil
}

// GrantCount returns the number of stored grants.
func (s *SQLiteStorage) GrantCount(ctx context.Context, company string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM grants WHERE `+companyFilter, company, company); err != nil {
		return 0, fmt.Errorf("failed to count grants: %w", err)
	}
	return n, nil
}
