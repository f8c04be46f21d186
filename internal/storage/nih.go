package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Veraticus/grantlens/internal/model"
)

// SaveAwards replaces the stored NIH awards.
func (s *SQLiteStorage) SaveAwards(ctx context.Context, awards []model.Award) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nih_awards`); err != nil {
			return fmt.Errorf("failed to clear awards: %w", err)
		}
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO nih_awards (main_organization, org_state, agency_state, agency_name, fiscal_year, award_amount, duration_days)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare award insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, a := range awards {
			if _, err := stmt.ExecContext(ctx, a.MainOrganization, a.OrgState, a.AgencyState,
				a.AgencyName, a.FiscalYear, a.AwardAmount, a.DurationDays); err != nil {
				return fmt.Errorf("failed to insert award %d: %w", i, err)
			}
		}
		return nil
	})
}

// SaveTopicSummaries replaces the stored summaries of one kind, such as
// "disease" or "method".
func (s *SQLiteStorage) SaveTopicSummaries(ctx context.Context, kind string, rows []model.TopicSummary) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(kind, "kind"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTopicSet, err)
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM topic_summaries WHERE kind = ?`, kind); err != nil {
			return fmt.Errorf("failed to clear %s topics: %w", kind, err)
		}
		for i, r := range rows {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO topic_summaries (
					kind, topic, fiscal_year, duration_days_sum, duration_days_avg,
					award_amount_sum, award_amount_avg, num_projects
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				kind, r.Topic, r.FiscalYear, r.DurationDaysSum, r.DurationDaysAvg,
				r.AwardAmountSum, r.AwardAmountAvg, r.NumProjects); err != nil {
				return fmt.Errorf("failed to insert %s topic row %d: %w", kind, i, err)
			}
		}
		return nil
	})
}

// AgencyTotals returns the agencies with the most funding.
func (s *SQLiteStorage) AgencyTotals(ctx context.Context, limit int) ([]AgencyTotal, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	var rows []AgencyTotal
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT agency_name,
			COUNT(*) AS awards,
			SUM(award_amount) AS total,
			AVG(duration_days) AS avg_duration
		FROM nih_awards
		WHERE agency_name != ''
		GROUP BY agency_name
		ORDER BY total DESC, agency_name
		LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to query agency totals: %w", err)
	}
	return rows, nil
}

// TopicCount returns how many summary rows of a kind are stored.
func (s *SQLiteStorage) TopicCount(ctx context.Context, kind string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM topic_summaries WHERE kind = ?`, kind); err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return n, nil
}
