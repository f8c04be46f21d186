package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Veraticus/grantlens/internal/model"
)

// SaveDataset replaces the grant tables with the dataset's rows and records
// its cleaning report, all in one transaction.
func (s *SQLiteStorage) SaveDataset(ctx context.Context, ds *model.Dataset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDataset(ds); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"grants", "grantmakers", "merged_grants"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if err := insertGrants(ctx, tx, ds.Grants); err != nil {
			return err
		}
		if err := insertGrantmakers(ctx, tx, ds.Grantmakers); err != nil {
			return err
		}
		if err := insertMerged(ctx, tx, ds.Merged); err != nil {
			return err
		}
		return insertReport(ctx, tx, ds.Report)
	})
}

func insertGrants(ctx context.Context, tx *sqlx.Tx, grants []model.Grant) error {
	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO grants (company, grantmaker_name, recipient_name, amount, year, description, primary_subject, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare grant insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, g := range grants {
		if _, err := stmt.ExecContext(ctx, g.Company, g.GrantmakerName, g.RecipientName,
			g.Amount, g.Year, g.Description, g.PrimarySubject, string(g.Category)); err != nil {
			return fmt.Errorf("failed to insert grant %d: %w", i, err)
		}
	}
	return nil
}

func insertGrantmakers(ctx context.Context, tx *sqlx.Tx, grantmakers []model.Grantmaker) error {
	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO grantmakers (company, name, total_assets, total_giving, state)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare grantmaker insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, gm := range grantmakers {
		if _, err := stmt.ExecContext(ctx, gm.Company, gm.Name, gm.TotalAssets, gm.TotalGiving, gm.State); err != nil {
			return fmt.Errorf("failed to insert grantmaker %d: %w", i, err)
		}
	}
	return nil
}

func insertMerged(ctx context.Context, tx *sqlx.Tx, merged []model.MergedGrant) error {
	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO merged_grants (company, grantmaker_name, recipient_name, amount, year, category, total_assets, total_giving, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare merged insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range merged {
		if _, err := stmt.ExecContext(ctx, m.Company, m.GrantmakerName, m.RecipientName,
			m.Amount, m.Year, string(m.Category), m.TotalAssets, m.TotalGiving, m.State); err != nil {
			return fmt.Errorf("failed to insert merged grant %d: %w", i, err)
		}
	}
	return nil
}

func insertReport(ctx context.Context, tx *sqlx.Tx, report *model.CleaningReport) error {
	for pos, org := range report.Orgs {
		r := report.ByOrg[org]
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO cleaning_reports (
				run_id, company, position,
				grants_original, grants_removed, grants_final,
				grantmakers_original, grantmakers_removed, grantmakers_final,
				loaded_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, org, pos,
			r.GrantsOriginal, r.GrantsRemoved, r.GrantsFinal,
			r.GrantmakersOriginal, r.GrantmakersRemoved, r.GrantmakersFinal,
			report.LoadedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert cleaning report for %s: %w", org, err)
		}
	}
	return nil
}

// CleaningReports returns the report of the given run, or of the most recent
// run when runID is empty. ErrNoReport is returned when nothing is stored.
func (s *SQLiteStorage) CleaningReports(ctx context.Context, runID string) (*model.CleaningReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if runID == "" {
		err := s.db.GetContext(ctx, &runID, `
			SELECT run_id FROM cleaning_reports
			ORDER BY loaded_at DESC, rowid DESC
			LIMIT 1`)
		if err != nil {
			if isNoRows(err) {
				return nil, ErrNoReport
			}
			return nil, fmt.Errorf("failed to find latest run: %w", err)
		}
	}

	var rows []cleaningReportRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, company, grants_original, grants_removed, grants_final,
			grantmakers_original, grantmakers_removed, grantmakers_final, loaded_at
		FROM cleaning_reports
		WHERE run_id = ?
		ORDER BY position`, runID); err != nil {
		return nil, fmt.Errorf("failed to query cleaning reports: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoReport
	}

	report := model.NewCleaningReport(runID, rows[0].LoadedAt)
	for _, r := range rows {
		report.Add(r.Company, model.OrgReport{
			GrantsOriginal:      r.GrantsOriginal,
			GrantsRemoved:       r.GrantsRemoved,
			GrantsFinal:         r.GrantsFinal,
			GrantmakersOriginal: r.GrantmakersOriginal,
			GrantmakersRemoved:  r.GrantmakersRemoved,
			GrantmakersFinal:    r.GrantmakersFinal,
		})
	}
	return report, nil
}

// RunIDs lists stored runs, newest first.
func (s *SQLiteStorage) RunIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `
		SELECT run_id FROM cleaning_reports
		GROUP BY run_id
		ORDER BY MAX(loaded_at) DESC`); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}
