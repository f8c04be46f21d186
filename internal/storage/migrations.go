package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sqlx.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Grant dataset tables",
		Up: func(tx *sqlx.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS grants (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company TEXT NOT NULL,
					grantmaker_name TEXT NOT NULL,
					recipient_name TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					year INTEGER NOT NULL,
					description TEXT,
					primary_subject TEXT,
					category TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX IF NOT EXISTS idx_grants_company_year ON grants(company, year)`,
				`CREATE INDEX IF NOT EXISTS idx_grants_grantmaker ON grants(company, grantmaker_name)`,

				`CREATE TABLE IF NOT EXISTS grantmakers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company TEXT NOT NULL,
					name TEXT NOT NULL,
					total_assets REAL NOT NULL,
					total_giving REAL NOT NULL,
					state TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_grantmakers_company ON grantmakers(company)`,

				`CREATE TABLE IF NOT EXISTS merged_grants (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					company TEXT NOT NULL,
					grantmaker_name TEXT NOT NULL,
					recipient_name TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					year INTEGER NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					total_assets REAL,
					total_giving REAL,
					state TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_merged_company ON merged_grants(company)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Cleaning report history",
		Up: func(tx *sqlx.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS cleaning_reports (
					run_id TEXT NOT NULL,
					company TEXT NOT NULL,
					position INTEGER NOT NULL,
					grants_original INTEGER NOT NULL,
					grants_removed INTEGER NOT NULL,
					grants_final INTEGER NOT NULL,
					grantmakers_original INTEGER NOT NULL,
					grantmakers_removed INTEGER NOT NULL,
					grantmakers_final INTEGER NOT NULL,
					loaded_at DATETIME NOT NULL,
					PRIMARY KEY (run_id, company)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_cleaning_reports_loaded ON cleaning_reports(loaded_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "NIH award extracts",
		Up: func(tx *sqlx.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS nih_awards (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					main_organization TEXT NOT NULL,
					org_state TEXT NOT NULL DEFAULT '',
					agency_state TEXT NOT NULL DEFAULT '',
					agency_name TEXT NOT NULL DEFAULT '',
					fiscal_year INTEGER NOT NULL,
					award_amount REAL NOT NULL,
					duration_days REAL NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_nih_awards_agency ON nih_awards(agency_name)`,

				`CREATE TABLE IF NOT EXISTS topic_summaries (
					kind TEXT NOT NULL,
					topic TEXT NOT NULL,
					fiscal_year INTEGER NOT NULL,
					duration_days_sum REAL NOT NULL,
					duration_days_avg REAL NOT NULL,
					award_amount_sum REAL NOT NULL,
					award_amount_avg REAL NOT NULL,
					num_projects INTEGER NOT NULL,
					PRIMARY KEY (kind, topic, fiscal_year)
				)`,
			)
		},
	},
}

func execAll(tx *sqlx.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTxx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
