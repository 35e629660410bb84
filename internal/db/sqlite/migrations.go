package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations is the list of all database migrations in order.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "validation_history",
		SQL: `
			CREATE TABLE IF NOT EXISTS validation_runs (
				id TEXT PRIMARY KEY,
				created_at TEXT NOT NULL,
				created_at_epoch INTEGER NOT NULL,
				reference_model TEXT NOT NULL,
				candidate_model TEXT NOT NULL,
				tolerance REAL NOT NULL,
				total_cases INTEGER NOT NULL,
				passed_cases INTEGER NOT NULL,
				failed_cases INTEGER NOT NULL,
				overall_pass INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_validation_runs_created ON validation_runs(created_at_epoch DESC);
			CREATE INDEX IF NOT EXISTS idx_validation_runs_candidate ON validation_runs(candidate_model);

			CREATE TABLE IF NOT EXISTS case_results (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL,
				input_text TEXT NOT NULL,
				status TEXT NOT NULL CHECK(status IN ('pass', 'tolerance_exceeded', 'shape_mismatch')),
				max_diff REAL NOT NULL,
				mean_diff REAL NOT NULL,
				cosine REAL NOT NULL,
				reference_norm REAL NOT NULL,
				candidate_norm REAL NOT NULL,
				reference_dim INTEGER NOT NULL,
				candidate_dim INTEGER NOT NULL,
				FOREIGN KEY(run_id) REFERENCES validation_runs(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id);
			CREATE INDEX IF NOT EXISTS idx_case_results_status ON case_results(status);
		`,
	},
}

// MigrationManager applies schema migrations in order.
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a manager for the given database.
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// EnsureSchemaVersionsTable creates the schema_versions table if it doesn't exist.
func (m *MigrationManager) EnsureSchemaVersionsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			id INTEGER PRIMARY KEY,
			version INTEGER UNIQUE NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

// GetAppliedVersions returns the set of already-applied migration versions.
func (m *MigrationManager) GetAppliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_versions ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// ApplyMigration runs a single migration inside a transaction.
func (m *MigrationManager) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Name, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_versions (version, applied_at) VALUES (?, ?)",
		migration.Version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record migration %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// RunMigrations applies all pending migrations.
func (m *MigrationManager) RunMigrations() error {
	if err := m.EnsureSchemaVersionsTable(); err != nil {
		return fmt.Errorf("ensure schema_versions: %w", err)
	}

	applied, err := m.GetAppliedVersions()
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, migration := range Migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.ApplyMigration(migration); err != nil {
			return err
		}
	}
	return nil
}
