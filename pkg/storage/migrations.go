package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: projects and milestones
	`CREATE TABLE IF NOT EXISTS projects (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		unit              TEXT NOT NULL DEFAULT '',
		responsible       TEXT NOT NULL DEFAULT '[]',
		status            TEXT NOT NULL CHECK(status IN ('planned', 'in_progress', 'done', 'paused', 'cancelled')),
		risk_level        TEXT NOT NULL CHECK(risk_level IN ('low', 'medium', 'high', 'critical')),
		start_date        TEXT NOT NULL,
		expected_end_date TEXT NOT NULL,
		tags              TEXT NOT NULL DEFAULT '[]',
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK(expected_end_date >= start_date)
	);

	CREATE TABLE IF NOT EXISTS milestones (
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		id            TEXT NOT NULL,
		title         TEXT NOT NULL,
		expected_date TEXT NOT NULL,
		actual_date   TEXT,
		status        TEXT NOT NULL CHECK(status IN ('pending', 'done', 'late')),
		PRIMARY KEY (project_id, position)
	);`,

	// Migration 2: project updates
	`CREATE TABLE IF NOT EXISTS project_updates (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		timestamp   DATETIME NOT NULL,
		source      TEXT NOT NULL DEFAULT 'manual',
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT 'general',
		url         TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_updates_project ON project_updates(project_id, timestamp);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
