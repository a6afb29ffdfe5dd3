package database

import (
	"database/sql"
	"fmt"
)

// Migration is one schema evolution step.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Migrations are compiled in; the binary always carries the schema it needs.
var migrations = []Migration{
	{
		Version:     "001",
		Description: "calendar events and class membership",
		SQL: `
			CREATE TABLE IF NOT EXISTS personal_events (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				name       TEXT NOT NULL DEFAULT '',
				remark     TEXT NOT NULL DEFAULT '',
				location   TEXT NOT NULL DEFAULT '',
				start_time DATETIME NOT NULL,
				end_time   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_personal_events_user_window
				ON personal_events(user_id, end_time, start_time);

			CREATE TABLE IF NOT EXISTS class_events (
				id         TEXT PRIMARY KEY,
				class_id   TEXT NOT NULL,
				name       TEXT NOT NULL DEFAULT '',
				remark     TEXT NOT NULL DEFAULT '',
				location   TEXT NOT NULL DEFAULT '',
				start_time DATETIME NOT NULL,
				end_time   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_class_events_class_window
				ON class_events(class_id, end_time, start_time);

			CREATE TABLE IF NOT EXISTS class_members (
				class_id TEXT NOT NULL,
				user_id  TEXT NOT NULL,
				role     TEXT NOT NULL CHECK (role IN ('teacher', 'student')),
				PRIMARY KEY (class_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_class_members_user
				ON class_members(user_id);
		`,
	},
}

// MigrationManager applies pending migrations.
type MigrationManager struct {
	db *sql.DB
}

func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// Apply runs every migration that has not been recorded yet. Each migration
// runs in its own transaction together with its version record.
func (m *MigrationManager) Apply() error {
	if err := m.createMigrationTable(); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := m.applyOne(migration); err != nil {
			return fmt.Errorf("migration %s (%s): %w", migration.Version, migration.Description, err)
		}
	}
	return nil
}

func (m *MigrationManager) createMigrationTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (m *MigrationManager) appliedVersions() (map[string]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *MigrationManager) applyOne(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
		migration.Version, migration.Description,
	); err != nil {
		return err
	}
	return tx.Commit()
}
