package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Times are stored as fixed-width UTC text (see repository.timeLayout) so
// lexical comparison in range predicates matches chronological order.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id                  TEXT PRIMARY KEY,
		tenant_id           TEXT NOT NULL,
		name                TEXT NOT NULL DEFAULT '',
		future_date_allowed INTEGER NOT NULL DEFAULT 1,
		created_at          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id                  TEXT PRIMARY KEY,
		tenant_id           TEXT NOT NULL,
		organization_id     TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name                TEXT NOT NULL DEFAULT '',
		is_tracking_enabled INTEGER NOT NULL DEFAULT 1,
		is_tracking_time    INTEGER NOT NULL DEFAULT 0,
		total_work_seconds  INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_employees_org ON employees(tenant_id, organization_id)`,

	`CREATE TABLE IF NOT EXISTS timesheets (
		id              TEXT PRIMARY KEY,
		tenant_id       TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		employee_id     TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		started_at      TEXT NOT NULL,
		stopped_at      TEXT NOT NULL,
		duration        INTEGER NOT NULL DEFAULT 0,
		keyboard        INTEGER NOT NULL DEFAULT 0,
		mouse           INTEGER NOT NULL DEFAULT 0,
		overall         INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_timesheets_employee_week ON timesheets(employee_id, started_at)`,

	`CREATE TABLE IF NOT EXISTS time_logs (
		id              TEXT PRIMARY KEY,
		tenant_id       TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		employee_id     TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		timesheet_id    TEXT REFERENCES timesheets(id) ON DELETE SET NULL,
		started_at      TEXT NOT NULL,
		stopped_at      TEXT,
		log_type        TEXT NOT NULL DEFAULT 'TRACKED'
		                CHECK(log_type IN ('TRACKED','MANUAL','IDLE','RESUMED')),
		source          TEXT NOT NULL DEFAULT 'WEB_TIMER'
		                CHECK(source IN ('WEB_TIMER','DESKTOP')),
		is_running      INTEGER NOT NULL DEFAULT 0,
		description     TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		deleted_at      TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_logs_employee_started ON time_logs(employee_id, started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_running ON time_logs(employee_id, is_running)`,

	`CREATE TABLE IF NOT EXISTS time_slots (
		id              TEXT PRIMARY KEY,
		tenant_id       TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		employee_id     TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		started_at      TEXT NOT NULL,
		duration        INTEGER NOT NULL DEFAULT 0 CHECK(duration BETWEEN 0 AND 600),
		keyboard        INTEGER NOT NULL DEFAULT 0 CHECK(keyboard BETWEEN 0 AND 600),
		mouse           INTEGER NOT NULL DEFAULT 0 CHECK(mouse BETWEEN 0 AND 600),
		overall         INTEGER NOT NULL DEFAULT 0 CHECK(overall BETWEEN 0 AND 600),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		deleted_at      TEXT
	)`,

	// No unique index on (employee_id, started_at): duplicates are folded by the merge pass.
	`CREATE INDEX IF NOT EXISTS idx_time_slots_employee_started ON time_slots(employee_id, started_at)`,

	`CREATE TABLE IF NOT EXISTS time_slot_time_logs (
		time_slot_id TEXT NOT NULL REFERENCES time_slots(id) ON DELETE CASCADE,
		time_log_id  TEXT NOT NULL REFERENCES time_logs(id) ON DELETE CASCADE,
		PRIMARY KEY (time_slot_id, time_log_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_slot_time_logs_log ON time_slot_time_logs(time_log_id)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id              TEXT PRIMARY KEY,
		tenant_id       TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		employee_id     TEXT NOT NULL,
		project_id      TEXT NOT NULL DEFAULT '',
		time_slot_id    TEXT REFERENCES time_slots(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		type            TEXT NOT NULL DEFAULT 'APP' CHECK(type IN ('APP','URL')),
		duration        INTEGER NOT NULL DEFAULT 0,
		recorded_at     TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activities_slot ON activities(time_slot_id)`,

	`CREATE TABLE IF NOT EXISTS screenshots (
		id              TEXT PRIMARY KEY,
		tenant_id       TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		employee_id     TEXT NOT NULL,
		time_slot_id    TEXT REFERENCES time_slots(id) ON DELETE CASCADE,
		file            TEXT NOT NULL,
		recorded_at     TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_screenshots_slot ON screenshots(time_slot_id)`,

	`CREATE TABLE IF NOT EXISTS time_slot_minutes (
		id           TEXT PRIMARY KEY,
		time_slot_id TEXT NOT NULL REFERENCES time_slots(id) ON DELETE CASCADE,
		datetime     TEXT NOT NULL,
		keyboard     INTEGER NOT NULL DEFAULT 0,
		mouse        INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_slot_minutes_slot ON time_slot_minutes(time_slot_id)`,

	// Manual edits record when a log's bounds were last changed by hand.
	`ALTER TABLE time_logs ADD COLUMN edited_at TEXT`,
}
