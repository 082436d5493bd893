package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"organizations", "employees", "timesheets", "time_logs", "time_slots",
		"time_slot_time_logs", "activities", "screenshots", "time_slot_minutes",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_employees_org",
		"idx_timesheets_employee_week",
		"idx_time_logs_employee_started",
		"idx_time_logs_running",
		"idx_time_slots_employee_started",
		"idx_time_slot_time_logs_log",
		"idx_activities_slot",
		"idx_screenshots_slot",
		"idx_time_slot_minutes_slot",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_AddsEditedAtColumn(t *testing.T) {
	db := openTestDB(t)

	rows, err := db.Query(`PRAGMA table_info(time_logs)`)
	require.NoError(t, err)
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		require.NoError(t, rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk))
		if name == "edited_at" {
			found = true
			assert.Equal(t, 0, notNull, "edited_at should be nullable")
		}
	}
	require.NoError(t, rows.Err())
	assert.True(t, found, "edited_at column should exist")
}

func TestMigrate_SlotCountersBounded(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO organizations (id, tenant_id, created_at) VALUES ('o1','t1','2025-01-01T00:00:00.000Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO employees (id, tenant_id, organization_id, created_at, updated_at)
		VALUES ('e1','t1','o1','2025-01-01T00:00:00.000Z','2025-01-01T00:00:00.000Z')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO time_slots (id, tenant_id, organization_id, employee_id, started_at, duration, created_at, updated_at)
		VALUES ('s1','t1','o1','e1','2025-01-01T10:00:00.000Z', 601, '2025-01-01T10:00:00.000Z','2025-01-01T10:00:00.000Z')`)
	assert.Error(t, err, "duration above 600 should violate the check constraint")
}

func TestMigrate_DuplicateBucketsAllowed(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO organizations (id, tenant_id, created_at) VALUES ('o1','t1','2025-01-01T00:00:00.000Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO employees (id, tenant_id, organization_id, created_at, updated_at)
		VALUES ('e1','t1','o1','2025-01-01T00:00:00.000Z','2025-01-01T00:00:00.000Z')`)
	require.NoError(t, err)

	for _, id := range []string{"s1", "s2"} {
		_, err = db.Exec(`INSERT INTO time_slots (id, tenant_id, organization_id, employee_id, started_at, created_at, updated_at)
			VALUES (?,'t1','o1','e1','2025-01-01T10:00:00.000Z','2025-01-01T10:00:00.000Z','2025-01-01T10:00:00.000Z')`, id)
		require.NoError(t, err)
	}
}
