package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/domain"
)

// SQLiteActivityRepo implements ActivityRepo using a SQLite database.
type SQLiteActivityRepo struct {
	db db.DBTX
}

func NewSQLiteActivityRepo(conn db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: conn}
}

func (r *SQLiteActivityRepo) BulkSave(ctx context.Context, activities []*domain.Activity) error {
	query := `INSERT INTO activities (id, tenant_id, organization_id, employee_id, project_id,
		time_slot_id, title, type, duration, recorded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range activities {
		_, err := r.db.ExecContext(ctx, query,
			a.ID, a.TenantID, a.OrganizationID, a.EmployeeID, a.ProjectID,
			nullableString(a.TimeSlotID), a.Title, string(a.Type), a.Duration,
			formatTime(a.RecordedAt), formatTime(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting activity: %w", err)
		}
	}
	return nil
}

func (r *SQLiteActivityRepo) ListBySlot(ctx context.Context, slotID string) ([]*domain.Activity, error) {
	return listActivities(ctx, r.db, `a.time_slot_id = ?`, slotID)
}

func listActivities(ctx context.Context, conn db.DBTX, where string, args ...any) ([]*domain.Activity, error) {
	query := `SELECT a.id, a.tenant_id, a.organization_id, a.employee_id, a.project_id,
		a.time_slot_id, a.title, a.type, a.duration, a.recorded_at, a.created_at
		FROM activities a WHERE ` + where + ` ORDER BY a.recorded_at, a.id`
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Activity
	for rows.Next() {
		var (
			a                       domain.Activity
			slotID                  sql.NullString
			typ                     string
			recordedStr, createdStr string
		)
		if err := rows.Scan(&a.ID, &a.TenantID, &a.OrganizationID, &a.EmployeeID, &a.ProjectID,
			&slotID, &a.Title, &typ, &a.Duration, &recordedStr, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		a.TimeSlotID = slotID.String
		a.Type = domain.ActivityType(typ)
		if a.RecordedAt, err = parseTime(recordedStr); err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return out, nil
}

// SQLiteScreenshotRepo implements ScreenshotRepo using a SQLite database.
type SQLiteScreenshotRepo struct {
	db db.DBTX
}

func NewSQLiteScreenshotRepo(conn db.DBTX) *SQLiteScreenshotRepo {
	return &SQLiteScreenshotRepo{db: conn}
}

func (r *SQLiteScreenshotRepo) Create(ctx context.Context, s *domain.Screenshot) error {
	query := `INSERT INTO screenshots (id, tenant_id, organization_id, employee_id, time_slot_id, file, recorded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.OrganizationID, s.EmployeeID, nullableString(s.TimeSlotID),
		s.File, formatTime(s.RecordedAt), formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting screenshot: %w", err)
	}
	return nil
}

func (r *SQLiteScreenshotRepo) ListBySlot(ctx context.Context, slotID string) ([]*domain.Screenshot, error) {
	return listScreenshots(ctx, r.db, `sc.time_slot_id = ?`, slotID)
}

func listScreenshots(ctx context.Context, conn db.DBTX, where string, args ...any) ([]*domain.Screenshot, error) {
	query := `SELECT sc.id, sc.tenant_id, sc.organization_id, sc.employee_id, sc.time_slot_id,
		sc.file, sc.recorded_at, sc.created_at
		FROM screenshots sc WHERE ` + where + ` ORDER BY sc.recorded_at, sc.id`
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing screenshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.Screenshot
	for rows.Next() {
		var (
			s                       domain.Screenshot
			slotID                  sql.NullString
			recordedStr, createdStr string
		)
		if err := rows.Scan(&s.ID, &s.TenantID, &s.OrganizationID, &s.EmployeeID, &slotID,
			&s.File, &recordedStr, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning screenshot row: %w", err)
		}
		s.TimeSlotID = slotID.String
		if s.RecordedAt, err = parseTime(recordedStr); err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		if s.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating screenshots: %w", err)
	}
	return out, nil
}

func listMinutes(ctx context.Context, conn db.DBTX, where string, args ...any) ([]*domain.TimeSlotMinute, error) {
	query := `SELECT m.id, m.time_slot_id, m.datetime, m.keyboard, m.mouse, m.created_at
		FROM time_slot_minutes m WHERE ` + where + ` ORDER BY m.datetime, m.id`
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing time slot minutes: %w", err)
	}
	defer rows.Close()

	var out []*domain.TimeSlotMinute
	for rows.Next() {
		var (
			m                       domain.TimeSlotMinute
			datetimeStr, createdStr string
		)
		if err := rows.Scan(&m.ID, &m.TimeSlotID, &datetimeStr, &m.Keyboard, &m.Mouse, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning time slot minute row: %w", err)
		}
		if m.Datetime, err = parseTime(datetimeStr); err != nil {
			return nil, fmt.Errorf("parsing datetime: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time slot minutes: %w", err)
	}
	return out, nil
}
