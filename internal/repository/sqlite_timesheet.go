package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/domain"
)

const timesheetColumns = `id, tenant_id, organization_id, employee_id, started_at, stopped_at,
	duration, keyboard, mouse, overall, created_at, updated_at`

// SQLiteTimesheetRepo implements TimesheetRepo using a SQLite database.
type SQLiteTimesheetRepo struct {
	db db.DBTX
}

func NewSQLiteTimesheetRepo(conn db.DBTX) *SQLiteTimesheetRepo {
	return &SQLiteTimesheetRepo{db: conn}
}

func (r *SQLiteTimesheetRepo) FirstOrCreate(ctx context.Context, ts *domain.Timesheet) (*domain.Timesheet, error) {
	existing, err := r.GetByWeek(ctx, ts.Scope(), ts.StartedAt)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := `INSERT INTO timesheets (` + timesheetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		ts.ID, ts.TenantID, ts.OrganizationID, ts.EmployeeID,
		formatTime(ts.StartedAt), formatTime(ts.StoppedAt),
		ts.Duration, ts.Keyboard, ts.Mouse, ts.Overall,
		formatTime(ts.CreatedAt), formatTime(ts.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting timesheet: %w", err)
	}
	return ts, nil
}

func (r *SQLiteTimesheetRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = ? AND tenant_id = ?`
	ts, err := scanTimesheet(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		return nil, wrapNotFound("timesheet", err)
	}
	return ts, nil
}

func (r *SQLiteTimesheetRepo) GetByWeek(ctx context.Context, scope domain.Scope, weekStart time.Time) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets
		WHERE tenant_id = ? AND organization_id = ? AND employee_id = ? AND started_at = ?
		ORDER BY created_at LIMIT 1`
	args := append(scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID), formatTime(weekStart))
	ts, err := scanTimesheet(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapNotFound("timesheet", err)
	}
	return ts, nil
}

func (r *SQLiteTimesheetRepo) Update(ctx context.Context, ts *domain.Timesheet) error {
	query := `UPDATE timesheets SET duration = ?, keyboard = ?, mouse = ?, overall = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		ts.Duration, ts.Keyboard, ts.Mouse, ts.Overall, formatTime(ts.UpdatedAt), ts.ID, ts.TenantID)
	if err != nil {
		return fmt.Errorf("updating timesheet: %w", err)
	}
	return requireAffected(res, "timesheet")
}

func scanTimesheet(row rowScanner) (*domain.Timesheet, error) {
	var (
		ts                     domain.Timesheet
		startedStr, stoppedStr string
		createdStr, updatedStr string
	)
	err := row.Scan(&ts.ID, &ts.TenantID, &ts.OrganizationID, &ts.EmployeeID, &startedStr, &stoppedStr,
		&ts.Duration, &ts.Keyboard, &ts.Mouse, &ts.Overall, &createdStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	if ts.StartedAt, err = parseTime(startedStr); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if ts.StoppedAt, err = parseTime(stoppedStr); err != nil {
		return nil, fmt.Errorf("parsing stopped_at: %w", err)
	}
	if ts.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if ts.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &ts, nil
}
