package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/domain"
)

const timeLogColumns = `l.id, l.tenant_id, l.organization_id, l.employee_id, l.timesheet_id,
	l.started_at, l.stopped_at, l.log_type, l.source, l.is_running, l.description,
	l.edited_at, l.created_at, l.updated_at, l.deleted_at`

const timeLogScope = `l.tenant_id = ? AND l.organization_id = ? AND l.employee_id = ? AND l.deleted_at IS NULL`

// SQLiteTimeLogRepo implements TimeLogRepo using a SQLite database.
type SQLiteTimeLogRepo struct {
	db db.DBTX
}

func NewSQLiteTimeLogRepo(conn db.DBTX) *SQLiteTimeLogRepo {
	return &SQLiteTimeLogRepo{db: conn}
}

func (r *SQLiteTimeLogRepo) Create(ctx context.Context, l *domain.TimeLog) error {
	query := `INSERT INTO time_logs (id, tenant_id, organization_id, employee_id, timesheet_id,
		started_at, stopped_at, log_type, source, is_running, description, edited_at,
		created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.OrganizationID, l.EmployeeID, nullableString(l.TimesheetID),
		formatTime(l.StartedAt), nullableTimeToString(l.StoppedAt),
		string(l.LogType), string(l.Source), boolToInt(l.IsRunning), l.Description,
		nullableTimeToString(l.EditedAt),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt), nullableTimeToString(l.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting time log: %w", err)
	}
	return nil
}

func (r *SQLiteTimeLogRepo) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l WHERE l.id = ? AND ` + timeLogScope
	args := append([]any{id}, scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
	l, err := scanTimeLog(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapNotFound("time log", err)
	}
	return l, nil
}

func (r *SQLiteTimeLogRepo) ListByIDs(ctx context.Context, scope domain.Scope, ids []string) ([]*domain.TimeLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, idArgs := inClause(ids)
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l
		WHERE l.id IN (` + placeholders + `) AND ` + timeLogScope + `
		ORDER BY l.started_at`
	args := append(idArgs, scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
	return r.query(ctx, "listing time logs by id", query, args...)
}

func (r *SQLiteTimeLogRepo) FindRunning(ctx context.Context, scope domain.Scope, source domain.LogSource, logType domain.LogType) (*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l
		WHERE ` + timeLogScope + `
		  AND l.source = ? AND l.log_type = ?
		  AND (l.is_running = 1 OR l.stopped_at IS NULL)
		ORDER BY l.started_at DESC, l.created_at DESC
		LIMIT 1`
	args := append(scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID), string(source), string(logType))
	l, err := scanTimeLog(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapNotFound("running time log", err)
	}
	return l, nil
}

func (r *SQLiteTimeLogRepo) ListRunning(ctx context.Context, scope domain.Scope) ([]*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l
		WHERE ` + timeLogScope + ` AND (l.is_running = 1 OR l.stopped_at IS NULL)
		ORDER BY l.started_at DESC, l.created_at DESC`
	return r.query(ctx, "listing running time logs", query,
		scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
}

func (r *SQLiteTimeLogRepo) ListOverlapping(ctx context.Context, scope domain.Scope, start, end time.Time, ignoreID string) ([]*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l
		WHERE ` + timeLogScope + `
		  AND l.id != ?
		  AND l.started_at <= ?
		  AND (l.stopped_at IS NULL OR l.stopped_at >= ?)
		ORDER BY l.started_at, l.created_at`
	args := append(scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID),
		ignoreID, formatTime(end), formatTime(start))
	logs, err := r.query(ctx, "listing overlapping time logs", query, args...)
	if err != nil {
		return nil, err
	}

	// A slot [s, s+bucket) overlaps [start, end) when start-bucket < s < end.
	slots := NewSQLiteTimeSlotRepo(r.db)
	for _, l := range logs {
		l.Slots, err = slots.list(ctx, false, `s.id IN (SELECT time_slot_id FROM time_slot_time_logs WHERE time_log_id = ?)
			AND s.started_at > ? AND s.started_at < ?`,
			scope, l.ID, formatTime(start.Add(-bucket.Size)), formatTime(end))
		if err != nil {
			return nil, err
		}
	}
	return logs, nil
}

func (r *SQLiteTimeLogRepo) ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs l
		WHERE ` + timeLogScope + ` AND l.started_at >= ? AND l.started_at < ?
		ORDER BY l.started_at, l.created_at`
	args := append(scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID), formatTime(start), formatTime(end))
	return r.query(ctx, "listing time logs in range", query, args...)
}

func (r *SQLiteTimeLogRepo) Update(ctx context.Context, l *domain.TimeLog) error {
	query := `UPDATE time_logs SET timesheet_id = ?, started_at = ?, stopped_at = ?, log_type = ?,
		source = ?, is_running = ?, description = ?, edited_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND organization_id = ? AND employee_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(l.TimesheetID), formatTime(l.StartedAt), nullableTimeToString(l.StoppedAt),
		string(l.LogType), string(l.Source), boolToInt(l.IsRunning), l.Description,
		nullableTimeToString(l.EditedAt), formatTime(l.UpdatedAt),
		l.ID, l.TenantID, l.OrganizationID, l.EmployeeID,
	)
	if err != nil {
		return fmt.Errorf("updating time log: %w", err)
	}
	return requireAffected(res, "time log")
}

func (r *SQLiteTimeLogRepo) Delete(ctx context.Context, scope domain.Scope, id string, at time.Time, force bool) error {
	var (
		res sql.Result
		err error
	)
	args := append([]any{id}, scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
	if force {
		res, err = r.db.ExecContext(ctx, `DELETE FROM time_logs
			WHERE id = ? AND tenant_id = ? AND organization_id = ? AND employee_id = ?`, args...)
	} else {
		now := formatTime(at)
		res, err = r.db.ExecContext(ctx, `UPDATE time_logs SET deleted_at = ?, updated_at = ?
			WHERE id = ? AND tenant_id = ? AND organization_id = ? AND employee_id = ? AND deleted_at IS NULL`,
			append([]any{now, now}, args...)...)
	}
	if err != nil {
		return fmt.Errorf("deleting time log: %w", err)
	}
	return requireAffected(res, "time log")
}

func (r *SQLiteTimeLogRepo) SumDurations(ctx context.Context, scope domain.Scope) (int64, error) {
	query := `SELECT l.started_at, l.stopped_at FROM time_logs l
		WHERE ` + timeLogScope + ` AND l.stopped_at IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, query, scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
	if err != nil {
		return 0, fmt.Errorf("summing time log durations: %w", err)
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var startedStr, stoppedStr string
		if err := rows.Scan(&startedStr, &stoppedStr); err != nil {
			return 0, fmt.Errorf("scanning time log duration: %w", err)
		}
		started, err := parseTime(startedStr)
		if err != nil {
			return 0, fmt.Errorf("parsing started_at: %w", err)
		}
		stopped, err := parseTime(stoppedStr)
		if err != nil {
			return 0, fmt.Errorf("parsing stopped_at: %w", err)
		}
		if d := stopped.Sub(started); d > 0 {
			total += int64(d / time.Second)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating time log durations: %w", err)
	}
	return total, nil
}

func (r *SQLiteTimeLogRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.TimeLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var logs []*domain.TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning time log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time logs: %w", err)
	}
	return logs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimeLog(row rowScanner) (*domain.TimeLog, error) {
	var (
		l                      domain.TimeLog
		timesheetID            sql.NullString
		startedStr, createdStr string
		updatedStr             string
		stoppedStr, editedStr  sql.NullString
		deletedStr             sql.NullString
		logType, source        string
		isRunning              int
	)
	err := row.Scan(
		&l.ID, &l.TenantID, &l.OrganizationID, &l.EmployeeID, &timesheetID,
		&startedStr, &stoppedStr, &logType, &source, &isRunning, &l.Description,
		&editedStr, &createdStr, &updatedStr, &deletedStr,
	)
	if err != nil {
		return nil, err
	}
	return populateTimeLog(&l, timesheetID, startedStr, stoppedStr, logType, source, isRunning,
		editedStr, createdStr, updatedStr, deletedStr)
}

// populateTimeLog converts raw column values into the domain log after a scan.
func populateTimeLog(l *domain.TimeLog, timesheetID sql.NullString, startedStr string, stoppedStr sql.NullString,
	logType, source string, isRunning int, editedStr sql.NullString, createdStr, updatedStr string,
	deletedStr sql.NullString) (*domain.TimeLog, error) {
	var err error
	if l.StartedAt, err = parseTime(startedStr); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if l.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if l.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	l.TimesheetID = timesheetID.String
	l.StoppedAt = parseNullableTime(stoppedStr)
	l.EditedAt = parseNullableTime(editedStr)
	l.DeletedAt = parseNullableTime(deletedStr)
	l.LogType = domain.LogType(logType)
	l.Source = domain.LogSource(source)
	l.IsRunning = intToBool(isRunning)
	return l, nil
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
