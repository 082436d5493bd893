package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/domain"
)

const timeSlotColumns = `s.id, s.tenant_id, s.organization_id, s.employee_id, s.started_at,
	s.duration, s.keyboard, s.mouse, s.overall, s.created_at, s.updated_at, s.deleted_at`

const timeSlotScope = `s.tenant_id = ? AND s.organization_id = ? AND s.employee_id = ? AND s.deleted_at IS NULL`

// SQLiteTimeSlotRepo implements TimeSlotRepo using a SQLite database.
type SQLiteTimeSlotRepo struct {
	db db.DBTX
}

func NewSQLiteTimeSlotRepo(conn db.DBTX) *SQLiteTimeSlotRepo {
	return &SQLiteTimeSlotRepo{db: conn}
}

func (r *SQLiteTimeSlotRepo) Create(ctx context.Context, s *domain.TimeSlot) error {
	query := `INSERT INTO time_slots (id, tenant_id, organization_id, employee_id, started_at,
		duration, keyboard, mouse, overall, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.OrganizationID, s.EmployeeID, formatTime(s.StartedAt),
		s.Duration, s.Keyboard, s.Mouse, s.Overall,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt), nullableTimeToString(s.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting time slot: %w", err)
	}
	return r.writeRelations(ctx, s)
}

func (r *SQLiteTimeSlotRepo) Save(ctx context.Context, s *domain.TimeSlot) error {
	query := `UPDATE time_slots SET started_at = ?, duration = ?, keyboard = ?, mouse = ?, overall = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND organization_id = ? AND employee_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		formatTime(s.StartedAt), s.Duration, s.Keyboard, s.Mouse, s.Overall, formatTime(s.UpdatedAt),
		s.ID, s.TenantID, s.OrganizationID, s.EmployeeID,
	)
	if err != nil {
		return fmt.Errorf("updating time slot: %w", err)
	}
	if err := requireAffected(res, "time slot"); err != nil {
		return err
	}
	return r.writeRelations(ctx, s)
}

// writeRelations replaces the slot's log links and moves its children under it.
func (r *SQLiteTimeSlotRepo) writeRelations(ctx context.Context, s *domain.TimeSlot) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_slot_time_logs WHERE time_slot_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clearing time slot logs: %w", err)
	}
	seen := make(map[string]bool, len(s.TimeLogs))
	for _, l := range s.TimeLogs {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO time_slot_time_logs (time_slot_id, time_log_id) VALUES (?, ?)`, s.ID, l.ID); err != nil {
			return fmt.Errorf("linking time log %s: %w", l.ID, err)
		}
	}

	reparent := func(table string, ids []string) error {
		if len(ids) == 0 {
			return nil
		}
		placeholders, args := inClause(ids)
		query := `UPDATE ` + table + ` SET time_slot_id = ? WHERE id IN (` + placeholders + `)`
		if _, err := r.db.ExecContext(ctx, query, append([]any{s.ID}, args...)...); err != nil {
			return fmt.Errorf("re-parenting %s: %w", table, err)
		}
		return nil
	}

	activityIDs := make([]string, 0, len(s.Activities))
	for _, a := range s.Activities {
		a.TimeSlotID = s.ID
		activityIDs = append(activityIDs, a.ID)
	}
	screenshotIDs := make([]string, 0, len(s.Screenshots))
	for _, sc := range s.Screenshots {
		sc.TimeSlotID = s.ID
		screenshotIDs = append(screenshotIDs, sc.ID)
	}
	if err := reparent("activities", activityIDs); err != nil {
		return err
	}
	if err := reparent("screenshots", screenshotIDs); err != nil {
		return err
	}

	// Minutes arrive inline with the slot, so they are upserted rather than moved.
	for _, m := range s.Minutes {
		m.TimeSlotID = s.ID
		_, err := r.db.ExecContext(ctx, `INSERT INTO time_slot_minutes (id, time_slot_id, datetime, keyboard, mouse, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET time_slot_id = excluded.time_slot_id`,
			m.ID, m.TimeSlotID, formatTime(m.Datetime), m.Keyboard, m.Mouse, formatTime(m.CreatedAt))
		if err != nil {
			return fmt.Errorf("saving time slot minute: %w", err)
		}
	}
	return nil
}

func (r *SQLiteTimeSlotRepo) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeSlot, error) {
	slots, err := r.list(ctx, true, `s.id = ?`, scope, id)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("time slot: %w", ErrNotFound)
	}
	return slots[0], nil
}

func (r *SQLiteTimeSlotRepo) FindByStart(ctx context.Context, scope domain.Scope, startedAt time.Time) (*domain.TimeSlot, error) {
	slots, err := r.list(ctx, true, `s.started_at = ?`, scope, formatTime(startedAt))
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("time slot: %w", ErrNotFound)
	}
	return slots[0], nil
}

func (r *SQLiteTimeSlotRepo) ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeSlot, error) {
	return r.list(ctx, true, `s.started_at >= ? AND s.started_at < ?`, scope, formatTime(start), formatTime(end))
}

func (r *SQLiteTimeSlotRepo) ListByLog(ctx context.Context, scope domain.Scope, logID string) ([]*domain.TimeSlot, error) {
	return r.list(ctx, true,
		`s.id IN (SELECT time_slot_id FROM time_slot_time_logs WHERE time_log_id = ?)`, scope, logID)
}

func (r *SQLiteTimeSlotRepo) Delete(ctx context.Context, scope domain.Scope, ids []string, at time.Time, force bool) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, idArgs := inClause(ids)
	args := append(idArgs, scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID)...)
	var err error
	if force {
		_, err = r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id IN (`+placeholders+`)
			AND tenant_id = ? AND organization_id = ? AND employee_id = ?`, args...)
	} else {
		now := formatTime(at)
		_, err = r.db.ExecContext(ctx, `UPDATE time_slots SET deleted_at = ?, updated_at = ?
			WHERE id IN (`+placeholders+`) AND tenant_id = ? AND organization_id = ? AND employee_id = ?
			AND deleted_at IS NULL`, append([]any{now, now}, args...)...)
	}
	if err != nil {
		return fmt.Errorf("deleting time slots: %w", err)
	}
	return nil
}

// list runs a scoped slot query ordered by creation. With relations set, the
// logs, activities, screenshots and minutes of every slot are loaded too.
func (r *SQLiteTimeSlotRepo) list(ctx context.Context, relations bool, where string, scope domain.Scope, args ...any) ([]*domain.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM time_slots s
		WHERE ` + timeSlotScope + ` AND ` + where + `
		ORDER BY s.created_at, s.id`
	allArgs := append(scopeArgs(scope.TenantID, scope.OrganizationID, scope.EmployeeID), args...)
	rows, err := r.db.QueryContext(ctx, query, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("listing time slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.TimeSlot
	for rows.Next() {
		s, err := scanTimeSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning time slot row: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time slots: %w", err)
	}
	if relations && len(slots) > 0 {
		if err := r.loadRelations(ctx, slots); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

func (r *SQLiteTimeSlotRepo) loadRelations(ctx context.Context, slots []*domain.TimeSlot) error {
	byID := make(map[string]*domain.TimeSlot, len(slots))
	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}
	placeholders, args := inClause(ids)

	logRows, err := r.db.QueryContext(ctx, `SELECT stl.time_slot_id, `+timeLogColumns+`
		FROM time_slot_time_logs stl
		JOIN time_logs l ON l.id = stl.time_log_id
		WHERE stl.time_slot_id IN (`+placeholders+`) AND l.deleted_at IS NULL
		ORDER BY l.started_at, l.created_at`, args...)
	if err != nil {
		return fmt.Errorf("loading time slot logs: %w", err)
	}
	defer logRows.Close()
	for logRows.Next() {
		var slotID string
		l, err := scanTimeLog(prefixedScanner{row: logRows, prefix: []any{&slotID}})
		if err != nil {
			return fmt.Errorf("scanning time slot log: %w", err)
		}
		byID[slotID].TimeLogs = append(byID[slotID].TimeLogs, l)
	}
	if err := logRows.Err(); err != nil {
		return fmt.Errorf("iterating time slot logs: %w", err)
	}

	activities, err := listActivities(ctx, r.db, `a.time_slot_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}
	for _, a := range activities {
		byID[a.TimeSlotID].Activities = append(byID[a.TimeSlotID].Activities, a)
	}

	screenshots, err := listScreenshots(ctx, r.db, `sc.time_slot_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}
	for _, sc := range screenshots {
		byID[sc.TimeSlotID].Screenshots = append(byID[sc.TimeSlotID].Screenshots, sc)
	}

	minutes, err := listMinutes(ctx, r.db, `m.time_slot_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}
	for _, m := range minutes {
		byID[m.TimeSlotID].Minutes = append(byID[m.TimeSlotID].Minutes, m)
	}
	return nil
}

// prefixedScanner scans leading columns into prefix before the entity columns.
type prefixedScanner struct {
	row    rowScanner
	prefix []any
}

func (p prefixedScanner) Scan(dest ...any) error {
	return p.row.Scan(append(append([]any{}, p.prefix...), dest...)...)
}

func scanTimeSlot(row rowScanner) (*domain.TimeSlot, error) {
	var (
		s                      domain.TimeSlot
		startedStr, createdStr string
		updatedStr             string
		deletedStr             sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &s.OrganizationID, &s.EmployeeID, &startedStr,
		&s.Duration, &s.Keyboard, &s.Mouse, &s.Overall, &createdStr, &updatedStr, &deletedStr,
	)
	if err != nil {
		return nil, err
	}
	return populateTimeSlot(&s, startedStr, createdStr, updatedStr, deletedStr)
}

// populateTimeSlot parses raw columns and derives the percentage fields.
func populateTimeSlot(s *domain.TimeSlot, startedStr, createdStr, updatedStr string, deletedStr sql.NullString) (*domain.TimeSlot, error) {
	var err error
	if s.StartedAt, err = parseTime(startedStr); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if s.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	s.DeletedAt = parseNullableTime(deletedStr)
	s.DerivePercentages()
	return s, nil
}
