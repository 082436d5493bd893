package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// RecalculateTimesheet re-sums duration and re-averages the activity counters
// of every slot inside the timesheet's week window.
func RecalculateTimesheet(ctx context.Context, store repository.Store, tenantID, timesheetID string, now time.Time) error {
	ts, err := store.Timesheets().GetByID(ctx, tenantID, timesheetID)
	if err != nil {
		return fmt.Errorf("getting timesheet: %w", err)
	}
	slots, err := store.TimeSlots().ListInRange(ctx, ts.Scope(), ts.StartedAt, ts.StoppedAt.Add(time.Millisecond))
	if err != nil {
		return fmt.Errorf("listing timesheet slots: %w", err)
	}

	var duration, keyboard, mouse, overall int
	for _, s := range slots {
		duration += s.Duration
		keyboard += s.Keyboard
		mouse += s.Mouse
		overall += s.Overall
	}
	ts.Duration = duration
	ts.Keyboard, ts.Mouse, ts.Overall = 0, 0, 0
	if n := len(slots); n > 0 {
		ts.Keyboard = roundDiv(keyboard, n)
		ts.Mouse = roundDiv(mouse, n)
		ts.Overall = roundDiv(overall, n)
	}
	ts.UpdatedAt = now
	if err := store.Timesheets().Update(ctx, ts); err != nil {
		return fmt.Errorf("updating timesheet aggregate: %w", err)
	}
	return nil
}

// UpdateEmployeeTotalWorkedHours stores the employee's lifetime total of
// stopped log durations.
func UpdateEmployeeTotalWorkedHours(ctx context.Context, store repository.Store, scope domain.Scope, now time.Time) error {
	emp, err := store.Employees().GetByID(ctx, scope)
	if err != nil {
		return fmt.Errorf("getting employee: %w", err)
	}
	total, err := store.TimeLogs().SumDurations(ctx, scope)
	if err != nil {
		return err
	}
	emp.TotalWorkSeconds = total
	emp.UpdatedAt = now
	if err := store.Employees().Update(ctx, emp); err != nil {
		return fmt.Errorf("updating employee total: %w", err)
	}
	return nil
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

type timesheetKey struct {
	tenantID string
	id       string
}

// cascadeBatch collects the aggregates a unit of work invalidated so they can
// be recomputed once it has committed.
type cascadeBatch struct {
	timesheets []timesheetKey
	employees  []domain.Scope
	seenSheets map[timesheetKey]bool
	seenEmps   map[domain.Scope]bool
}

func newCascadeBatch() *cascadeBatch {
	return &cascadeBatch{
		seenSheets: make(map[timesheetKey]bool),
		seenEmps:   make(map[domain.Scope]bool),
	}
}

func (b *cascadeBatch) addTimesheet(tenantID, id string) {
	if id == "" {
		return
	}
	k := timesheetKey{tenantID: tenantID, id: id}
	if b.seenSheets[k] {
		return
	}
	b.seenSheets[k] = true
	b.timesheets = append(b.timesheets, k)
}

func (b *cascadeBatch) addEmployee(scope domain.Scope) {
	if b.seenEmps[scope] {
		return
	}
	b.seenEmps[scope] = true
	b.employees = append(b.employees, scope)
}

// addLog marks the log's timesheet and its employee for recalculation.
func (b *cascadeBatch) addLog(l *domain.TimeLog) {
	b.addTimesheet(l.TenantID, l.TimesheetID)
	b.addEmployee(l.Scope())
}

// flush recomputes every collected aggregate. Failures are logged and never
// returned: the mutation that produced the batch has already committed.
func (e *engine) flush(ctx context.Context, b *cascadeBatch) {
	now := e.now()
	for _, k := range b.timesheets {
		err := e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
			return RecalculateTimesheet(ctx, store, k.tenantID, k.id, now)
		})
		if err != nil {
			e.logger.WarnContext(ctx, "timesheet recalculation failed",
				"timesheet_id", k.id, "error", err)
		}
	}
	for _, scope := range b.employees {
		err := e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
			return UpdateEmployeeTotalWorkedHours(ctx, store, scope, now)
		})
		if err != nil {
			e.logger.WarnContext(ctx, "employee total update failed",
				"employee_id", scope.EmployeeID, "error", err)
		}
	}
}
