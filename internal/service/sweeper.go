package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// CloseStaleLogs stops running logs of the organization's employees whose
// client went quiet. Each employee is handled in its own unit of work so one
// failure does not hold back the rest.
func (e *engine) CloseStaleLogs(ctx context.Context, tenantID, organizationID string) (closed int, err error) {
	fields := map[string]any{"tenant_id": tenantID, "organization_id": organizationID}
	done := e.track(ctx, "close-stale-logs", fields)
	defer func() {
		fields["closed"] = closed
		done(err)
	}()

	employees, err := e.store.Employees().List(ctx, tenantID, organizationID)
	if err != nil {
		return 0, fmt.Errorf("listing employees: %w", err)
	}

	var failed error
	for _, emp := range employees {
		n, err := e.closeStaleFor(ctx, emp.Scope())
		closed += n
		if err != nil {
			e.logger.WarnContext(ctx, "closing stale logs failed", "employee_id", emp.ID, "error", err)
			failed = err
		}
	}
	return closed, failed
}

func (e *engine) closeStaleFor(ctx context.Context, scope domain.Scope) (int, error) {
	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	closed := 0
	batch := newCascadeBatch()
	err := e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		closed = 0
		running, err := store.TimeLogs().ListRunning(ctx, scope)
		if err != nil {
			return err
		}
		now := e.now()
		for _, l := range running {
			slots, err := store.TimeSlots().ListByLog(ctx, scope, l.ID)
			if err != nil {
				return fmt.Errorf("listing log slots: %w", err)
			}
			stop, ok := staleStop(l, slots, now)
			if !ok {
				continue
			}
			l.StoppedAt = &stop
			l.IsRunning = false
			l.UpdatedAt = now
			if err := store.TimeLogs().Update(ctx, l); err != nil {
				return fmt.Errorf("closing stale log: %w", err)
			}
			batch.addLog(l)
			closed++
		}
		if closed == 0 {
			return nil
		}
		emp, err := store.Employees().GetByID(ctx, scope)
		if err != nil {
			return err
		}
		emp.IsTrackingTime = false
		emp.UpdatedAt = now
		return store.Employees().Update(ctx, emp)
	})
	if err != nil {
		return 0, err
	}
	e.flush(ctx, batch)
	return closed, nil
}

// staleStop estimates where a running log really ended from its slots and
// reports whether that end is old enough to close the log.
func staleStop(l *domain.TimeLog, slots []*domain.TimeSlot, now time.Time) (time.Time, bool) {
	var stop time.Time
	if len(slots) == 0 {
		if now.Sub(l.StartedAt) <= bucket.Size {
			return time.Time{}, false
		}
		stop = l.StartedAt.Add(trackedGrace)
	} else {
		total := 0
		for _, s := range slots {
			total += s.Duration
		}
		stop = l.StartedAt.Add(time.Duration(total) * time.Second)
		if last := lastSlot(slots); stop.Sub(last.StartedAt) > bucket.Size {
			stop = last.StartedAt.Add(time.Duration(last.Duration) * time.Second)
		}
	}
	return stop, now.Sub(stop) > bucket.Size
}
