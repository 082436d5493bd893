package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// trackedGrace is how long a desktop log with no slots is credited when its
// timer is closed late.
const trackedGrace = 10 * time.Second

// StartTimer closes any running log of the employee and opens a new one.
func (e *engine) StartTimer(ctx context.Context, actor domain.Actor, in TimerInput) (log *domain.TimeLog, err error) {
	fields := map[string]any{"employee_id": in.EmployeeID, "source": in.Source}
	done := e.track(ctx, "start-timer", fields)
	defer func() { done(err) }()

	scope, err := actor.ScopeFor(in.EmployeeID, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	source := manualSource(in.Source)
	if !domain.ValidLogSources[source] {
		return nil, &domain.ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", in.Source)}
	}
	logType := in.LogType
	if logType == "" {
		logType = domain.LogTracked
	}
	if !domain.ValidLogTypes[logType] {
		return nil, &domain.ValidationError{Field: "logType", Reason: fmt.Sprintf("unknown log type %q", in.LogType)}
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		emp, err := store.Employees().GetByID(ctx, scope)
		if err != nil {
			return err
		}
		if !emp.IsTrackingEnabled {
			return domain.ErrTrackingDisabled
		}

		now := e.now()
		running, err := store.TimeLogs().ListRunning(ctx, scope)
		if err != nil {
			return err
		}
		for _, l := range running {
			if _, err := e.closeLog(ctx, store, l, now); err != nil {
				return err
			}
			batch.addLog(l)
		}

		sheet, err := e.timesheetFor(ctx, store, scope, now)
		if err != nil {
			return err
		}
		log = &domain.TimeLog{
			ID:             newID(),
			TenantID:       scope.TenantID,
			OrganizationID: scope.OrganizationID,
			EmployeeID:     scope.EmployeeID,
			TimesheetID:    sheet.ID,
			StartedAt:      now,
			LogType:        logType,
			Source:         source,
			IsRunning:      true,
			Description:    in.Description,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.TimeLogs().Create(ctx, log); err != nil {
			return fmt.Errorf("creating running log: %w", err)
		}

		emp.IsTrackingTime = true
		emp.UpdatedAt = now
		if err := store.Employees().Update(ctx, emp); err != nil {
			return fmt.Errorf("marking employee tracking: %w", err)
		}
		batch.addEmployee(scope)
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["log_id"] = log.ID
	e.flush(ctx, batch)
	return log, nil
}

// StopTimer closes the employee's most recently started running log. A log
// that ends up with no duration is removed instead.
func (e *engine) StopTimer(ctx context.Context, actor domain.Actor, in TimerInput) (log *domain.TimeLog, err error) {
	fields := map[string]any{"employee_id": in.EmployeeID}
	done := e.track(ctx, "stop-timer", fields)
	defer func() { done(err) }()

	scope, err := actor.ScopeFor(in.EmployeeID, in.OrganizationID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		emp, err := store.Employees().GetByID(ctx, scope)
		if err != nil {
			return err
		}
		running, err := store.TimeLogs().ListRunning(ctx, scope)
		if err != nil {
			return err
		}
		if len(running) == 0 {
			return domain.ErrNoRunningLog
		}
		log = running[0]

		requested := e.now()
		if in.StoppedAt != nil {
			requested = in.StoppedAt.UTC()
		}
		if _, err := e.closeLog(ctx, store, log, requested); err != nil {
			return err
		}
		batch.addLog(log)

		emp.IsTrackingTime = false
		emp.UpdatedAt = e.now()
		if err := store.Employees().Update(ctx, emp); err != nil {
			return fmt.Errorf("clearing employee tracking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["log_id"] = log.ID
	e.flush(ctx, batch)
	return log, nil
}

// closeLog stops l at the time stoppedAt settles on for requested and
// reports whether the log was kept. Logs with no duration are hard deleted.
func (e *engine) closeLog(ctx context.Context, store repository.Store, l *domain.TimeLog, requested time.Time) (bool, error) {
	stop, err := e.stoppedAt(ctx, store, l, requested)
	if err != nil {
		return false, err
	}
	if !stop.After(l.StartedAt) {
		hard := e.withForce(true)
		if err := hard.releaseSlots(ctx, store, l); err != nil {
			return false, err
		}
		return false, hard.deleteLog(ctx, store, l)
	}
	l.StoppedAt = &stop
	l.IsRunning = false
	l.UpdatedAt = e.now()
	if err := store.TimeLogs().Update(ctx, l); err != nil {
		return false, fmt.Errorf("stopping log: %w", err)
	}
	return true, nil
}

// stoppedAt settles where a stopping log ends. Web timer logs end when asked.
// A desktop log whose pings stopped more than a bucket ago ends with its last
// slot, or a short grace after start when it never produced one.
func (e *engine) stoppedAt(ctx context.Context, store repository.Store, l *domain.TimeLog, requested time.Time) (time.Time, error) {
	if l.Source != domain.SourceDesktop {
		return requested, nil
	}
	slots, err := store.TimeSlots().ListByLog(ctx, l.Scope(), l.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("listing log slots: %w", err)
	}
	if last := lastSlot(slots); last != nil {
		if requested.Sub(last.StartedAt) > bucket.Size {
			return last.StartedAt.Add(time.Duration(last.Duration) * time.Second), nil
		}
		return requested, nil
	}
	if e.now().Sub(l.StartedAt) > bucket.Size {
		return l.StartedAt.Add(trackedGrace), nil
	}
	return requested, nil
}

func lastSlot(slots []*domain.TimeSlot) *domain.TimeSlot {
	var last *domain.TimeSlot
	for _, s := range slots {
		if last == nil || s.StartedAt.After(last.StartedAt) {
			last = s
		}
	}
	return last
}
