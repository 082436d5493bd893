package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// AddManualTime clears every stored interval overlapping the new range and
// inserts a MANUAL log for it, together with its slots.
func (e *engine) AddManualTime(ctx context.Context, actor domain.Actor, in ManualTimeInput) (log *domain.TimeLog, err error) {
	fields := map[string]any{"employee_id": in.EmployeeID, "start": in.StartedAt, "end": in.StoppedAt}
	done := e.track(ctx, "add-manual-time", fields)
	defer func() { done(err) }()

	scope, r, err := e.manualScope(actor, in)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := e.checkFutureDate(ctx, store, scope, r); err != nil {
			return err
		}
		resolved, err := e.resolveAll(ctx, store, scope, r, "", batch)
		if err != nil {
			return err
		}
		fields["conflicts"] = len(resolved)

		sheet, err := e.timesheetFor(ctx, store, scope, r.Start)
		if err != nil {
			return err
		}

		now := e.now()
		stop := r.End
		log = &domain.TimeLog{
			ID:             newID(),
			TenantID:       scope.TenantID,
			OrganizationID: scope.OrganizationID,
			EmployeeID:     scope.EmployeeID,
			TimesheetID:    sheet.ID,
			StartedAt:      r.Start,
			StoppedAt:      &stop,
			LogType:        domain.LogManual,
			Source:         manualSource(in.Source),
			Description:    in.Description,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := log.Validate(); err != nil {
			return err
		}
		if err := store.TimeLogs().Create(ctx, log); err != nil {
			return fmt.Errorf("creating manual log: %w", err)
		}
		if err := e.syncLogSlots(ctx, store, log, "", r.Start, r.End); err != nil {
			return err
		}
		batch.addLog(log)
		_, err = e.merge(ctx, store, scope, r.Start, r.End, batch)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["log_id"] = log.ID
	e.flush(ctx, batch)
	return log, nil
}

// UpdateManualTime moves an existing log to new bounds, resolving conflicts
// with every other log the way AddManualTime does.
func (e *engine) UpdateManualTime(ctx context.Context, actor domain.Actor, logID string, in ManualTimeInput) (log *domain.TimeLog, err error) {
	fields := map[string]any{"log_id": logID, "start": in.StartedAt, "end": in.StoppedAt}
	done := e.track(ctx, "update-manual-time", fields)
	defer func() { done(err) }()

	scope, r, err := e.manualScope(actor, in)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		existing, err := store.TimeLogs().GetByID(ctx, scope, logID)
		if err != nil {
			return err
		}
		if err := e.checkFutureDate(ctx, store, scope, r); err != nil {
			return err
		}
		batch.addLog(existing)

		if _, err := e.resolveAll(ctx, store, scope, r, existing.ID, batch); err != nil {
			return err
		}

		sheet, err := e.timesheetFor(ctx, store, scope, r.Start)
		if err != nil {
			return err
		}

		now := e.now()
		stop := r.End
		existing.TimesheetID = sheet.ID
		existing.StartedAt = r.Start
		existing.StoppedAt = &stop
		existing.IsRunning = false
		existing.EditedAt = &now
		existing.UpdatedAt = now
		if in.Description != "" {
			existing.Description = in.Description
		}
		if err := store.TimeLogs().Update(ctx, existing); err != nil {
			return fmt.Errorf("updating manual log: %w", err)
		}

		covered := make(map[time.Time]bool)
		if buckets, err := bucket.Covering(r.Start, r.End); err == nil {
			for _, b := range buckets {
				covered[b] = true
			}
		}
		err = e.releaseSlots(ctx, store, existing, func(s *domain.TimeSlot) bool {
			return covered[bucket.Align(s.StartedAt)]
		})
		if err != nil {
			return err
		}
		if existing.Source == domain.SourceWebTimer {
			if err := e.syncLogSlots(ctx, store, existing, "", r.Start, r.End); err != nil {
				return err
			}
		}

		batch.addLog(existing)
		if _, err := e.merge(ctx, store, scope, r.Start, r.End, batch); err != nil {
			return err
		}
		log = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.flush(ctx, batch)
	return log, nil
}

// manualScope resolves who the entry is for and checks the range.
func (e *engine) manualScope(actor domain.Actor, in ManualTimeInput) (domain.Scope, Range, error) {
	scope, err := actor.ScopeFor(in.EmployeeID, in.OrganizationID)
	if err != nil {
		return domain.Scope{}, Range{}, err
	}
	if !actor.HasPermission(domain.PermAllowManualTime) {
		return domain.Scope{}, Range{}, fmt.Errorf("manual time: %w", domain.ErrForbidden)
	}
	if in.StartedAt.IsZero() || in.StoppedAt.IsZero() {
		return domain.Scope{}, Range{}, &domain.ValidationError{Field: "startedAt", Reason: "start and stop are required"}
	}
	r := Range{Start: in.StartedAt.UTC(), End: in.StoppedAt.UTC()}
	if !r.End.After(r.Start) {
		return domain.Scope{}, Range{}, &domain.ValidationError{Field: "stoppedAt", Err: domain.ErrInvalidRange}
	}
	if in.Source != "" && !domain.ValidLogSources[in.Source] {
		return domain.Scope{}, Range{}, &domain.ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", in.Source)}
	}
	return scope, r, nil
}

// checkFutureDate rejects ranges ending after now unless the organization
// allows future dating. A missing employee fails here too.
func (e *engine) checkFutureDate(ctx context.Context, store repository.Store, scope domain.Scope, r Range) error {
	if _, err := store.Employees().GetByID(ctx, scope); err != nil {
		return err
	}
	org, err := store.Organizations().GetByID(ctx, scope.TenantID, scope.OrganizationID)
	if err != nil {
		return err
	}
	if !org.FutureDateAllowed && r.End.After(e.now()) {
		return &domain.ValidationError{Field: "stoppedAt", Err: domain.ErrFutureDateNotAllowed}
	}
	return nil
}

// timesheetFor returns the employee's timesheet for the week holding at,
// creating it on first use.
func (e *engine) timesheetFor(ctx context.Context, store repository.Store, scope domain.Scope, at time.Time) (*domain.Timesheet, error) {
	start, end := bucket.WeekRange(at)
	now := e.now()
	sheet, err := store.Timesheets().FirstOrCreate(ctx, &domain.Timesheet{
		ID:             newID(),
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		StartedAt:      start,
		StoppedAt:      end,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("getting timesheet: %w", err)
	}
	return sheet, nil
}

func manualSource(s domain.LogSource) domain.LogSource {
	if s == "" {
		return domain.SourceWebTimer
	}
	return s
}
