package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// DeleteTimeLogs removes the given logs and the slots only they carried.
// Slots shared with another log are kept and just unlinked.
func (e *engine) DeleteTimeLogs(ctx context.Context, actor domain.Actor, in DeleteInput) (err error) {
	fields := map[string]any{"count": len(in.LogIDs), "force": in.ForceDelete}
	done := e.track(ctx, "delete-time-logs", fields)
	defer func() { done(err) }()

	ids := dedupe(in.LogIDs)
	if len(ids) == 0 {
		return &domain.ValidationError{Field: "logIds", Err: domain.ErrEmptyIDs}
	}
	scope, err := actor.ScopeFor(in.EmployeeID, in.OrganizationID)
	if err != nil {
		return err
	}
	if !actor.HasPermission(domain.PermAllowDeleteTime) {
		return fmt.Errorf("delete time: %w", domain.ErrForbidden)
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	force := in.ForceDelete || e.forceDelete
	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		logs, err := store.TimeLogs().ListByIDs(ctx, scope, ids)
		if err != nil {
			return err
		}
		if len(logs) != len(ids) {
			return fmt.Errorf("time log: %w", domain.ErrNotFound)
		}
		eng := e.withForce(force)
		for _, l := range logs {
			if err := eng.releaseSlots(ctx, store, l); err != nil {
				return err
			}
			if err := eng.deleteLog(ctx, store, l); err != nil {
				return err
			}
			batch.addLog(l)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.flush(ctx, batch)
	return nil
}
