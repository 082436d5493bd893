package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// IngestTimeSlot records one activity ping: it finds or creates the slot of
// the ping's bucket, attaches the running desktop log (or the logs named in
// the input), then folds the bucket against any duplicate.
func (e *engine) IngestTimeSlot(ctx context.Context, actor domain.Actor, in SlotInput) (slot *domain.TimeSlot, err error) {
	fields := map[string]any{"employee_id": in.EmployeeID, "started_at": in.StartedAt}
	done := e.track(ctx, "ingest-time-slot", fields)
	defer func() { done(err) }()

	scope, err := actor.ScopeFor(in.EmployeeID, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := validateSlotInput(in); err != nil {
		return nil, err
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	start := bucket.Align(in.StartedAt)
	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var running *domain.TimeLog
		if len(in.TimeLogIDs) == 0 {
			r, err := findRunning(ctx, store, scope)
			if err != nil {
				return err
			}
			running = r
		}
		logs, err := e.slotLogs(ctx, store, scope, in.TimeLogIDs, running)
		if err != nil {
			return err
		}

		s, err := store.TimeSlots().FindByStart(ctx, scope, start)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s = e.newSlot(scope, start, in)
			if err := e.stageSlot(ctx, store, s, in, logs, batch); err != nil {
				return err
			}
			if err := store.TimeSlots().Create(ctx, s); err != nil {
				return fmt.Errorf("creating time slot: %w", err)
			}
		case err != nil:
			return fmt.Errorf("finding time slot: %w", err)
		default:
			if err := e.stageSlot(ctx, store, s, in, logs, batch); err != nil {
				return err
			}
			s.UpdatedAt = e.now()
			if err := store.TimeSlots().Save(ctx, s); err != nil {
				return fmt.Errorf("saving time slot: %w", err)
			}
		}

		if _, err := e.merge(ctx, store, scope, start, start, batch); err != nil {
			return err
		}
		slot, err = store.TimeSlots().FindByStart(ctx, scope, start)
		if err != nil {
			return fmt.Errorf("reloading merged slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["slot_id"] = slot.ID
	e.flush(ctx, batch)
	return slot, nil
}

// BulkIngestTimeSlots stores a batch of pings. Buckets that already hold a
// slot are skipped; duplicates within the batch are folded by one merge pass
// over the batch's whole range.
func (e *engine) BulkIngestTimeSlots(ctx context.Context, actor domain.Actor, in []SlotInput) (slots []*domain.TimeSlot, err error) {
	fields := map[string]any{"count": len(in)}
	done := e.track(ctx, "bulk-ingest-time-slots", fields)
	defer func() {
		fields["slots"] = len(slots)
		done(err)
	}()

	if len(in) == 0 {
		return nil, nil
	}

	type scoped struct {
		scope  domain.Scope
		inputs []SlotInput
	}
	var order []domain.Scope
	byScope := make(map[domain.Scope]*scoped)
	for i, item := range in {
		scope, err := actor.ScopeFor(item.EmployeeID, item.OrganizationID)
		if err != nil {
			return nil, err
		}
		if err := validateSlotInput(item); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		g, ok := byScope[scope]
		if !ok {
			g = &scoped{scope: scope}
			byScope[scope] = g
			order = append(order, scope)
		}
		g.inputs = append(g.inputs, item)
	}

	for _, scope := range order {
		merged, err := e.bulkIngestScope(ctx, scope, byScope[scope].inputs)
		if err != nil {
			return nil, err
		}
		slots = append(slots, merged...)
	}
	return slots, nil
}

func (e *engine) bulkIngestScope(ctx context.Context, scope domain.Scope, in []SlotInput) ([]*domain.TimeSlot, error) {
	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	var out []*domain.TimeSlot
	batch := newCascadeBatch()
	err := e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var refIDs []string
		for _, item := range in {
			refIDs = append(refIDs, item.TimeLogIDs...)
		}
		referenced, err := store.TimeLogs().ListByIDs(ctx, scope, dedupe(refIDs))
		if err != nil {
			return fmt.Errorf("resolving referenced time logs: %w", err)
		}
		logsByID := make(map[string]*domain.TimeLog, len(referenced))
		for _, l := range referenced {
			logsByID[l.ID] = l
		}
		running, err := findRunning(ctx, store, scope)
		if err != nil {
			return err
		}

		// Only rows stored before the batch count as existing; duplicates
		// within the batch are written and left to the merge.
		var minStart, maxStart time.Time
		buckets := make(map[time.Time]bool)
		for _, item := range in {
			start := bucket.Align(item.StartedAt)
			if minStart.IsZero() || start.Before(minStart) {
				minStart = start
			}
			if start.After(maxStart) {
				maxStart = start
			}
			if _, seen := buckets[start]; seen {
				continue
			}
			_, err := store.TimeSlots().FindByStart(ctx, scope, start)
			switch {
			case err == nil:
				buckets[start] = true
			case errors.Is(err, repository.ErrNotFound):
				buckets[start] = false
			default:
				return fmt.Errorf("finding time slot: %w", err)
			}
		}

		for _, item := range in {
			start := bucket.Align(item.StartedAt)
			if buckets[start] {
				continue
			}

			logs := make([]*domain.TimeLog, 0, len(item.TimeLogIDs))
			for _, id := range item.TimeLogIDs {
				l, ok := logsByID[id]
				if !ok {
					return fmt.Errorf("time log %s: %w", id, domain.ErrNotFound)
				}
				logs = append(logs, l)
			}
			if len(item.TimeLogIDs) == 0 && running != nil {
				logs = append(logs, running)
			}

			s := e.newSlot(scope, start, item)
			if err := e.stageSlot(ctx, store, s, item, logs, batch); err != nil {
				return err
			}
			if err := store.TimeSlots().Create(ctx, s); err != nil {
				return fmt.Errorf("creating time slot: %w", err)
			}
		}

		merged, err := e.merge(ctx, store, scope, minStart, maxStart, batch)
		if err != nil {
			return err
		}
		for _, s := range merged {
			if _, ok := buckets[bucket.Align(s.StartedAt)]; ok {
				out = append(out, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.flush(ctx, batch)
	return out, nil
}

func validateSlotInput(in SlotInput) error {
	if in.StartedAt.IsZero() {
		return &domain.ValidationError{Field: "startedAt", Reason: "required"}
	}
	for _, v := range []struct {
		field string
		value int
	}{
		{"duration", in.Duration}, {"keyboard", in.Keyboard}, {"mouse", in.Mouse}, {"overall", in.Overall},
	} {
		if v.value < 0 {
			return &domain.ValidationError{Field: v.field, Reason: "must not be negative"}
		}
	}
	return nil
}

// findRunning returns the open desktop tracked log, or nil when there is none.
func findRunning(ctx context.Context, store repository.Store, scope domain.Scope) (*domain.TimeLog, error) {
	l, err := store.TimeLogs().FindRunning(ctx, scope, domain.SourceDesktop, domain.LogTracked)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding running time log: %w", err)
	}
	return l, nil
}

// slotLogs resolves the logs a ping attaches to: the explicit ids when given,
// otherwise the running log if any.
func (e *engine) slotLogs(ctx context.Context, store repository.Store, scope domain.Scope, ids []string, running *domain.TimeLog) ([]*domain.TimeLog, error) {
	if len(ids) == 0 {
		if running == nil {
			return nil, nil
		}
		return []*domain.TimeLog{running}, nil
	}
	ids = dedupe(ids)
	logs, err := store.TimeLogs().ListByIDs(ctx, scope, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving time logs: %w", err)
	}
	if len(logs) != len(ids) {
		return nil, fmt.Errorf("time log: %w", domain.ErrNotFound)
	}
	return logs, nil
}

// newSlot builds an unsaved slot for a bucket carrying the ping's counters.
func (e *engine) newSlot(scope domain.Scope, start time.Time, in SlotInput) *domain.TimeSlot {
	now := e.now()
	return &domain.TimeSlot{
		ID:             newID(),
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		StartedAt:      start,
		Duration:       bucket.Clamp(in.Duration),
		Keyboard:       bucket.Clamp(in.Keyboard),
		Mouse:          bucket.Clamp(in.Mouse),
		Overall:        bucket.Clamp(in.Overall),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// stageSlot attaches logs, activities and minutes to s before it is written.
// Open logs are checkpointed to now so their duration keeps up with pings.
func (e *engine) stageSlot(ctx context.Context, store repository.Store, s *domain.TimeSlot, in SlotInput, logs []*domain.TimeLog, batch *cascadeBatch) error {
	now := e.now()
	for _, l := range logs {
		if !s.HasLog(l.ID) {
			s.TimeLogs = append(s.TimeLogs, l)
		}
		if l.IsOpen() {
			l.StoppedAt = &now
			l.UpdatedAt = now
			if err := store.TimeLogs().Update(ctx, l); err != nil {
				return fmt.Errorf("checkpointing running log: %w", err)
			}
		}
		batch.addLog(l)
	}

	if len(in.Activities) > 0 {
		activities := make([]*domain.Activity, 0, len(in.Activities))
		for _, a := range in.Activities {
			recorded := a.RecordedAt
			if recorded.IsZero() {
				recorded = s.StartedAt
			}
			typ := a.Type
			if typ == "" {
				typ = domain.ActivityApp
			}
			activities = append(activities, &domain.Activity{
				ID:             newID(),
				TenantID:       s.TenantID,
				OrganizationID: s.OrganizationID,
				EmployeeID:     s.EmployeeID,
				ProjectID:      in.ProjectID,
				Title:          a.Title,
				Type:           typ,
				Duration:       a.Duration,
				RecordedAt:     recorded.UTC(),
				CreatedAt:      now,
			})
		}
		if err := store.Activities().BulkSave(ctx, activities); err != nil {
			return fmt.Errorf("saving activities: %w", err)
		}
		s.Activities = append(s.Activities, activities...)
	}

	for _, m := range in.Minutes {
		s.Minutes = append(s.Minutes, &domain.TimeSlotMinute{
			ID:        newID(),
			Datetime:  m.Datetime.UTC(),
			Keyboard:  m.Keyboard,
			Mouse:     m.Mouse,
			CreatedAt: now,
		})
	}
	return nil
}

// syncLogSlots points every bucket of [start, end) at log. Existing slots
// swap replacesID (if any) for log and keep their other logs; missing buckets
// get a new slot sized to the covered seconds.
func (e *engine) syncLogSlots(ctx context.Context, store repository.Store, log *domain.TimeLog, replacesID string, start, end time.Time) error {
	spans, err := bucket.Generate(start, end)
	if err != nil {
		return err
	}
	scope := log.Scope()
	now := e.now()
	for _, span := range spans {
		s, err := store.TimeSlots().FindByStart(ctx, scope, span.StartedAt)
		if errors.Is(err, repository.ErrNotFound) {
			s = &domain.TimeSlot{
				ID:             newID(),
				TenantID:       scope.TenantID,
				OrganizationID: scope.OrganizationID,
				EmployeeID:     scope.EmployeeID,
				StartedAt:      span.StartedAt,
				Duration:       span.Seconds,
				TimeLogs:       []*domain.TimeLog{log},
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := store.TimeSlots().Create(ctx, s); err != nil {
				return fmt.Errorf("creating slot for log: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("finding slot for log: %w", err)
		}

		kept := s.TimeLogs[:0]
		for _, l := range s.TimeLogs {
			if l.ID != replacesID && l.ID != log.ID {
				kept = append(kept, l)
			}
		}
		s.TimeLogs = append(kept, log)
		s.UpdatedAt = now
		if err := store.TimeSlots().Save(ctx, s); err != nil {
			return fmt.Errorf("re-linking slot to log: %w", err)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
