package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// MergeSlots folds duplicate slots of one employee into a single canonical
// slot per bucket over the buckets touching [start, end].
func (e *engine) MergeSlots(ctx context.Context, actor domain.Actor, employeeID, organizationID string, start, end time.Time) (slots []*domain.TimeSlot, err error) {
	fields := map[string]any{"employee_id": employeeID, "start": start, "end": end}
	done := e.track(ctx, "merge-slots", fields)
	defer func() {
		fields["slots"] = len(slots)
		done(err)
	}()

	scope, err := actor.ScopeFor(employeeID, organizationID)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &domain.ValidationError{Field: "end", Err: domain.ErrInvalidRange}
	}

	unlock := e.locks.lock(scope.EmployeeID)
	defer unlock()

	batch := newCascadeBatch()
	err = e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var mergeErr error
		slots, mergeErr = e.merge(ctx, store, scope, start, end, batch)
		return mergeErr
	})
	if err != nil {
		return nil, err
	}
	e.flush(ctx, batch)
	return slots, nil
}

// merge runs the aggregation pass inside an open unit of work and returns the
// canonical slots of every bucket in the widened range. Buckets holding a
// single slot are not written, so a repeated pass changes nothing.
func (e *engine) merge(ctx context.Context, store repository.Store, scope domain.Scope, start, end time.Time, batch *cascadeBatch) ([]*domain.TimeSlot, error) {
	from, to := bucket.Widen(start, end)
	rows, err := store.TimeSlots().ListInRange(ctx, scope, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing slots to merge: %w", err)
	}

	groups, keys := groupByBucket(rows)
	out := make([]*domain.TimeSlot, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		survivor := aggregateSlots(group)
		survivor.StartedAt = key
		survivor.UpdatedAt = e.now()
		if err := store.TimeSlots().Save(ctx, survivor); err != nil {
			return nil, fmt.Errorf("saving merged slot: %w", err)
		}

		dropped := make([]string, 0, len(group)-1)
		for _, s := range group[1:] {
			dropped = append(dropped, s.ID)
		}
		if err := store.TimeSlots().Delete(ctx, scope, dropped, survivor.UpdatedAt, e.forceDelete); err != nil {
			return nil, fmt.Errorf("deleting merged duplicates: %w", err)
		}

		for _, l := range survivor.TimeLogs {
			batch.addLog(l)
		}
		batch.addEmployee(scope)
		survivor.DerivePercentages()
		out = append(out, survivor)
	}
	return out, nil
}

// groupByBucket groups slots by aligned start. Each group is ordered oldest
// first and the keys are returned in time order.
func groupByBucket(rows []*domain.TimeSlot) (map[time.Time][]*domain.TimeSlot, []time.Time) {
	groups := make(map[time.Time][]*domain.TimeSlot)
	var keys []time.Time
	for _, s := range rows {
		k := bucket.Align(s.StartedAt)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			if !g[i].CreatedAt.Equal(g[j].CreatedAt) {
				return g[i].CreatedAt.Before(g[j].CreatedAt)
			}
			return g[i].ID < g[j].ID
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return groups, keys
}

// aggregateSlots combines a bucket's slots into the first (oldest) one.
// Keyboard, mouse and overall are averaged over the rows that saw keyboard
// activity so idle duplicates do not dilute them.
func aggregateSlots(group []*domain.TimeSlot) *domain.TimeSlot {
	survivor := *group[0]

	var duration, keyboard, mouse, overall, active int
	for _, s := range group {
		duration += s.Duration
		keyboard += s.Keyboard
		mouse += s.Mouse
		overall += s.Overall
		if s.Keyboard != 0 {
			active++
		}
	}
	survivor.Duration = bucket.Clamp(duration)
	survivor.Keyboard = bucket.Clamp(roundDiv(keyboard, active))
	survivor.Mouse = bucket.Clamp(roundDiv(mouse, active))
	survivor.Overall = bucket.Clamp(roundDiv(overall, active))

	survivor.TimeLogs = nil
	survivor.Activities = nil
	survivor.Screenshots = nil
	survivor.Minutes = nil
	seenLogs := make(map[string]bool)
	for _, s := range group {
		for _, l := range s.TimeLogs {
			if seenLogs[l.ID] {
				continue
			}
			seenLogs[l.ID] = true
			survivor.TimeLogs = append(survivor.TimeLogs, l)
		}
		survivor.Activities = append(survivor.Activities, s.Activities...)
		survivor.Screenshots = append(survivor.Screenshots, s.Screenshots...)
		survivor.Minutes = append(survivor.Minutes, s.Minutes...)
	}
	return &survivor
}
