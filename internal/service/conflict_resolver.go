package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

// OverlapCase classifies how a new interval intersects an existing log.
type OverlapCase int

const (
	OverlapNone OverlapCase = iota
	OverlapFull
	OverlapLeft
	OverlapRight
	OverlapSplit
)

func (c OverlapCase) String() string {
	switch c {
	case OverlapNone:
		return "none"
	case OverlapFull:
		return "full"
	case OverlapLeft:
		return "left"
	case OverlapRight:
		return "right"
	case OverlapSplit:
		return "split"
	}
	return fmt.Sprintf("OverlapCase(%d)", int(c))
}

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Classify compares r with the log's [startedAt, end] bounds. Touching
// intervals do not overlap. The cases are checked in the order full, left,
// right, split.
func Classify(r Range, logStart, logEnd time.Time) OverlapCase {
	if !(r.Start.Before(logEnd) && logStart.Before(r.End)) {
		return OverlapNone
	}
	startIn, endIn := r.contains(logStart), r.contains(logEnd)
	switch {
	case startIn && endIn:
		return OverlapFull
	case startIn:
		return OverlapLeft
	case endIn:
		return OverlapRight
	default:
		return OverlapSplit
	}
}

// Resolution records what happened to one (log, slot) pair.
type Resolution struct {
	LogID   string
	SlotID  string
	Case    OverlapCase
	CloneID string
}

// resolveAll clears every stored log of scope that overlaps r, one
// (log, slot) pair at a time. ignoreID skips the log being edited.
func (e *engine) resolveAll(ctx context.Context, store repository.Store, scope domain.Scope, r Range, ignoreID string, batch *cascadeBatch) ([]Resolution, error) {
	logs, err := store.TimeLogs().ListOverlapping(ctx, scope, r.Start, r.End, ignoreID)
	if err != nil {
		return nil, fmt.Errorf("finding conflicting logs: %w", err)
	}
	var out []Resolution
	for _, l := range logs {
		if len(l.Slots) == 0 {
			res, err := e.resolve(ctx, store, scope, r, l.ID, "", batch)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
			continue
		}
		for _, s := range l.Slots {
			res, err := e.resolve(ctx, store, scope, r, l.ID, s.ID, batch)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
	}
	return out, nil
}

// resolve applies the overlap rule for r against the current state of the
// log. Earlier resolutions may already have moved the log or its slot, so
// both are re-read: a slot no longer carrying the log is left alone.
func (e *engine) resolve(ctx context.Context, store repository.Store, scope domain.Scope, r Range, logID, slotID string, batch *cascadeBatch) (Resolution, error) {
	res := Resolution{LogID: logID, SlotID: slotID}
	log, err := store.TimeLogs().GetByID(ctx, scope, logID)
	if errors.Is(err, repository.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("reloading conflicting log: %w", err)
	}

	if slotID != "" {
		slot, err := store.TimeSlots().GetByID(ctx, scope, slotID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			slotID = ""
		case err != nil:
			return res, fmt.Errorf("reloading conflicting slot: %w", err)
		case !slot.HasLog(log.ID):
			slotID = ""
		}
	}

	now := e.now()
	logStart, logEnd := log.StartedAt, log.End(now)
	res.Case = Classify(r, logStart, logEnd)
	batch.addLog(log)

	switch res.Case {
	case OverlapNone:
		// Only touches r. A bucket it shares with r stays linked to it and
		// picks up the new log next to it.
		return res, nil

	case OverlapFull:
		if err := e.releaseSlots(ctx, store, log); err != nil {
			return res, err
		}
		return res, e.deleteLog(ctx, store, log)

	case OverlapLeft:
		if logEnd.Sub(r.End) > 0 {
			log.StartedAt = r.End
			if err := e.touchLog(ctx, store, log, now); err != nil {
				return res, err
			}
		} else if err := e.deleteLog(ctx, store, log); err != nil {
			return res, err
		}
		return res, e.deleteSlots(ctx, store, scope, slotID)

	case OverlapRight:
		if r.Start.Sub(logStart) > 0 {
			stop := r.Start
			log.StoppedAt = &stop
			log.IsRunning = false
			if err := e.touchLog(ctx, store, log, now); err != nil {
				return res, err
			}
		} else if err := e.deleteLog(ctx, store, log); err != nil {
			return res, err
		}
		return res, e.deleteSlots(ctx, store, scope, slotID)
	}

	// Split: keep [logStart, r.Start) on the original and move
	// [r.End, logEnd] onto a clone.
	clone := log.Clone(newID())
	clone.StartedAt = r.End
	clone.StoppedAt = &logEnd
	clone.CreatedAt = now
	clone.UpdatedAt = now

	if r.Start.Sub(logStart) > 0 {
		stop := r.Start
		log.StoppedAt = &stop
		log.IsRunning = false
		if err := e.touchLog(ctx, store, log, now); err != nil {
			return res, err
		}
	} else if err := e.deleteLog(ctx, store, log); err != nil {
		return res, err
	}
	if err := e.deleteSlots(ctx, store, scope, slotID); err != nil {
		return res, err
	}

	if clone.Duration(now) > 0 {
		if err := store.TimeLogs().Create(ctx, clone); err != nil {
			return res, fmt.Errorf("creating split log: %w", err)
		}
		if err := e.syncLogSlots(ctx, store, clone, log.ID, r.End, logEnd); err != nil {
			return res, err
		}
		res.CloneID = clone.ID
		batch.addLog(clone)
	}
	return res, nil
}

func (e *engine) touchLog(ctx context.Context, store repository.Store, l *domain.TimeLog, now time.Time) error {
	l.UpdatedAt = now
	if err := store.TimeLogs().Update(ctx, l); err != nil {
		return fmt.Errorf("truncating log: %w", err)
	}
	return nil
}

func (e *engine) deleteLog(ctx context.Context, store repository.Store, l *domain.TimeLog) error {
	if err := store.TimeLogs().Delete(ctx, l.Scope(), l.ID, e.now(), e.forceDelete); err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	return nil
}

func (e *engine) deleteSlots(ctx context.Context, store repository.Store, scope domain.Scope, ids ...string) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	if err := store.TimeSlots().Delete(ctx, scope, ids, e.now(), e.forceDelete); err != nil {
		return fmt.Errorf("deleting slots: %w", err)
	}
	return nil
}

// releaseSlots detaches l from its slots, deleting those it was the only log
// of. keep filters slots that should stay linked.
func (e *engine) releaseSlots(ctx context.Context, store repository.Store, l *domain.TimeLog, keep ...func(*domain.TimeSlot) bool) error {
	slots, err := store.TimeSlots().ListByLog(ctx, l.Scope(), l.ID)
	if err != nil {
		return fmt.Errorf("listing log slots: %w", err)
	}
	var drop []string
	now := e.now()
next:
	for _, s := range slots {
		for _, k := range keep {
			if k(s) {
				continue next
			}
		}
		if len(s.TimeLogs) <= 1 {
			drop = append(drop, s.ID)
			continue
		}
		others := s.TimeLogs[:0]
		for _, linked := range s.TimeLogs {
			if linked.ID != l.ID {
				others = append(others, linked)
			}
		}
		s.TimeLogs = others
		s.UpdatedAt = now
		if err := store.TimeSlots().Save(ctx, s); err != nil {
			return fmt.Errorf("unlinking log from slot: %w", err)
		}
	}
	return e.deleteSlots(ctx, store, l.Scope(), drop...)
}
