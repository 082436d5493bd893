package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type timeSlotRepo struct {
	db *gorm.DB
}

func (r *timeSlotRepo) Create(ctx context.Context, s *domain.TimeSlot) error {
	if err := r.db.WithContext(ctx).Create(toTimeSlotModel(s)).Error; err != nil {
		return fmt.Errorf("inserting time slot: %w", err)
	}
	return r.writeRelations(ctx, s)
}

func (r *timeSlotRepo) Save(ctx context.Context, s *domain.TimeSlot) error {
	res := scoped(r.db.WithContext(ctx).Model(&timeSlotModel{}), s.Scope()).
		Where("id = ?", s.ID).
		Select("started_at", "duration", "keyboard", "mouse", "overall", "updated_at").
		Updates(toTimeSlotModel(s))
	if res.Error != nil {
		return fmt.Errorf("updating time slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("time slot: %w", repository.ErrNotFound)
	}
	return r.writeRelations(ctx, s)
}

func (r *timeSlotRepo) writeRelations(ctx context.Context, s *domain.TimeSlot) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("time_slot_id = ?", s.ID).Delete(&timeSlotLogModel{}).Error; err != nil {
		return fmt.Errorf("clearing time slot logs: %w", err)
	}
	links := make([]timeSlotLogModel, 0, len(s.TimeLogs))
	seen := make(map[string]bool, len(s.TimeLogs))
	for _, l := range s.TimeLogs {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		links = append(links, timeSlotLogModel{TimeSlotID: s.ID, TimeLogID: l.ID})
	}
	if len(links) > 0 {
		if err := db.Create(&links).Error; err != nil {
			return fmt.Errorf("linking time logs: %w", err)
		}
	}

	var activityIDs, screenshotIDs []string
	for _, a := range s.Activities {
		a.TimeSlotID = s.ID
		activityIDs = append(activityIDs, a.ID)
	}
	for _, sc := range s.Screenshots {
		sc.TimeSlotID = s.ID
		screenshotIDs = append(screenshotIDs, sc.ID)
	}
	if len(activityIDs) > 0 {
		if err := db.Model(&activityModel{}).Where("id IN ?", activityIDs).Update("time_slot_id", s.ID).Error; err != nil {
			return fmt.Errorf("re-parenting activities: %w", err)
		}
	}
	if len(screenshotIDs) > 0 {
		if err := db.Model(&screenshotModel{}).Where("id IN ?", screenshotIDs).Update("time_slot_id", s.ID).Error; err != nil {
			return fmt.Errorf("re-parenting screenshots: %w", err)
		}
	}

	if len(s.Minutes) > 0 {
		minutes := make([]minuteModel, 0, len(s.Minutes))
		for _, m := range s.Minutes {
			m.TimeSlotID = s.ID
			minutes = append(minutes, minuteModel{
				ID: m.ID, TimeSlotID: s.ID, Datetime: m.Datetime.UTC(),
				Keyboard: m.Keyboard, Mouse: m.Mouse, CreatedAt: m.CreatedAt.UTC(),
			})
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"time_slot_id"}),
		}).Create(&minutes).Error
		if err != nil {
			return fmt.Errorf("saving time slot minutes: %w", err)
		}
	}
	return nil
}

func (r *timeSlotRepo) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeSlot, error) {
	slots, err := r.find(ctx, scoped(r.db.WithContext(ctx), scope).Where("id = ?", id), true)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("time slot: %w", repository.ErrNotFound)
	}
	return slots[0], nil
}

func (r *timeSlotRepo) FindByStart(ctx context.Context, scope domain.Scope, startedAt time.Time) (*domain.TimeSlot, error) {
	slots, err := r.find(ctx, scoped(r.db.WithContext(ctx), scope).Where("started_at = ?", startedAt.UTC()), true)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("time slot: %w", repository.ErrNotFound)
	}
	return slots[0], nil
}

func (r *timeSlotRepo) ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeSlot, error) {
	return r.find(ctx, scoped(r.db.WithContext(ctx), scope).
		Where("started_at >= ? AND started_at < ?", start.UTC(), end.UTC()), true)
}

func (r *timeSlotRepo) ListByLog(ctx context.Context, scope domain.Scope, logID string) ([]*domain.TimeSlot, error) {
	sub := r.db.Model(&timeSlotLogModel{}).Select("time_slot_id").Where("time_log_id = ?", logID)
	return r.find(ctx, scoped(r.db.WithContext(ctx), scope).Where("id IN (?)", sub), true)
}

func (r *timeSlotRepo) Delete(ctx context.Context, scope domain.Scope, ids []string, at time.Time, force bool) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if !force {
		err := scoped(db.Model(&timeSlotModel{}), scope).Where("id IN ?", ids).
			UpdateColumns(map[string]any{"deleted_at": at.UTC(), "updated_at": at.UTC()}).Error
		if err != nil {
			return fmt.Errorf("deleting time slots: %w", err)
		}
		return nil
	}

	var owned []string
	if err := scoped(db.Unscoped().Model(&timeSlotModel{}), scope).Where("id IN ?", ids).Pluck("id", &owned).Error; err != nil {
		return fmt.Errorf("resolving time slots: %w", err)
	}
	if len(owned) == 0 {
		return nil
	}
	children := []struct {
		model any
		name  string
	}{
		{&timeSlotLogModel{}, "time slot logs"},
		{&activityModel{}, "activities"},
		{&screenshotModel{}, "screenshots"},
		{&minuteModel{}, "time slot minutes"},
	}
	for _, c := range children {
		if err := db.Where("time_slot_id IN ?", owned).Delete(c.model).Error; err != nil {
			return fmt.Errorf("deleting %s: %w", c.name, err)
		}
	}
	if err := db.Unscoped().Where("id IN ?", owned).Delete(&timeSlotModel{}).Error; err != nil {
		return fmt.Errorf("deleting time slots: %w", err)
	}
	return nil
}

// find runs q ordered by creation; with relations set it also loads logs,
// activities, screenshots and minutes.
func (r *timeSlotRepo) find(ctx context.Context, q *gorm.DB, relations bool) ([]*domain.TimeSlot, error) {
	var rows []timeSlotModel
	if err := q.Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing time slots: %w", err)
	}
	slots := make([]*domain.TimeSlot, 0, len(rows))
	for i := range rows {
		slots = append(slots, fromTimeSlotModel(&rows[i]))
	}
	if relations && len(slots) > 0 {
		if err := r.loadRelations(ctx, slots); err != nil {
			return nil, err
		}
	}
	return slots, nil
}

func (r *timeSlotRepo) loadRelations(ctx context.Context, slots []*domain.TimeSlot) error {
	db := r.db.WithContext(ctx)
	byID := make(map[string]*domain.TimeSlot, len(slots))
	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	var links []timeSlotLogModel
	if err := db.Where("time_slot_id IN ?", ids).Find(&links).Error; err != nil {
		return fmt.Errorf("loading time slot links: %w", err)
	}
	if len(links) > 0 {
		logIDs := make([]string, 0, len(links))
		for _, link := range links {
			logIDs = append(logIDs, link.TimeLogID)
		}
		var logRows []timeLogModel
		if err := db.Where("id IN ?", logIDs).Order("started_at").Order("created_at").Find(&logRows).Error; err != nil {
			return fmt.Errorf("loading time slot logs: %w", err)
		}
		slotsByLog := make(map[string][]string, len(links))
		for _, link := range links {
			slotsByLog[link.TimeLogID] = append(slotsByLog[link.TimeLogID], link.TimeSlotID)
		}
		for i := range logRows {
			for _, slotID := range slotsByLog[logRows[i].ID] {
				byID[slotID].TimeLogs = append(byID[slotID].TimeLogs, fromTimeLogModel(&logRows[i]))
			}
		}
	}

	var activities []activityModel
	if err := db.Where("time_slot_id IN ?", ids).Order("recorded_at").Order("id").Find(&activities).Error; err != nil {
		return fmt.Errorf("loading activities: %w", err)
	}
	for i := range activities {
		a := fromActivityModel(&activities[i])
		byID[a.TimeSlotID].Activities = append(byID[a.TimeSlotID].Activities, a)
	}

	var screenshots []screenshotModel
	if err := db.Where("time_slot_id IN ?", ids).Order("recorded_at").Order("id").Find(&screenshots).Error; err != nil {
		return fmt.Errorf("loading screenshots: %w", err)
	}
	for i := range screenshots {
		sc := fromScreenshotModel(&screenshots[i])
		byID[sc.TimeSlotID].Screenshots = append(byID[sc.TimeSlotID].Screenshots, sc)
	}

	var minutes []minuteModel
	if err := db.Where("time_slot_id IN ?", ids).Order("datetime").Order("id").Find(&minutes).Error; err != nil {
		return fmt.Errorf("loading time slot minutes: %w", err)
	}
	for i := range minutes {
		m := fromMinuteModel(&minutes[i])
		byID[m.TimeSlotID].Minutes = append(byID[m.TimeSlotID].Minutes, m)
	}
	return nil
}
