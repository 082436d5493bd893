package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"gorm.io/gorm"
)

type timeLogRepo struct {
	db *gorm.DB
}

func (r *timeLogRepo) Create(ctx context.Context, l *domain.TimeLog) error {
	if err := r.db.WithContext(ctx).Create(toTimeLogModel(l)).Error; err != nil {
		return fmt.Errorf("inserting time log: %w", err)
	}
	return nil
}

func (r *timeLogRepo) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeLog, error) {
	var m timeLogModel
	if err := scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound("time log", err)
	}
	return fromTimeLogModel(&m), nil
}

func (r *timeLogRepo) ListByIDs(ctx context.Context, scope domain.Scope, ids []string) ([]*domain.TimeLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find("listing time logs by id",
		scoped(r.db.WithContext(ctx), scope).Where("id IN ?", ids).Order("started_at"))
}

func (r *timeLogRepo) FindRunning(ctx context.Context, scope domain.Scope, source domain.LogSource, logType domain.LogType) (*domain.TimeLog, error) {
	var m timeLogModel
	err := scoped(r.db.WithContext(ctx), scope).
		Where("source = ? AND log_type = ?", string(source), string(logType)).
		Where("(is_running = ? OR stopped_at IS NULL)", true).
		Order("started_at DESC").Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, notFound("running time log", err)
	}
	return fromTimeLogModel(&m), nil
}

func (r *timeLogRepo) ListRunning(ctx context.Context, scope domain.Scope) ([]*domain.TimeLog, error) {
	return r.find("listing running time logs",
		scoped(r.db.WithContext(ctx), scope).
			Where("(is_running = ? OR stopped_at IS NULL)", true).
			Order("started_at DESC").Order("created_at DESC"))
}

func (r *timeLogRepo) ListOverlapping(ctx context.Context, scope domain.Scope, start, end time.Time, ignoreID string) ([]*domain.TimeLog, error) {
	logs, err := r.find("listing overlapping time logs",
		scoped(r.db.WithContext(ctx), scope).
			Where("id <> ?", ignoreID).
			Where("started_at <= ?", end.UTC()).
			Where("(stopped_at IS NULL OR stopped_at >= ?)", start.UTC()).
			Order("started_at").Order("created_at"))
	if err != nil {
		return nil, err
	}

	slots := &timeSlotRepo{db: r.db}
	for _, l := range logs {
		q := scoped(r.db.WithContext(ctx), scope).
			Where("id IN (?)", r.db.Model(&timeSlotLogModel{}).Select("time_slot_id").Where("time_log_id = ?", l.ID)).
			Where("started_at > ? AND started_at < ?", start.Add(-bucket.Size).UTC(), end.UTC())
		if l.Slots, err = slots.find(ctx, q, false); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

func (r *timeLogRepo) ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeLog, error) {
	return r.find("listing time logs in range",
		scoped(r.db.WithContext(ctx), scope).
			Where("started_at >= ? AND started_at < ?", start.UTC(), end.UTC()).
			Order("started_at").Order("created_at"))
}

func (r *timeLogRepo) Update(ctx context.Context, l *domain.TimeLog) error {
	m := toTimeLogModel(l)
	res := scoped(r.db.WithContext(ctx).Model(&timeLogModel{}), l.Scope()).
		Where("id = ?", l.ID).
		Select("timesheet_id", "started_at", "stopped_at", "log_type", "source",
			"is_running", "description", "edited_at", "updated_at").
		Updates(m)
	if res.Error != nil {
		return fmt.Errorf("updating time log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("time log: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *timeLogRepo) Delete(ctx context.Context, scope domain.Scope, id string, at time.Time, force bool) error {
	db := r.db.WithContext(ctx)
	var res *gorm.DB
	if force {
		if err := db.Where("time_log_id = ?", id).Delete(&timeSlotLogModel{}).Error; err != nil {
			return fmt.Errorf("unlinking time log: %w", err)
		}
		res = scoped(db.Unscoped(), scope).Where("id = ?", id).Delete(&timeLogModel{})
	} else {
		res = scoped(db.Model(&timeLogModel{}), scope).Where("id = ?", id).
			UpdateColumns(map[string]any{"deleted_at": at.UTC(), "updated_at": at.UTC()})
	}
	if res.Error != nil {
		return fmt.Errorf("deleting time log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("time log: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *timeLogRepo) SumDurations(ctx context.Context, scope domain.Scope) (int64, error) {
	var rows []timeLogModel
	err := scoped(r.db.WithContext(ctx), scope).
		Select("started_at", "stopped_at").
		Where("stopped_at IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("summing time log durations: %w", err)
	}
	var total int64
	for _, m := range rows {
		if d := m.StoppedAt.Sub(m.StartedAt); d > 0 {
			total += int64(d / time.Second)
		}
	}
	return total, nil
}

func (r *timeLogRepo) find(op string, q *gorm.DB) ([]*domain.TimeLog, error) {
	var rows []timeLogModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]*domain.TimeLog, 0, len(rows))
	for i := range rows {
		out = append(out, fromTimeLogModel(&rows[i]))
	}
	return out, nil
}
