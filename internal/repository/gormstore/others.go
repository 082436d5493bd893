package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"gorm.io/gorm"
)

type timesheetRepo struct {
	db *gorm.DB
}

func (r *timesheetRepo) FirstOrCreate(ctx context.Context, ts *domain.Timesheet) (*domain.Timesheet, error) {
	existing, err := r.GetByWeek(ctx, ts.Scope(), ts.StartedAt)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(toTimesheetModel(ts)).Error; err != nil {
		return nil, fmt.Errorf("inserting timesheet: %w", err)
	}
	return ts, nil
}

func (r *timesheetRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	var m timesheetModel
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&m).Error; err != nil {
		return nil, notFound("timesheet", err)
	}
	return fromTimesheetModel(&m), nil
}

func (r *timesheetRepo) GetByWeek(ctx context.Context, scope domain.Scope, weekStart time.Time) (*domain.Timesheet, error) {
	var m timesheetModel
	err := scoped(r.db.WithContext(ctx), scope).
		Where("started_at = ?", weekStart.UTC()).
		Order("created_at").
		First(&m).Error
	if err != nil {
		return nil, notFound("timesheet", err)
	}
	return fromTimesheetModel(&m), nil
}

func (r *timesheetRepo) Update(ctx context.Context, ts *domain.Timesheet) error {
	res := r.db.WithContext(ctx).Model(&timesheetModel{}).
		Where("id = ? AND tenant_id = ?", ts.ID, ts.TenantID).
		Select("duration", "keyboard", "mouse", "overall", "updated_at").
		Updates(toTimesheetModel(ts))
	if res.Error != nil {
		return fmt.Errorf("updating timesheet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("timesheet: %w", repository.ErrNotFound)
	}
	return nil
}

type organizationRepo struct {
	db *gorm.DB
}

func (r *organizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	m := &organizationModel{
		ID: o.ID, TenantID: o.TenantID, Name: o.Name,
		FutureDateAllowed: o.FutureDateAllowed, CreatedAt: o.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting organization: %w", err)
	}
	return nil
}

func (r *organizationRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Organization, error) {
	var m organizationModel
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&m).Error; err != nil {
		return nil, notFound("organization", err)
	}
	return &domain.Organization{
		ID: m.ID, TenantID: m.TenantID, Name: m.Name,
		FutureDateAllowed: m.FutureDateAllowed, CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

type employeeRepo struct {
	db *gorm.DB
}

func (r *employeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	if err := r.db.WithContext(ctx).Create(toEmployeeModel(e)).Error; err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}
	return nil
}

func (r *employeeRepo) GetByID(ctx context.Context, scope domain.Scope) (*domain.Employee, error) {
	var m employeeModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND organization_id = ?", scope.EmployeeID, scope.TenantID, scope.OrganizationID).
		First(&m).Error
	if err != nil {
		return nil, notFound("employee", err)
	}
	return fromEmployeeModel(&m), nil
}

func (r *employeeRepo) List(ctx context.Context, tenantID, organizationID string) ([]*domain.Employee, error) {
	var rows []employeeModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND organization_id = ?", tenantID, organizationID).
		Order("name").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	out := make([]*domain.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, fromEmployeeModel(&rows[i]))
	}
	return out, nil
}

func (r *employeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	res := r.db.WithContext(ctx).Model(&employeeModel{}).
		Where("id = ? AND tenant_id = ? AND organization_id = ?", e.ID, e.TenantID, e.OrganizationID).
		Select("name", "is_tracking_enabled", "is_tracking_time", "total_work_seconds", "updated_at").
		Updates(toEmployeeModel(e))
	if res.Error != nil {
		return fmt.Errorf("updating employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("employee: %w", repository.ErrNotFound)
	}
	return nil
}

type activityRepo struct {
	db *gorm.DB
}

func (r *activityRepo) BulkSave(ctx context.Context, activities []*domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	rows := make([]activityModel, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, activityModel{
			ID: a.ID, TenantID: a.TenantID, OrganizationID: a.OrganizationID, EmployeeID: a.EmployeeID,
			ProjectID: a.ProjectID, TimeSlotID: strPtr(a.TimeSlotID), Title: a.Title,
			Type: string(a.Type), Duration: a.Duration,
			RecordedAt: a.RecordedAt.UTC(), CreatedAt: a.CreatedAt.UTC(),
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("inserting activities: %w", err)
	}
	return nil
}

func (r *activityRepo) ListBySlot(ctx context.Context, slotID string) ([]*domain.Activity, error) {
	var rows []activityModel
	if err := r.db.WithContext(ctx).Where("time_slot_id = ?", slotID).Order("recorded_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	out := make([]*domain.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, fromActivityModel(&rows[i]))
	}
	return out, nil
}

type screenshotRepo struct {
	db *gorm.DB
}

func (r *screenshotRepo) Create(ctx context.Context, s *domain.Screenshot) error {
	m := &screenshotModel{
		ID: s.ID, TenantID: s.TenantID, OrganizationID: s.OrganizationID, EmployeeID: s.EmployeeID,
		TimeSlotID: strPtr(s.TimeSlotID), File: s.File,
		RecordedAt: s.RecordedAt.UTC(), CreatedAt: s.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting screenshot: %w", err)
	}
	return nil
}

func (r *screenshotRepo) ListBySlot(ctx context.Context, slotID string) ([]*domain.Screenshot, error) {
	var rows []screenshotModel
	if err := r.db.WithContext(ctx).Where("time_slot_id = ?", slotID).Order("recorded_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing screenshots: %w", err)
	}
	out := make([]*domain.Screenshot, 0, len(rows))
	for i := range rows {
		out = append(out, fromScreenshotModel(&rows[i]))
	}
	return out, nil
}
