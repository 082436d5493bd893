package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeledger/internal/bucket"
	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
)

func (e *engine) ListTimeLogs(ctx context.Context, actor domain.Actor, employeeID string, start, end time.Time) ([]*domain.TimeLog, error) {
	scope, err := actor.ScopeFor(employeeID, "")
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, &domain.ValidationError{Field: "end", Err: domain.ErrInvalidRange}
	}
	return e.store.TimeLogs().ListInRange(ctx, scope, start, end)
}

func (e *engine) ListTimeSlots(ctx context.Context, actor domain.Actor, employeeID string, start, end time.Time) ([]*domain.TimeSlot, error) {
	scope, err := actor.ScopeFor(employeeID, "")
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, &domain.ValidationError{Field: "end", Err: domain.ErrInvalidRange}
	}
	return e.store.TimeSlots().ListInRange(ctx, scope, bucket.Align(start), end)
}

// GetTimesheet returns the employee's timesheet for the week holding at.
func (e *engine) GetTimesheet(ctx context.Context, actor domain.Actor, employeeID string, at time.Time) (*domain.Timesheet, error) {
	scope, err := actor.ScopeFor(employeeID, "")
	if err != nil {
		return nil, err
	}
	weekStart, _ := bucket.WeekRange(at)
	return e.store.Timesheets().GetByWeek(ctx, scope, weekStart)
}

// Register stores the employee, creating its organization first when it is
// not known yet.
func (e *engine) Register(ctx context.Context, org *domain.Organization, emp *domain.Employee) (err error) {
	done := e.track(ctx, "register-employee", map[string]any{"organization_id": org.ID})
	defer func() { done(err) }()

	now := e.now()
	if org.ID == "" {
		org.ID = newID()
	}
	if emp.ID == "" {
		emp.ID = newID()
	}
	emp.TenantID, emp.OrganizationID = org.TenantID, org.ID
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt, emp.UpdatedAt = now, now
	}
	if err := emp.Scope().Validate(); err != nil {
		return err
	}
	if emp.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "required"}
	}

	return e.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		existing, err := store.Organizations().GetByID(ctx, org.TenantID, org.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if org.CreatedAt.IsZero() {
				org.CreatedAt = now
			}
			if err := store.Organizations().Create(ctx, org); err != nil {
				return fmt.Errorf("creating organization: %w", err)
			}
		case err != nil:
			return err
		default:
			*org = *existing
		}
		return store.Employees().Create(ctx, emp)
	})
}

func (e *engine) Get(ctx context.Context, scope domain.Scope) (*domain.Employee, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return e.store.Employees().GetByID(ctx, scope)
}

func (e *engine) List(ctx context.Context, tenantID, organizationID string) ([]*domain.Employee, error) {
	return e.store.Employees().List(ctx, tenantID, organizationID)
}
