package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"gorm.io/gorm"
)

// Store serves every repository from one *gorm.DB, which may be a transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) TimeLogs() repository.TimeLogRepo           { return &timeLogRepo{db: s.db} }
func (s *Store) TimeSlots() repository.TimeSlotRepo         { return &timeSlotRepo{db: s.db} }
func (s *Store) Timesheets() repository.TimesheetRepo       { return &timesheetRepo{db: s.db} }
func (s *Store) Organizations() repository.OrganizationRepo { return &organizationRepo{db: s.db} }
func (s *Store) Employees() repository.EmployeeRepo         { return &employeeRepo{db: s.db} }
func (s *Store) Activities() repository.ActivityRepo        { return &activityRepo{db: s.db} }
func (s *Store) Screenshots() repository.ScreenshotRepo     { return &screenshotRepo{db: s.db} }

// UnitOfWork runs callbacks inside a GORM transaction.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, New(tx))
	})
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.UnitOfWork = (*UnitOfWork)(nil)
)

func scoped(db *gorm.DB, scope domain.Scope) *gorm.DB {
	return db.Where("tenant_id = ? AND organization_id = ? AND employee_id = ?",
		scope.TenantID, scope.OrganizationID, scope.EmployeeID)
}

func notFound(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
	}
	return fmt.Errorf("loading %s: %w", entity, err)
}
