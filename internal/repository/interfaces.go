package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
)

// ErrNotFound is returned (wrapped) when a scoped lookup matches no live row.
var ErrNotFound = domain.ErrNotFound

// Every interval read and write below is filtered on the full tenant,
// organization and employee scope. Soft-deleted rows are invisible to reads.

type TimeLogRepo interface {
	Create(ctx context.Context, l *domain.TimeLog) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeLog, error)
	ListByIDs(ctx context.Context, scope domain.Scope, ids []string) ([]*domain.TimeLog, error)
	// FindRunning returns the most recently started open log for the given
	// source and type.
	FindRunning(ctx context.Context, scope domain.Scope, source domain.LogSource, logType domain.LogType) (*domain.TimeLog, error)
	ListRunning(ctx context.Context, scope domain.Scope) ([]*domain.TimeLog, error)
	// ListOverlapping returns logs whose [startedAt, stoppedAt] touches
	// [start, end] (inclusive), each with only the slots that overlap
	// [start, end) loaded. ignoreID excludes one log.
	ListOverlapping(ctx context.Context, scope domain.Scope, start, end time.Time, ignoreID string) ([]*domain.TimeLog, error)
	ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeLog, error)
	Update(ctx context.Context, l *domain.TimeLog) error
	// Delete stamps deleted_at with at, or removes the row when force is set.
	Delete(ctx context.Context, scope domain.Scope, id string, at time.Time, force bool) error
	// SumDurations totals stopped_at - started_at in seconds over live logs
	// that have a stop time.
	SumDurations(ctx context.Context, scope domain.Scope) (int64, error)
}

type TimeSlotRepo interface {
	// Create inserts the slot, links its TimeLogs and re-parents its
	// Activities, Screenshots and Minutes.
	Create(ctx context.Context, s *domain.TimeSlot) error
	// Save updates counters, replaces the log links and re-parents children.
	Save(ctx context.Context, s *domain.TimeSlot) error
	GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.TimeSlot, error)
	// FindByStart returns the oldest live slot for the bucket.
	FindByStart(ctx context.Context, scope domain.Scope, startedAt time.Time) (*domain.TimeSlot, error)
	// ListInRange returns slots with start <= startedAt < end, oldest first,
	// with logs, activities, screenshots and minutes loaded.
	ListInRange(ctx context.Context, scope domain.Scope, start, end time.Time) ([]*domain.TimeSlot, error)
	ListByLog(ctx context.Context, scope domain.Scope, logID string) ([]*domain.TimeSlot, error)
	Delete(ctx context.Context, scope domain.Scope, ids []string, at time.Time, force bool) error
}

type TimesheetRepo interface {
	// FirstOrCreate returns the sheet starting at weekStart, inserting ts when
	// none exists yet.
	FirstOrCreate(ctx context.Context, ts *domain.Timesheet) (*domain.Timesheet, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Timesheet, error)
	GetByWeek(ctx context.Context, scope domain.Scope, weekStart time.Time) (*domain.Timesheet, error)
	Update(ctx context.Context, ts *domain.Timesheet) error
}

type OrganizationRepo interface {
	Create(ctx context.Context, o *domain.Organization) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Organization, error)
}

type EmployeeRepo interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, scope domain.Scope) (*domain.Employee, error)
	List(ctx context.Context, tenantID, organizationID string) ([]*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) error
}

type ActivityRepo interface {
	BulkSave(ctx context.Context, activities []*domain.Activity) error
	ListBySlot(ctx context.Context, slotID string) ([]*domain.Activity, error)
}

type ScreenshotRepo interface {
	Create(ctx context.Context, s *domain.Screenshot) error
	ListBySlot(ctx context.Context, slotID string) ([]*domain.Screenshot, error)
}

// Store bundles the repositories of one storage backend.
type Store interface {
	TimeLogs() TimeLogRepo
	TimeSlots() TimeSlotRepo
	Timesheets() TimesheetRepo
	Organizations() OrganizationRepo
	Employees() EmployeeRepo
	Activities() ActivityRepo
	Screenshots() ScreenshotRepo
}

// UnitOfWork hands fn a Store whose writes commit or roll back together.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
