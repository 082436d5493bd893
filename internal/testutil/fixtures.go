package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/google/uuid"
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewTestScope returns a scope with fresh ids.
func NewTestScope() domain.Scope {
	return domain.Scope{TenantID: newID(), OrganizationID: newID(), EmployeeID: newID()}
}

// NewTestActor returns an actor acting as the scope's employee.
func NewTestActor(scope domain.Scope, perms ...domain.Permission) domain.Actor {
	return domain.Actor{
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		Permissions:    perms,
	}
}

// Organization / Employee options
type EmployeeOption func(*domain.Employee)

func WithTrackingDisabled() EmployeeOption {
	return func(e *domain.Employee) {
		e.IsTrackingEnabled = false
	}
}

func WithEmployeeName(name string) EmployeeOption {
	return func(e *domain.Employee) {
		e.Name = name
	}
}

// SeedEmployee stores the scope's organization (if new) and employee.
// futureAllowed controls the organization's future-date policy.
func SeedEmployee(t *testing.T, store repository.Store, scope domain.Scope, futureAllowed bool, opts ...EmployeeOption) *domain.Employee {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := store.Organizations().GetByID(ctx, scope.TenantID, scope.OrganizationID); err != nil {
		org := &domain.Organization{
			ID: scope.OrganizationID, TenantID: scope.TenantID, Name: "Acme",
			FutureDateAllowed: futureAllowed, CreatedAt: now,
		}
		if err := store.Organizations().Create(ctx, org); err != nil {
			t.Fatalf("seeding organization: %v", err)
		}
	}

	e := &domain.Employee{
		ID:                scope.EmployeeID,
		TenantID:          scope.TenantID,
		OrganizationID:    scope.OrganizationID,
		Name:              "Test Employee",
		IsTrackingEnabled: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := store.Employees().Create(ctx, e); err != nil {
		t.Fatalf("seeding employee: %v", err)
	}
	return e
}

// TimeLog options
type TimeLogOption func(*domain.TimeLog)

func WithLogType(lt domain.LogType) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.LogType = lt
	}
}

func WithSource(s domain.LogSource) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.Source = s
	}
}

func WithRunning() TimeLogOption {
	return func(l *domain.TimeLog) {
		l.IsRunning = true
	}
}

func WithOpenEnd() TimeLogOption {
	return func(l *domain.TimeLog) {
		l.StoppedAt = nil
		l.IsRunning = true
	}
}

func WithTimesheet(id string) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.TimesheetID = id
	}
}

func WithLogCreatedAt(t time.Time) TimeLogOption {
	return func(l *domain.TimeLog) {
		l.CreatedAt = t
		l.UpdatedAt = t
	}
}

func NewTestTimeLog(scope domain.Scope, start, stop time.Time, opts ...TimeLogOption) *domain.TimeLog {
	stopped := stop.UTC()
	l := &domain.TimeLog{
		ID:             newID(),
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		StartedAt:      start.UTC(),
		StoppedAt:      &stopped,
		LogType:        domain.LogTracked,
		Source:         domain.SourceDesktop,
		CreatedAt:      start.UTC(),
		UpdatedAt:      start.UTC(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TimeSlot options
type TimeSlotOption func(*domain.TimeSlot)

func WithCounters(duration, keyboard, mouse, overall int) TimeSlotOption {
	return func(s *domain.TimeSlot) {
		s.Duration = duration
		s.Keyboard = keyboard
		s.Mouse = mouse
		s.Overall = overall
	}
}

func WithLogs(logs ...*domain.TimeLog) TimeSlotOption {
	return func(s *domain.TimeSlot) {
		s.TimeLogs = append(s.TimeLogs, logs...)
	}
}

func WithScreenshots(shots ...*domain.Screenshot) TimeSlotOption {
	return func(s *domain.TimeSlot) {
		s.Screenshots = append(s.Screenshots, shots...)
	}
}

func WithSlotCreatedAt(t time.Time) TimeSlotOption {
	return func(s *domain.TimeSlot) {
		s.CreatedAt = t
		s.UpdatedAt = t
	}
}

func NewTestTimeSlot(scope domain.Scope, start time.Time, opts ...TimeSlotOption) *domain.TimeSlot {
	s := &domain.TimeSlot{
		ID:             newID(),
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		StartedAt:      start.UTC(),
		Duration:       600,
		CreatedAt:      start.UTC(),
		UpdatedAt:      start.UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTestScreenshot stores an unattached screenshot for the scope.
func NewTestScreenshot(t *testing.T, store repository.Store, scope domain.Scope, at time.Time) *domain.Screenshot {
	t.Helper()
	sc := &domain.Screenshot{
		ID:             newID(),
		TenantID:       scope.TenantID,
		OrganizationID: scope.OrganizationID,
		EmployeeID:     scope.EmployeeID,
		File:           "shot-" + at.Format("150405") + ".png",
		RecordedAt:     at.UTC(),
		CreatedAt:      at.UTC(),
	}
	if err := store.Screenshots().Create(context.Background(), sc); err != nil {
		t.Fatalf("seeding screenshot: %v", err)
	}
	return sc
}

// SlotsPerLog seeds log and one full slot per bucket it covers, linked to it.
func SlotsPerLog(t *testing.T, store repository.Store, log *domain.TimeLog, bucketStarts ...time.Time) []*domain.TimeSlot {
	t.Helper()
	ctx := context.Background()
	if err := store.TimeLogs().Create(ctx, log); err != nil {
		t.Fatalf("seeding time log: %v", err)
	}
	slots := make([]*domain.TimeSlot, 0, len(bucketStarts))
	for _, b := range bucketStarts {
		s := NewTestTimeSlot(log.Scope(), b, WithLogs(log))
		if err := store.TimeSlots().Create(ctx, s); err != nil {
			t.Fatalf("seeding time slot: %v", err)
		}
		slots = append(slots, s)
	}
	return slots
}
