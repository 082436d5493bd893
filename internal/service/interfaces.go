package service

import (
	"context"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
)

// SlotInput is one activity ping from a timer client.
type SlotInput struct {
	EmployeeID     string
	OrganizationID string
	ProjectID      string
	StartedAt      time.Time
	Duration       int
	Keyboard       int
	Mouse          int
	Overall        int
	// TimeLogIDs, when set, replaces the running-log lookup (offline sync).
	TimeLogIDs []string
	Activities []ActivityInput
	Minutes    []MinuteInput
}

type ActivityInput struct {
	Title      string
	Type       domain.ActivityType
	Duration   int
	RecordedAt time.Time
}

type MinuteInput struct {
	Datetime time.Time
	Keyboard int
	Mouse    int
}

// ManualTimeInput is a manually entered interval [StartedAt, StoppedAt).
type ManualTimeInput struct {
	EmployeeID     string
	OrganizationID string
	StartedAt      time.Time
	StoppedAt      time.Time
	Source         domain.LogSource
	Description    string
}

type DeleteInput struct {
	LogIDs         []string
	EmployeeID     string
	OrganizationID string
	ForceDelete    bool
}

type TimerInput struct {
	EmployeeID     string
	OrganizationID string
	Source         domain.LogSource
	LogType        domain.LogType
	Description    string
	// StoppedAt overrides the clock when stopping.
	StoppedAt *time.Time
}

// TimeTrackingService is the consolidation and conflict-resolution contract.
type TimeTrackingService interface {
	IngestTimeSlot(ctx context.Context, actor domain.Actor, in SlotInput) (*domain.TimeSlot, error)
	BulkIngestTimeSlots(ctx context.Context, actor domain.Actor, in []SlotInput) ([]*domain.TimeSlot, error)
	AddManualTime(ctx context.Context, actor domain.Actor, in ManualTimeInput) (*domain.TimeLog, error)
	UpdateManualTime(ctx context.Context, actor domain.Actor, logID string, in ManualTimeInput) (*domain.TimeLog, error)
	DeleteTimeLogs(ctx context.Context, actor domain.Actor, in DeleteInput) error
	MergeSlots(ctx context.Context, actor domain.Actor, employeeID, organizationID string, start, end time.Time) ([]*domain.TimeSlot, error)
}

type TimerService interface {
	StartTimer(ctx context.Context, actor domain.Actor, in TimerInput) (*domain.TimeLog, error)
	StopTimer(ctx context.Context, actor domain.Actor, in TimerInput) (*domain.TimeLog, error)
}

type SweepService interface {
	// CloseStaleLogs closes running logs that stopped receiving slots and
	// reports how many were closed.
	CloseStaleLogs(ctx context.Context, tenantID, organizationID string) (int, error)
}

type QueryService interface {
	ListTimeLogs(ctx context.Context, actor domain.Actor, employeeID string, start, end time.Time) ([]*domain.TimeLog, error)
	ListTimeSlots(ctx context.Context, actor domain.Actor, employeeID string, start, end time.Time) ([]*domain.TimeSlot, error)
	GetTimesheet(ctx context.Context, actor domain.Actor, employeeID string, at time.Time) (*domain.Timesheet, error)
}

type EmployeeService interface {
	Register(ctx context.Context, org *domain.Organization, e *domain.Employee) error
	Get(ctx context.Context, scope domain.Scope) (*domain.Employee, error)
	List(ctx context.Context, tenantID, organizationID string) ([]*domain.Employee, error)
}

// Engine bundles every service over one store.
type Engine interface {
	TimeTrackingService
	TimerService
	SweepService
	QueryService
	EmployeeService
}
