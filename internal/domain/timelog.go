package domain

import (
	"fmt"
	"time"
)

// TimeLog is one continuous work interval. StoppedAt is nil while the timer
// has never been checkpointed; IsRunning stays true until the timer stops.
type TimeLog struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	TimesheetID    string
	StartedAt      time.Time
	StoppedAt      *time.Time
	LogType        LogType
	Source         LogSource
	IsRunning      bool
	Description    string
	EditedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time

	// Slots holds the related slots a query chose to load, if any.
	Slots []*TimeSlot
}

func (l *TimeLog) Scope() Scope {
	return Scope{TenantID: l.TenantID, OrganizationID: l.OrganizationID, EmployeeID: l.EmployeeID}
}

// IsOpen reports whether the log's timer is still running.
func (l *TimeLog) IsOpen() bool {
	return l.IsRunning || l.StoppedAt == nil
}

// End returns StoppedAt, or now when the log has no stop time yet.
func (l *TimeLog) End(now time.Time) time.Time {
	if l.StoppedAt == nil {
		return now
	}
	return *l.StoppedAt
}

// Duration is the log length in whole seconds.
func (l *TimeLog) Duration(now time.Time) int {
	d := int(l.End(now).Sub(l.StartedAt) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func (l *TimeLog) Validate() error {
	if err := l.Scope().Validate(); err != nil {
		return err
	}
	if l.StartedAt.IsZero() {
		return &ValidationError{Field: "startedAt", Reason: "required"}
	}
	if !ValidLogTypes[l.LogType] {
		return &ValidationError{Field: "logType", Reason: fmt.Sprintf("unknown log type %q", l.LogType)}
	}
	if !ValidLogSources[l.Source] {
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", l.Source)}
	}
	if l.StoppedAt != nil && l.StoppedAt.Before(l.StartedAt) {
		return &ValidationError{Field: "stoppedAt", Err: ErrInvalidRange}
	}
	return nil
}

// Clone copies the log's ownership and classification under a new id.
// Relations and timestamps of persistence are not carried over.
func (l *TimeLog) Clone(id string) *TimeLog {
	c := *l
	c.ID = id
	c.Slots = nil
	c.DeletedAt = nil
	if l.StoppedAt != nil {
		stopped := *l.StoppedAt
		c.StoppedAt = &stopped
	}
	if l.EditedAt != nil {
		edited := *l.EditedAt
		c.EditedAt = &edited
	}
	return &c
}
