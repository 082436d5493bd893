package domain

import "time"

// Timesheet aggregates one employee's slots over one ISO week.
type Timesheet struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	StartedAt      time.Time
	StoppedAt      time.Time
	Duration       int
	Keyboard       int
	Mouse          int
	Overall        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Timesheet) Scope() Scope {
	return Scope{TenantID: t.TenantID, OrganizationID: t.OrganizationID, EmployeeID: t.EmployeeID}
}

func (t *Timesheet) Contains(at time.Time) bool {
	return !at.Before(t.StartedAt) && !at.After(t.StoppedAt)
}
