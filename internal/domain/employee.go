package domain

import "time"

type Organization struct {
	ID                string
	TenantID          string
	Name              string
	FutureDateAllowed bool
	CreatedAt         time.Time
}

type Employee struct {
	ID                string
	TenantID          string
	OrganizationID    string
	Name              string
	IsTrackingEnabled bool
	IsTrackingTime    bool
	TotalWorkSeconds  int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (e *Employee) Scope() Scope {
	return Scope{TenantID: e.TenantID, OrganizationID: e.OrganizationID, EmployeeID: e.ID}
}

// TotalWorkHours reports the lifetime total rounded to two decimals.
func (e *Employee) TotalWorkHours() float64 {
	return float64(e.TotalWorkSeconds*100/3600) / 100
}
