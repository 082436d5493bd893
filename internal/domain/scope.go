package domain

import "slices"

// Scope is the ownership triple every stored interval is filtered on.
type Scope struct {
	TenantID       string
	OrganizationID string
	EmployeeID     string
}

func (s Scope) Validate() error {
	switch {
	case s.TenantID == "":
		return &ValidationError{Field: "tenantId", Reason: "required"}
	case s.OrganizationID == "":
		return &ValidationError{Field: "organizationId", Reason: "required"}
	case s.EmployeeID == "":
		return &ValidationError{Field: "employeeId", Reason: "required"}
	}
	return nil
}

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	TenantID       string
	EmployeeID     string
	OrganizationID string
	Permissions    []Permission
}

func (a Actor) HasPermission(p Permission) bool {
	return slices.Contains(a.Permissions, p)
}

// ScopeFor resolves the employee and organization an operation acts on.
// Empty values fall back to the actor's own. Acting on another employee
// requires PermChangeSelectedEmployee.
func (a Actor) ScopeFor(employeeID, organizationID string) (Scope, error) {
	if employeeID == "" {
		employeeID = a.EmployeeID
	}
	if organizationID == "" {
		organizationID = a.OrganizationID
	}
	if employeeID != a.EmployeeID && !a.HasPermission(PermChangeSelectedEmployee) {
		return Scope{}, ErrForbidden
	}
	s := Scope{TenantID: a.TenantID, OrganizationID: organizationID, EmployeeID: employeeID}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}
