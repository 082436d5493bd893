package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/domain"
)

// SQLiteOrganizationRepo implements OrganizationRepo using a SQLite database.
type SQLiteOrganizationRepo struct {
	db db.DBTX
}

func NewSQLiteOrganizationRepo(conn db.DBTX) *SQLiteOrganizationRepo {
	return &SQLiteOrganizationRepo{db: conn}
}

func (r *SQLiteOrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, tenant_id, name, future_date_allowed, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.TenantID, o.Name, boolToInt(o.FutureDateAllowed), formatTime(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting organization: %w", err)
	}
	return nil
}

func (r *SQLiteOrganizationRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Organization, error) {
	var (
		o          domain.Organization
		allowed    int
		createdStr string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, future_date_allowed, created_at FROM organizations WHERE id = ? AND tenant_id = ?`,
		id, tenantID).Scan(&o.ID, &o.TenantID, &o.Name, &allowed, &createdStr)
	if err != nil {
		return nil, wrapNotFound("organization", err)
	}
	o.FutureDateAllowed = intToBool(allowed)
	if o.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &o, nil
}

const employeeColumns = `id, tenant_id, organization_id, name, is_tracking_enabled, is_tracking_time,
	total_work_seconds, created_at, updated_at`

// SQLiteEmployeeRepo implements EmployeeRepo using a SQLite database.
type SQLiteEmployeeRepo struct {
	db db.DBTX
}

func NewSQLiteEmployeeRepo(conn db.DBTX) *SQLiteEmployeeRepo {
	return &SQLiteEmployeeRepo{db: conn}
}

func (r *SQLiteEmployeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.OrganizationID, e.Name,
		boolToInt(e.IsTrackingEnabled), boolToInt(e.IsTrackingTime), e.TotalWorkSeconds,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}
	return nil
}

func (r *SQLiteEmployeeRepo) GetByID(ctx context.Context, scope domain.Scope) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ? AND tenant_id = ? AND organization_id = ?`
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, scope.EmployeeID, scope.TenantID, scope.OrganizationID))
	if err != nil {
		return nil, wrapNotFound("employee", err)
	}
	return e, nil
}

func (r *SQLiteEmployeeRepo) List(ctx context.Context, tenantID, organizationID string) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = ? AND organization_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, tenantID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var out []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning employee row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return out, nil
}

func (r *SQLiteEmployeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	query := `UPDATE employees SET name = ?, is_tracking_enabled = ?, is_tracking_time = ?,
		total_work_seconds = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND organization_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		e.Name, boolToInt(e.IsTrackingEnabled), boolToInt(e.IsTrackingTime), e.TotalWorkSeconds,
		formatTime(e.UpdatedAt), e.ID, e.TenantID, e.OrganizationID)
	if err != nil {
		return fmt.Errorf("updating employee: %w", err)
	}
	return requireAffected(res, "employee")
}

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	var (
		e                      domain.Employee
		enabled, tracking      int
		createdStr, updatedStr string
	)
	err := row.Scan(&e.ID, &e.TenantID, &e.OrganizationID, &e.Name, &enabled, &tracking,
		&e.TotalWorkSeconds, &createdStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	e.IsTrackingEnabled = intToBool(enabled)
	e.IsTrackingTime = intToBool(tracking)
	if e.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &e, nil
}
