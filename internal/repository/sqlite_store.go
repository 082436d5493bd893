package repository

import (
	"context"

	"github.com/alexanderramin/timeledger/internal/db"
)

// SQLiteStore serves every repository from one DBTX, so a store built from a
// transaction keeps all of its reads and writes inside that transaction.
type SQLiteStore struct {
	timeLogs      *SQLiteTimeLogRepo
	timeSlots     *SQLiteTimeSlotRepo
	timesheets    *SQLiteTimesheetRepo
	organizations *SQLiteOrganizationRepo
	employees     *SQLiteEmployeeRepo
	activities    *SQLiteActivityRepo
	screenshots   *SQLiteScreenshotRepo
}

func NewSQLiteStore(conn db.DBTX) *SQLiteStore {
	return &SQLiteStore{
		timeLogs:      NewSQLiteTimeLogRepo(conn),
		timeSlots:     NewSQLiteTimeSlotRepo(conn),
		timesheets:    NewSQLiteTimesheetRepo(conn),
		organizations: NewSQLiteOrganizationRepo(conn),
		employees:     NewSQLiteEmployeeRepo(conn),
		activities:    NewSQLiteActivityRepo(conn),
		screenshots:   NewSQLiteScreenshotRepo(conn),
	}
}

func (s *SQLiteStore) TimeLogs() TimeLogRepo           { return s.timeLogs }
func (s *SQLiteStore) TimeSlots() TimeSlotRepo         { return s.timeSlots }
func (s *SQLiteStore) Timesheets() TimesheetRepo       { return s.timesheets }
func (s *SQLiteStore) Organizations() OrganizationRepo { return s.organizations }
func (s *SQLiteStore) Employees() EmployeeRepo         { return s.employees }
func (s *SQLiteStore) Activities() ActivityRepo        { return s.activities }
func (s *SQLiteStore) Screenshots() ScreenshotRepo     { return s.screenshots }

// SQLiteUnitOfWork adapts a db.UnitOfWork to hand out tx-scoped stores.
type SQLiteUnitOfWork struct {
	uow db.UnitOfWork
}

func NewSQLiteUnitOfWork(uow db.UnitOfWork) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{uow: uow}
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return u.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, NewSQLiteStore(tx))
	})
}

var (
	_ Store      = (*SQLiteStore)(nil)
	_ UnitOfWork = (*SQLiteUnitOfWork)(nil)
)
