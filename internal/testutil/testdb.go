package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/alexanderramin/timeledger/internal/repository/gormstore"
	"gorm.io/gorm"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) repository.UnitOfWork {
	return repository.NewSQLiteUnitOfWork(db.NewSQLiteUnitOfWork(database))
}

// NewTestGormDB creates an in-memory SQLite database behind GORM with the
// adapter's models migrated.
func NewTestGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenGorm(db.GormOptions{Driver: db.DriverGormSQLite, DSN: db.MemoryPath}, gormstore.Models()...)
	if err != nil {
		t.Fatalf("failed to create gorm test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.CloseGorm(gdb)
	})
	return gdb
}

// Backend is one storage adapter under test.
type Backend struct {
	Name  string
	Store repository.Store
	UoW   repository.UnitOfWork
}

// Backends returns a fresh SQLite and a fresh GORM backend, for tests that
// must hold for every adapter.
func Backends(t *testing.T) []Backend {
	t.Helper()
	sqlDB := NewTestDB(t)
	gdb := NewTestGormDB(t)
	return []Backend{
		{Name: "sqlite", Store: repository.NewSQLiteStore(sqlDB), UoW: NewTestUoW(sqlDB)},
		{Name: "gorm", Store: gormstore.New(gdb), UoW: gormstore.NewUnitOfWork(gdb)},
	}
}
