package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite     = "sqlite"
	DriverGormSQLite = "gorm-sqlite"
	DriverPostgres   = "postgres"
)

// GormOptions selects the backend behind the GORM adapter.
type GormOptions struct {
	Driver   string
	DSN      string
	LogLevel logger.LogLevel
}

// OpenGorm connects GORM to SQLite (pure Go driver) or PostgreSQL and
// auto-migrates the given models.
func OpenGorm(opts GormOptions, models ...any) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Silent
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(opts.LogLevel)}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverGormSQLite:
		if opts.DSN != MemoryPath && !strings.HasPrefix(opts.DSN, "file:") {
			if err := os.MkdirAll(filepath.Dir(opts.DSN), 0755); err != nil {
				return nil, fmt.Errorf("creating db directory: %w", err)
			}
		}
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", opts.Driver)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Driver, err)
	}

	if opts.Driver == DriverGormSQLite {
		if opts.DSN == MemoryPath {
			sqlDB, err := gdb.DB()
			if err != nil {
				return nil, fmt.Errorf("getting sql handle: %w", err)
			}
			sqlDB.SetMaxOpenConns(1)
		}
		for _, p := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if err := gdb.Exec(p).Error; err != nil {
				return nil, fmt.Errorf("applying %q: %w", p, err)
			}
		}
	}

	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("auto-migrating schema: %w", err)
		}
	}
	return gdb, nil
}

// CloseGorm releases the connection pool behind gdb.
func CloseGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
