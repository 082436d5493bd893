package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/alexanderramin/timeledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, a file-backed DB shares state across all connections in the
// pool, which is required to exercise WAL mode with real concurrent access.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concurrent_test.db")
	database, err := db.OpenDB(path)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

// Readers listing a bucket range while a writer appends slots must never see
// a slot without its log links.
func TestConcurrentAccess_SlotReadsDuringIngest(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()
	store := repository.NewSQLiteStore(database)
	uow := repository.NewSQLiteUnitOfWork(db.NewSQLiteUnitOfWork(database))

	scope := testutil.NewTestScope()
	testutil.SeedEmployee(t, store, scope, false)
	day := testutil.At("2024-03-04T09:00:00")
	log := testutil.NewTestTimeLog(scope, day, day.Add(4*time.Hour))
	require.NoError(t, store.TimeLogs().Create(ctx, log))

	const slots = 24
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < slots; i++ {
			slot := testutil.NewTestTimeSlot(scope, day.Add(time.Duration(i)*10*time.Minute), testutil.WithLogs(log))
			err := uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
				return tx.TimeSlots().Create(ctx, slot)
			})
			if err != nil {
				t.Errorf("writer: create slot %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				got, err := store.TimeSlots().ListInRange(ctx, scope, day, day.Add(4*time.Hour))
				if err != nil {
					t.Errorf("reader %d: list slots: %v", reader, err)
					return
				}
				for _, s := range got {
					if len(s.TimeLogs) != 1 {
						t.Errorf("reader %d: slot %s has %d logs", reader, s.ID, len(s.TimeLogs))
						return
					}
				}
			}
		}(r)
	}
	wg.Wait()

	final, err := store.TimeSlots().ListInRange(ctx, scope, day, day.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Len(t, final, slots)
}

// Parallel transactions for different employees must all commit.
func TestConcurrentAccess_ParallelEmployeeTransactions(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()
	store := repository.NewSQLiteStore(database)
	uow := repository.NewSQLiteUnitOfWork(db.NewSQLiteUnitOfWork(database))
	day := testutil.At("2024-03-04T09:00:00")

	const employees = 6
	var wg sync.WaitGroup
	errs := make(chan error, employees)
	for i := 0; i < employees; i++ {
		scope := testutil.NewTestScope()
		testutil.SeedEmployee(t, store, scope, false)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
				l := testutil.NewTestTimeLog(scope, day, day.Add(time.Hour))
				if err := tx.TimeLogs().Create(ctx, l); err != nil {
					return err
				}
				return tx.TimeSlots().Create(ctx, testutil.NewTestTimeSlot(scope, day, testutil.WithLogs(l)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var count int
	require.NoError(t, database.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_slot_time_logs`).Scan(&count))
	assert.Equal(t, employees, count)
}
