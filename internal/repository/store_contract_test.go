package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/alexanderramin/timeledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hm string) time.Time {
	return testutil.At("2024-03-04T" + hm + ":00")
}

// forEachBackend runs fn against a fresh store of every adapter with one
// seeded employee.
func forEachBackend(t *testing.T, fn func(t *testing.T, b testutil.Backend, scope domain.Scope)) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			scope := testutil.NewTestScope()
			testutil.SeedEmployee(t, b.Store, scope, false)
			fn(t, b, scope)
		})
	}
}

func TestTimeLogRepo_ScopedCRUD(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.TimeLogs()
		log := testutil.NewTestTimeLog(scope, at("09:00"), at("10:00"))
		log.Description = "standup"
		require.NoError(t, repo.Create(ctx, log))

		got, err := repo.GetByID(ctx, scope, log.ID)
		require.NoError(t, err)
		assert.Equal(t, "standup", got.Description)
		assert.Equal(t, at("09:00"), got.StartedAt)
		assert.Equal(t, at("10:00"), *got.StoppedAt)
		assert.Equal(t, domain.SourceDesktop, got.Source)

		stranger := scope
		stranger.EmployeeID = "someone-else"
		_, err = repo.GetByID(ctx, stranger, log.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		edited := at("11:00")
		got.StoppedAt = nil
		got.IsRunning = true
		got.EditedAt = &edited
		require.NoError(t, repo.Update(ctx, got))
		reloaded, err := repo.GetByID(ctx, scope, log.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.StoppedAt)
		assert.True(t, reloaded.IsOpen())
		require.NotNil(t, reloaded.EditedAt)
		assert.Equal(t, edited, *reloaded.EditedAt)

		missing := testutil.NewTestTimeLog(scope, at("09:00"), at("10:00"))
		assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
	})
}

func TestTimeLogRepo_SoftAndHardDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.TimeLogs()
		soft := testutil.NewTestTimeLog(scope, at("09:00"), at("10:00"))
		hard := testutil.NewTestTimeLog(scope, at("11:00"), at("12:00"))
		require.NoError(t, repo.Create(ctx, soft))
		require.NoError(t, repo.Create(ctx, hard))

		require.NoError(t, repo.Delete(ctx, scope, soft.ID, at("13:00"), false))
		require.NoError(t, repo.Delete(ctx, scope, hard.ID, at("13:00"), true))

		for _, id := range []string{soft.ID, hard.ID} {
			_, err := repo.GetByID(ctx, scope, id)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		}
		assert.ErrorIs(t, repo.Delete(ctx, scope, soft.ID, at("13:00"), false), repository.ErrNotFound, "already deleted")

		total, err := repo.SumDurations(ctx, scope)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestTimeLogRepo_FindRunning(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.TimeLogs()

		_, err := repo.FindRunning(ctx, scope, domain.SourceDesktop, domain.LogTracked)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		older := testutil.NewTestTimeLog(scope, at("08:00"), time.Time{}, testutil.WithOpenEnd())
		newer := testutil.NewTestTimeLog(scope, at("09:00"), at("09:05"), testutil.WithRunning())
		web := testutil.NewTestTimeLog(scope, at("10:00"), time.Time{}, testutil.WithOpenEnd(),
			testutil.WithSource(domain.SourceWebTimer))
		closed := testutil.NewTestTimeLog(scope, at("11:00"), at("11:30"))
		for _, l := range []*domain.TimeLog{older, newer, web, closed} {
			require.NoError(t, repo.Create(ctx, l))
		}

		got, err := repo.FindRunning(ctx, scope, domain.SourceDesktop, domain.LogTracked)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)

		running, err := repo.ListRunning(ctx, scope)
		require.NoError(t, err)
		ids := make([]string, 0, len(running))
		for _, l := range running {
			ids = append(ids, l.ID)
		}
		assert.Equal(t, []string{web.ID, newer.ID, older.ID}, ids)
	})
}

func TestTimeLogRepo_ListOverlapping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		long := testutil.NewTestTimeLog(scope, at("09:00"), at("10:00"))
		testutil.SlotsPerLog(t, b.Store, long, at("09:00"), at("09:10"), at("09:20"), at("09:30"), at("09:40"), at("09:50"))
		touching := testutil.NewTestTimeLog(scope, at("10:30"), at("11:00"))
		edited := testutil.NewTestTimeLog(scope, at("09:50"), at("10:10"))
		far := testutil.NewTestTimeLog(scope, at("12:00"), at("13:00"))
		for _, l := range []*domain.TimeLog{touching, edited, far} {
			require.NoError(t, b.Store.TimeLogs().Create(ctx, l))
		}

		logs, err := b.Store.TimeLogs().ListOverlapping(ctx, scope, at("09:35"), at("10:30"), edited.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, long.ID, logs[0].ID)
		assert.Equal(t, touching.ID, logs[1].ID, "endpoints are inclusive")

		var starts []string
		for _, s := range logs[0].Slots {
			starts = append(starts, s.StartedAt.Format("15:04"))
		}
		assert.Equal(t, []string{"09:30", "09:40", "09:50"}, starts)
		assert.Empty(t, logs[1].Slots)
	})
}

func TestTimeLogRepo_SumDurations(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.TimeLogs()
		require.NoError(t, repo.Create(ctx, testutil.NewTestTimeLog(scope, at("09:00"), at("09:30"))))
		require.NoError(t, repo.Create(ctx, testutil.NewTestTimeLog(scope, at("10:00"), at("10:15"))))
		require.NoError(t, repo.Create(ctx, testutil.NewTestTimeLog(scope, at("11:00"), time.Time{}, testutil.WithOpenEnd())))

		total, err := repo.SumDurations(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, int64(45*60), total)
	})
}

func TestTimeSlotRepo_RelationsAndLinks(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		logA := testutil.NewTestTimeLog(scope, at("09:00"), at("09:10"))
		logB := testutil.NewTestTimeLog(scope, at("09:00"), at("09:10"), testutil.WithSource(domain.SourceWebTimer))
		require.NoError(t, b.Store.TimeLogs().Create(ctx, logA))
		require.NoError(t, b.Store.TimeLogs().Create(ctx, logB))

		activity := &domain.Activity{
			ID: "act-1", TenantID: scope.TenantID, OrganizationID: scope.OrganizationID, EmployeeID: scope.EmployeeID,
			Title: "terminal", Type: domain.ActivityApp, Duration: 120, RecordedAt: at("09:01"), CreatedAt: at("09:01"),
		}
		require.NoError(t, b.Store.Activities().BulkSave(ctx, []*domain.Activity{activity}))
		shot := testutil.NewTestScreenshot(t, b.Store, scope, at("09:04"))

		slot := testutil.NewTestTimeSlot(scope, at("09:00"),
			testutil.WithCounters(600, 300, 150, 450), testutil.WithLogs(logA), testutil.WithScreenshots(shot))
		slot.Activities = []*domain.Activity{activity}
		slot.Minutes = []*domain.TimeSlotMinute{{ID: "min-1", Datetime: at("09:01"), Keyboard: 20, Mouse: 10, CreatedAt: at("09:01")}}
		require.NoError(t, b.Store.TimeSlots().Create(ctx, slot))

		got, err := b.Store.TimeSlots().GetByID(ctx, scope, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{logA.ID}, got.LogIDs())
		require.Len(t, got.Activities, 1)
		assert.Equal(t, "terminal", got.Activities[0].Title)
		require.Len(t, got.Screenshots, 1)
		assert.Equal(t, shot.ID, got.Screenshots[0].ID)
		require.Len(t, got.Minutes, 1)
		assert.InDelta(t, 50.0, got.KeyboardPercentage, 0.001)
		assert.InDelta(t, 25.0, got.MousePercentage, 0.001)
		assert.InDelta(t, 75.0, got.OverallPercentage, 0.001)

		activities, err := b.Store.Activities().ListBySlot(ctx, slot.ID)
		require.NoError(t, err)
		assert.Len(t, activities, 1)
		shots, err := b.Store.Screenshots().ListBySlot(ctx, slot.ID)
		require.NoError(t, err)
		assert.Len(t, shots, 1)

		got.TimeLogs = []*domain.TimeLog{logB}
		got.Duration = 420
		require.NoError(t, b.Store.TimeSlots().Save(ctx, got))
		saved, err := b.Store.TimeSlots().GetByID(ctx, scope, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{logB.ID}, saved.LogIDs())
		assert.Equal(t, 420, saved.Duration)
		assert.Len(t, saved.Activities, 1, "children survive a save")

		byA, err := b.Store.TimeSlots().ListByLog(ctx, scope, logA.ID)
		require.NoError(t, err)
		assert.Empty(t, byA)
		byB, err := b.Store.TimeSlots().ListByLog(ctx, scope, logB.ID)
		require.NoError(t, err)
		assert.Len(t, byB, 1)
	})
}

func TestTimeSlotRepo_FindByStartAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.TimeSlots()

		_, err := repo.FindByStart(ctx, scope, at("09:00"))
		assert.ErrorIs(t, err, repository.ErrNotFound)

		newer := testutil.NewTestTimeSlot(scope, at("09:00"), testutil.WithSlotCreatedAt(at("09:08")))
		older := testutil.NewTestTimeSlot(scope, at("09:00"), testutil.WithSlotCreatedAt(at("09:02")))
		next := testutil.NewTestTimeSlot(scope, at("09:10"))
		for _, s := range []*domain.TimeSlot{newer, older, next} {
			require.NoError(t, repo.Create(ctx, s))
		}

		got, err := repo.FindByStart(ctx, scope, at("09:00"))
		require.NoError(t, err)
		assert.Equal(t, older.ID, got.ID, "oldest duplicate wins")

		inRange, err := repo.ListInRange(ctx, scope, at("09:00"), at("09:10"))
		require.NoError(t, err)
		assert.Len(t, inRange, 2, "end is exclusive")

		require.NoError(t, repo.Delete(ctx, scope, []string{older.ID}, at("13:00"), false))
		require.NoError(t, repo.Delete(ctx, scope, []string{next.ID}, at("13:00"), true))
		require.NoError(t, repo.Delete(ctx, scope, nil, at("13:00"), true))

		left, err := repo.ListInRange(ctx, scope, at("09:00"), at("10:00"))
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, newer.ID, left[0].ID)
	})
}

func TestTimesheetRepo_FirstOrCreate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		repo := b.Store.Timesheets()
		sheet := func(id string) *domain.Timesheet {
			return &domain.Timesheet{
				ID: id, TenantID: scope.TenantID, OrganizationID: scope.OrganizationID, EmployeeID: scope.EmployeeID,
				StartedAt: testutil.At("2024-03-04T00:00:00"), StoppedAt: testutil.At("2024-03-10T23:59:59"),
				CreatedAt: at("09:00"), UpdatedAt: at("09:00"),
			}
		}

		first, err := repo.FirstOrCreate(ctx, sheet("sheet-1"))
		require.NoError(t, err)
		second, err := repo.FirstOrCreate(ctx, sheet("sheet-2"))
		require.NoError(t, err)
		assert.Equal(t, "sheet-1", first.ID)
		assert.Equal(t, "sheet-1", second.ID)

		first.Duration, first.Keyboard = 3600, 40
		require.NoError(t, repo.Update(ctx, first))
		got, err := repo.GetByWeek(ctx, scope, testutil.At("2024-03-04T00:00:00"))
		require.NoError(t, err)
		assert.Equal(t, 3600, got.Duration)
		assert.Equal(t, 40, got.Keyboard)

		_, err = repo.GetByID(ctx, "other-tenant", "sheet-1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestEmployeeRepo_UpdateAndList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		emp, err := b.Store.Employees().GetByID(ctx, scope)
		require.NoError(t, err)
		assert.True(t, emp.IsTrackingEnabled)

		emp.IsTrackingTime = true
		emp.TotalWorkSeconds = 7200
		require.NoError(t, b.Store.Employees().Update(ctx, emp))

		list, err := b.Store.Employees().List(ctx, scope.TenantID, scope.OrganizationID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].IsTrackingTime)
		assert.Equal(t, int64(7200), list[0].TotalWorkSeconds)

		org, err := b.Store.Organizations().GetByID(ctx, scope.TenantID, scope.OrganizationID)
		require.NoError(t, err)
		assert.False(t, org.FutureDateAllowed)
	})
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b testutil.Backend, scope domain.Scope) {
		ctx := context.Background()
		log := testutil.NewTestTimeLog(scope, at("09:00"), at("10:00"))
		boom := errors.New("boom")

		err := b.UoW.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
			if err := store.TimeLogs().Create(ctx, log); err != nil {
				return err
			}
			if _, err := store.TimeLogs().GetByID(ctx, scope, log.ID); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = b.Store.TimeLogs().GetByID(ctx, scope, log.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
