package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSlots_AveragesOverActiveRows(t *testing.T) {
	scope := testutil.NewTestScope()
	at := testutil.At("2024-03-04T10:00:00")
	idle := testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(300, 0, 300, 200))
	active := testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(300, 300, 300, 400))

	got := aggregateSlots([]*domain.TimeSlot{idle, active})

	assert.Equal(t, idle.ID, got.ID, "oldest row survives")
	assert.Equal(t, 600, got.Duration)
	assert.Equal(t, 300, got.Keyboard)
	assert.Equal(t, 600, got.Mouse)
	assert.Equal(t, 600, got.Overall, "clamped to the bucket size")
}

func TestAggregateSlots_ClampsAndRounds(t *testing.T) {
	scope := testutil.NewTestScope()
	at := testutil.At("2024-03-04T10:00:00")
	group := []*domain.TimeSlot{
		testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(600, 500, 1, 3)),
		testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(600, 401, 2, 4)),
	}

	got := aggregateSlots(group)

	assert.Equal(t, 600, got.Duration)
	assert.Equal(t, 451, got.Keyboard) // 901/2 rounds half up
	assert.Equal(t, 2, got.Mouse)      // 3/2
	assert.Equal(t, 4, got.Overall)    // 7/2
}

func TestAggregateSlots_NoKeyboardActivity(t *testing.T) {
	scope := testutil.NewTestScope()
	at := testutil.At("2024-03-04T10:00:00")
	got := aggregateSlots([]*domain.TimeSlot{
		testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(100, 0, 50, 50)),
		testutil.NewTestTimeSlot(scope, at, testutil.WithCounters(100, 0, 70, 70)),
	})
	assert.Equal(t, 200, got.Duration)
	assert.Zero(t, got.Keyboard)
	assert.Zero(t, got.Mouse)
	assert.Zero(t, got.Overall)
}

func TestAggregateSlots_UnionsLogsByID(t *testing.T) {
	scope := testutil.NewTestScope()
	at := testutil.At("2024-03-04T10:00:00")
	a := testutil.NewTestTimeLog(scope, at, at.Add(time.Hour))
	b := testutil.NewTestTimeLog(scope, at, at.Add(time.Hour))

	got := aggregateSlots([]*domain.TimeSlot{
		testutil.NewTestTimeSlot(scope, at, testutil.WithLogs(a)),
		testutil.NewTestTimeSlot(scope, at, testutil.WithLogs(a, b)),
	})

	assert.Equal(t, []string{a.ID, b.ID}, got.LogIDs())
}

func TestMergeSlots_FoldsDuplicateBucket(t *testing.T) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			f := newFixture(t, b)
			ctx := context.Background()
			bucketStart := testutil.At("2024-03-04T10:00:00")

			logA := testutil.NewTestTimeLog(f.scope, bucketStart, bucketStart.Add(10*time.Minute))
			logB := testutil.NewTestTimeLog(f.scope, bucketStart, bucketStart.Add(10*time.Minute),
				testutil.WithSource(domain.SourceWebTimer))
			require.NoError(t, f.store.TimeLogs().Create(ctx, logA))
			require.NoError(t, f.store.TimeLogs().Create(ctx, logB))

			shotA := testutil.NewTestScreenshot(t, f.store, f.scope, testutil.At("2024-03-04T10:03:00"))
			shotB := testutil.NewTestScreenshot(t, f.store, f.scope, testutil.At("2024-03-04T10:07:00"))
			older := testutil.NewTestTimeSlot(f.scope, bucketStart,
				testutil.WithCounters(300, 100, 50, 80), testutil.WithLogs(logA),
				testutil.WithScreenshots(shotA), testutil.WithSlotCreatedAt(testutil.At("2024-03-04T10:03:00")))
			newer := testutil.NewTestTimeSlot(f.scope, bucketStart,
				testutil.WithCounters(200, 0, 20, 30), testutil.WithLogs(logA, logB),
				testutil.WithScreenshots(shotB), testutil.WithSlotCreatedAt(testutil.At("2024-03-04T10:07:00")))
			require.NoError(t, f.store.TimeSlots().Create(ctx, newer))
			require.NoError(t, f.store.TimeSlots().Create(ctx, older))
			require.Len(t, f.slots(t), 2)

			merged, err := f.eng.MergeSlots(ctx, f.actor, "", "", bucketStart, bucketStart.Add(10*time.Minute))
			require.NoError(t, err)

			require.Len(t, merged, 1)
			stored := f.slots(t)
			require.Len(t, stored, 1)
			got := stored[0]
			assert.Equal(t, older.ID, got.ID)
			assert.Equal(t, 500, got.Duration)
			assert.Equal(t, 100, got.Keyboard)
			assert.Equal(t, 70, got.Mouse)
			assert.Equal(t, 110, got.Overall)
			assert.ElementsMatch(t, []string{logA.ID, logB.ID}, got.LogIDs())
			assert.Len(t, got.Screenshots, 2)
			for _, sc := range got.Screenshots {
				assert.Equal(t, got.ID, sc.TimeSlotID)
			}
		})
	}
}

func TestMergeSlots_Idempotent(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	start := testutil.At("2024-03-04T10:00:00")

	for _, at := range []string{"2024-03-04T10:00:00", "2024-03-04T10:00:00", "2024-03-04T10:10:00", "2024-03-04T10:20:00", "2024-03-04T10:20:00"} {
		s := testutil.NewTestTimeSlot(f.scope, testutil.At(at), testutil.WithCounters(250, 120, 90, 60))
		require.NoError(t, f.store.TimeSlots().Create(ctx, s))
	}

	first, err := f.eng.MergeSlots(ctx, f.actor, "", "", start, start.Add(25*time.Minute))
	require.NoError(t, err)
	require.Len(t, first, 3)
	before := f.slots(t)

	f.clock.Advance(time.Hour)
	second, err := f.eng.MergeSlots(ctx, f.actor, "", "", start, start.Add(25*time.Minute))
	require.NoError(t, err)
	after := f.slots(t)

	require.Len(t, second, len(first))
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Duration, after[i].Duration)
		assert.Equal(t, before[i].Keyboard, after[i].Keyboard)
		assert.True(t, before[i].UpdatedAt.Equal(after[i].UpdatedAt), "second pass must not write")
	}
	for _, s := range after {
		for _, v := range []int{s.Duration, s.Keyboard, s.Mouse, s.Overall} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 600)
		}
	}
}

func TestMergeSlots_LeavesSingletonsAndOtherEmployees(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	at := testutil.At("2024-03-04T10:00:00")

	other := testutil.NewTestScope()
	other.TenantID, other.OrganizationID = f.scope.TenantID, f.scope.OrganizationID
	testutil.SeedEmployee(t, f.store, other, false)

	mine := testutil.NewTestTimeSlot(f.scope, at, testutil.WithCounters(100, 0, 0, 0))
	theirs := testutil.NewTestTimeSlot(other, at, testutil.WithCounters(100, 0, 0, 0))
	require.NoError(t, f.store.TimeSlots().Create(ctx, mine))
	require.NoError(t, f.store.TimeSlots().Create(ctx, theirs))

	merged, err := f.eng.MergeSlots(ctx, f.actor, "", "", at, at)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, mine.ID, merged[0].ID)
	assert.Equal(t, 100, merged[0].Duration)
}

func TestMergeSlots_RejectsOtherEmployeeWithoutPermission(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	at := testutil.At("2024-03-04T10:00:00")

	_, err := f.eng.MergeSlots(context.Background(), f.actor, "someone-else", "", at, at)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
