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

func TestTimer_StartStopWebTimer(t *testing.T) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			f := newFixture(t, b)
			ctx := context.Background()
			f.clock.Set(testutil.At("2024-03-04T09:00:00"))

			started, err := f.eng.StartTimer(ctx, f.actor, TimerInput{Description: "deep work"})
			require.NoError(t, err)
			assert.True(t, started.IsRunning)
			assert.Nil(t, started.StoppedAt)
			assert.Equal(t, domain.SourceWebTimer, started.Source)
			assert.Equal(t, domain.LogTracked, started.LogType)

			emp, err := f.eng.Get(ctx, f.scope)
			require.NoError(t, err)
			assert.True(t, emp.IsTrackingTime)

			f.clock.Set(testutil.At("2024-03-04T09:30:00"))
			stopped, err := f.eng.StopTimer(ctx, f.actor, TimerInput{})
			require.NoError(t, err)
			assert.Equal(t, started.ID, stopped.ID)
			assert.False(t, stopped.IsRunning)
			assert.Equal(t, testutil.At("2024-03-04T09:30:00"), *stopped.StoppedAt)

			emp, err = f.eng.Get(ctx, f.scope)
			require.NoError(t, err)
			assert.False(t, emp.IsTrackingTime)
			assert.Equal(t, int64(1800), emp.TotalWorkSeconds)
			assert.InDelta(t, 0.5, emp.TotalWorkHours(), 0.001)
		})
	}
}

func TestTimer_StartClosesPreviousLog(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	f.clock.Set(testutil.At("2024-03-04T09:00:00"))
	first, err := f.eng.StartTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)

	f.clock.Set(testutil.At("2024-03-04T09:40:00"))
	second, err := f.eng.StartTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)

	got, err := f.store.TimeLogs().GetByID(ctx, f.scope, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRunning)
	assert.Equal(t, testutil.At("2024-03-04T09:40:00"), *got.StoppedAt)

	running, err := f.store.TimeLogs().ListRunning(ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, second.ID, running[0].ID)
}

func TestTimer_DesktopStopsAtLastSlot(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	f.clock.Set(testutil.At("2024-03-04T09:00:00"))
	log, err := f.eng.StartTimer(ctx, f.actor, TimerInput{Source: domain.SourceDesktop})
	require.NoError(t, err)

	f.clock.Set(testutil.At("2024-03-04T09:02:00"))
	_, err = f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{StartedAt: f.clock.Now(), Duration: 420})
	require.NoError(t, err)

	f.clock.Set(testutil.At("2024-03-04T09:45:00"))
	stopped, err := f.eng.StopTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)
	assert.Equal(t, log.ID, stopped.ID)
	assert.Equal(t, testutil.At("2024-03-04T09:07:00"), *stopped.StoppedAt)
}

func TestTimer_DesktopWithoutSlotsGetsGrace(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	f.clock.Set(testutil.At("2024-03-04T09:00:00"))
	_, err := f.eng.StartTimer(ctx, f.actor, TimerInput{Source: domain.SourceDesktop})
	require.NoError(t, err)

	f.clock.Set(testutil.At("2024-03-04T09:30:00"))
	stopped, err := f.eng.StopTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)
	assert.Equal(t, testutil.At("2024-03-04T09:00:10"), *stopped.StoppedAt)
}

func TestTimer_ZeroDurationLogIsRemoved(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	started, err := f.eng.StartTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)

	_, err = f.eng.StopTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)

	_, err = f.store.TimeLogs().GetByID(ctx, f.scope, started.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTimer_ExplicitStopTime(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	f.clock.Set(testutil.At("2024-03-04T09:00:00"))
	_, err := f.eng.StartTimer(ctx, f.actor, TimerInput{})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	stopAt := testutil.At("2024-03-04T09:20:00")
	stopped, err := f.eng.StopTimer(ctx, f.actor, TimerInput{StoppedAt: &stopAt})
	require.NoError(t, err)
	assert.Equal(t, stopAt, *stopped.StoppedAt)
}

func TestTimer_Errors(t *testing.T) {
	b := sqliteBackend(t)
	f := newFixture(t, b)
	ctx := context.Background()

	_, err := f.eng.StopTimer(ctx, f.actor, TimerInput{})
	assert.ErrorIs(t, err, domain.ErrNoRunningLog)

	_, err = f.eng.StartTimer(ctx, f.actor, TimerInput{Source: "PHONE"})
	assert.True(t, domain.IsValidation(err))

	_, err = f.eng.StartTimer(ctx, f.actor, TimerInput{LogType: "NAP"})
	assert.True(t, domain.IsValidation(err))

	disabled := testutil.NewTestScope()
	disabled.TenantID, disabled.OrganizationID = f.scope.TenantID, f.scope.OrganizationID
	testutil.SeedEmployee(t, b.Store, disabled, false, testutil.WithTrackingDisabled())
	_, err = f.eng.StartTimer(ctx, testutil.NewTestActor(disabled), TimerInput{})
	assert.ErrorIs(t, err, domain.ErrTrackingDisabled)
}
