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

func TestIngestTimeSlot_AlignsAndReusesBucket(t *testing.T) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			f := newFixture(t, b)
			ctx := context.Background()

			f.clock.Set(testutil.At("2024-03-04T10:00:00"))
			running, err := f.eng.StartTimer(ctx, f.actor, TimerInput{Source: domain.SourceDesktop})
			require.NoError(t, err)

			f.clock.Set(testutil.At("2024-03-04T10:03:30"))
			first, err := f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{
				StartedAt: testutil.At("2024-03-04T10:03:00"),
				Duration:  180, Keyboard: 40, Mouse: 60, Overall: 70,
			})
			require.NoError(t, err)
			assert.Equal(t, testutil.At("2024-03-04T10:00:00"), first.StartedAt)
			assert.Equal(t, 180, first.Duration)
			assert.Equal(t, []string{running.ID}, first.LogIDs())

			f.clock.Set(testutil.At("2024-03-04T10:07:30"))
			second, err := f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{
				StartedAt: testutil.At("2024-03-04T10:07:00"),
				Duration:  120, Keyboard: 10,
			})
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, 180, second.Duration, "an existing bucket keeps its counters")
			assert.Len(t, f.slots(t), 1)

			log, err := f.store.TimeLogs().GetByID(ctx, f.scope, running.ID)
			require.NoError(t, err)
			require.NotNil(t, log.StoppedAt)
			assert.Equal(t, testutil.At("2024-03-04T10:07:30"), *log.StoppedAt, "open log is checkpointed to now")
			assert.True(t, log.IsRunning)
		})
	}
}

func TestIngestTimeSlot_WithoutRunningLog(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))

	slot, err := f.eng.IngestTimeSlot(context.Background(), f.actor, SlotInput{
		StartedAt: testutil.At("2024-03-04T11:44:59"), Duration: 700, Keyboard: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.At("2024-03-04T11:40:00"), slot.StartedAt)
	assert.Equal(t, 600, slot.Duration, "counters clamp to the bucket size")
	assert.Empty(t, slot.TimeLogs)
}

func TestIngestTimeSlot_ExplicitLogsAndActivities(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	offline := testutil.NewTestTimeLog(f.scope, testutil.At("2024-03-04T08:00:00"), testutil.At("2024-03-04T09:00:00"))
	require.NoError(t, f.store.TimeLogs().Create(ctx, offline))

	slot, err := f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{
		StartedAt:  testutil.At("2024-03-04T08:20:00"),
		Duration:   600,
		Keyboard:   300,
		TimeLogIDs: []string{offline.ID},
		ProjectID:  "proj-1",
		Activities: []ActivityInput{
			{Title: "editor", Type: domain.ActivityApp, Duration: 400},
			{Title: "https://example.com", Type: domain.ActivityURL, Duration: 200},
		},
		Minutes: []MinuteInput{{Datetime: testutil.At("2024-03-04T08:21:00"), Keyboard: 30, Mouse: 12}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{offline.ID}, slot.LogIDs())
	require.Len(t, slot.Activities, 2)
	for _, a := range slot.Activities {
		assert.Equal(t, slot.ID, a.TimeSlotID)
		assert.Equal(t, "proj-1", a.ProjectID)
	}
	require.Len(t, slot.Minutes, 1)
	assert.Equal(t, 30, slot.Minutes[0].Keyboard)
	assert.InDelta(t, 50.0, slot.KeyboardPercentage, 0.001)

	reloaded, err := f.store.TimeLogs().GetByID(ctx, f.scope, offline.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.At("2024-03-04T09:00:00"), *reloaded.StoppedAt, "closed logs are not checkpointed")
}

func TestIngestTimeSlot_Errors(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()

	_, err := f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{
		StartedAt: testutil.At("2024-03-04T08:20:00"), TimeLogIDs: []string{"missing"},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{})
	assert.True(t, domain.IsValidation(err))

	_, err = f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{StartedAt: testNow, Keyboard: -1})
	assert.True(t, domain.IsValidation(err))

	_, err = f.eng.IngestTimeSlot(ctx, f.actor, SlotInput{EmployeeID: "other", StartedAt: testNow})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Empty(t, f.slots(t))
}

func TestBulkIngestTimeSlots_CollapsesBatchDuplicates(t *testing.T) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			f := newFixture(t, b)
			ctx := context.Background()
			in := []SlotInput{
				{StartedAt: testutil.At("2024-03-04T14:21:00"), Duration: 100, Keyboard: 50},
				{StartedAt: testutil.At("2024-03-04T14:23:00"), Duration: 100, Keyboard: 70},
				{StartedAt: testutil.At("2024-03-04T14:27:00"), Duration: 100},
			}

			slots, err := f.eng.BulkIngestTimeSlots(ctx, f.actor, in)
			require.NoError(t, err)
			require.Len(t, slots, 1)
			assert.Equal(t, testutil.At("2024-03-04T14:20:00"), slots[0].StartedAt)
			assert.Equal(t, 300, slots[0].Duration)
			assert.Equal(t, 60, slots[0].Keyboard)

			stored := f.slots(t)
			require.Len(t, stored, 1)

			// Re-submitting the batch skips the bucket that now exists.
			again, err := f.eng.BulkIngestTimeSlots(ctx, f.actor, in)
			require.NoError(t, err)
			require.Len(t, again, 1)
			assert.Equal(t, stored[0].ID, again[0].ID)
			assert.Equal(t, 300, again[0].Duration)
			assert.Len(t, f.slots(t), 1)
		})
	}
}

func TestBulkIngestTimeSlots_SpreadsAcrossBuckets(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	log := testutil.NewTestTimeLog(f.scope, testutil.At("2024-03-04T13:00:00"), testutil.At("2024-03-04T14:00:00"))
	require.NoError(t, f.store.TimeLogs().Create(ctx, log))

	var in []SlotInput
	for m := 0; m < 60; m += 10 {
		in = append(in, SlotInput{
			StartedAt:  testutil.At("2024-03-04T13:00:00").Add(time.Duration(m) * time.Minute),
			Duration:   600,
			TimeLogIDs: []string{log.ID},
		})
	}
	slots, err := f.eng.BulkIngestTimeSlots(ctx, f.actor, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"13:00", "13:10", "13:20", "13:30", "13:40", "13:50"}, slotStarts(slots))
	for _, s := range slots {
		assert.Equal(t, []string{log.ID}, s.LogIDs())
	}
}

func TestBulkIngestTimeSlots_UnknownLog(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	_, err := f.eng.BulkIngestTimeSlots(context.Background(), f.actor, []SlotInput{
		{StartedAt: testutil.At("2024-03-04T14:21:00"), TimeLogIDs: []string{"nope"}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.slots(t))
}
