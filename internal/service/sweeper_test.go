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

func TestStaleStop(t *testing.T) {
	scope := testutil.NewTestScope()
	start := testutil.At("2024-03-04T09:00:00")
	log := testutil.NewTestTimeLog(scope, start, start, testutil.WithOpenEnd())
	slot := func(hm string, d int) *domain.TimeSlot {
		return testutil.NewTestTimeSlot(scope, testutil.At("2024-03-04T"+hm+":00"), testutil.WithCounters(d, 0, 0, 0))
	}

	tests := []struct {
		name     string
		slots    []*domain.TimeSlot
		now      string
		wantStop string
		wantOK   bool
	}{
		{"fresh log without slots", nil, "09:05", "", false},
		{"quiet log without slots", nil, "09:30", "09:00:10", true},
		{"slots sum to the stop", []*domain.TimeSlot{slot("09:00", 600), slot("09:10", 600)}, "10:00", "09:20:00", true},
		{"duplicate buckets pull back to last slot", []*domain.TimeSlot{slot("09:00", 600), slot("09:10", 300), slot("09:10", 600)}, "11:00", "09:15:00", true},
		{"recent activity stays open", []*domain.TimeSlot{slot("09:00", 600), slot("09:10", 600)}, "09:25", "09:20:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, ok := staleStop(log, tt.slots, testutil.At("2024-03-04T"+tt.now+":00"))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantStop != "" {
				assert.Equal(t, testutil.At("2024-03-04T"+tt.wantStop), stop)
			}
		})
	}
}

func TestCloseStaleLogs(t *testing.T) {
	for _, b := range testutil.Backends(t) {
		t.Run(b.Name, func(t *testing.T) {
			f := newFixture(t, b)
			ctx := context.Background()
			f.clock.Set(testutil.At("2024-03-04T10:00:00"))

			withSlots := testutil.NewTestTimeLog(f.scope, testutil.At("2024-03-04T09:00:00"), time.Time{}, testutil.WithOpenEnd())
			testutil.SlotsPerLog(t, f.store, withSlots, testutil.At("2024-03-04T09:00:00"), testutil.At("2024-03-04T09:10:00"))

			colleague := testutil.NewTestScope()
			colleague.TenantID, colleague.OrganizationID = f.scope.TenantID, f.scope.OrganizationID
			testutil.SeedEmployee(t, f.store, colleague, false)
			fresh := testutil.NewTestTimeLog(colleague, testutil.At("2024-03-04T09:55:00"), time.Time{}, testutil.WithOpenEnd())
			require.NoError(t, f.store.TimeLogs().Create(ctx, fresh))

			closed, err := f.eng.CloseStaleLogs(ctx, f.scope.TenantID, f.scope.OrganizationID)
			require.NoError(t, err)
			assert.Equal(t, 1, closed)

			got, err := f.store.TimeLogs().GetByID(ctx, f.scope, withSlots.ID)
			require.NoError(t, err)
			assert.False(t, got.IsRunning)
			assert.Equal(t, testutil.At("2024-03-04T09:20:00"), *got.StoppedAt)

			stillRunning, err := f.store.TimeLogs().GetByID(ctx, colleague, fresh.ID)
			require.NoError(t, err)
			assert.True(t, stillRunning.IsOpen())

			again, err := f.eng.CloseStaleLogs(ctx, f.scope.TenantID, f.scope.OrganizationID)
			require.NoError(t, err)
			assert.Zero(t, again)
		})
	}
}
