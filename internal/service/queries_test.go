package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries_ListInRange(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	ctx := context.Background()
	seedTracked(t, f, "2024-03-04T09:00:00", "2024-03-04T09:30:00")
	seedTracked(t, f, "2024-03-04T11:00:00", "2024-03-04T11:10:00")

	logs, err := f.eng.ListTimeLogs(ctx, f.actor, "", testutil.At("2024-03-04T08:00:00"), testutil.At("2024-03-04T10:00:00"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	slots, err := f.eng.ListTimeSlots(ctx, f.actor, "", testutil.At("2024-03-04T09:05:00"), testutil.At("2024-03-04T11:05:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:10", "09:20", "11:00"}, slotStarts(slots))

	_, err = f.eng.ListTimeLogs(ctx, f.actor, "", testNow, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.eng.ListTimeSlots(ctx, f.actor, "other", testNow.Add(-1), testNow)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestQueries_GetTimesheetMissing(t *testing.T) {
	f := newFixture(t, sqliteBackend(t))
	_, err := f.eng.GetTimesheet(context.Background(), f.actor, "", testNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_CreatesOrganizationOnce(t *testing.T) {
	b := sqliteBackend(t)
	eng := NewEngine(b.Store, b.UoW, WithClock(testutil.NewFixedClock(testNow)))
	ctx := context.Background()

	org := &domain.Organization{TenantID: "tenant-1", Name: "Acme", FutureDateAllowed: true}
	first := &domain.Employee{Name: "Ada", IsTrackingEnabled: true}
	require.NoError(t, eng.Register(ctx, org, first))
	require.NotEmpty(t, org.ID)

	second := &domain.Employee{Name: "Grace"}
	require.NoError(t, eng.Register(ctx, &domain.Organization{ID: org.ID, TenantID: "tenant-1"}, second))

	emps, err := eng.List(ctx, "tenant-1", org.ID)
	require.NoError(t, err)
	assert.Len(t, emps, 2)

	got, err := eng.Get(ctx, first.Scope())
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, got.IsTrackingEnabled)

	err = eng.Register(ctx, org, &domain.Employee{})
	assert.True(t, domain.IsValidation(err))
}
