package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/alexanderramin/timeledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday, so every fixture below lands in one ISO week.
var testNow = testutil.At("2024-03-04T12:00:00")

type fixture struct {
	eng   *engine
	store repository.Store
	clock *testutil.FixedClock
	scope domain.Scope
	actor domain.Actor
}

func newFixture(t *testing.T, b testutil.Backend, opts ...Option) *fixture {
	t.Helper()
	clock := testutil.NewFixedClock(testNow)
	scope := testutil.NewTestScope()
	testutil.SeedEmployee(t, b.Store, scope, false)
	opts = append([]Option{WithClock(clock)}, opts...)
	return &fixture{
		eng:   NewEngine(b.Store, b.UoW, opts...).(*engine),
		store: b.Store,
		clock: clock,
		scope: scope,
		actor: testutil.NewTestActor(scope, domain.PermAllowManualTime, domain.PermAllowDeleteTime),
	}
}

func sqliteBackend(t *testing.T) testutil.Backend {
	t.Helper()
	return testutil.Backends(t)[0]
}

func (f *fixture) logs(t *testing.T) []*domain.TimeLog {
	t.Helper()
	logs, err := f.store.TimeLogs().ListInRange(context.Background(), f.scope,
		testNow.Add(-48*time.Hour), testNow.Add(48*time.Hour))
	require.NoError(t, err)
	return logs
}

func (f *fixture) slots(t *testing.T) []*domain.TimeSlot {
	t.Helper()
	slots, err := f.store.TimeSlots().ListInRange(context.Background(), f.scope,
		testNow.Add(-48*time.Hour), testNow.Add(48*time.Hour))
	require.NoError(t, err)
	return slots
}

func slotStarts(slots []*domain.TimeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartedAt.Format("15:04"))
	}
	return out
}

func trackedSeconds(logs []*domain.TimeLog) int {
	total := 0
	for _, l := range logs {
		total += l.Duration(testNow)
	}
	return total
}

func assertNoOverlap(t *testing.T, logs []*domain.TimeLog) {
	t.Helper()
	for i, a := range logs {
		for _, b := range logs[i+1:] {
			overlap := a.StartedAt.Before(b.End(testNow)) && b.StartedAt.Before(a.End(testNow))
			assert.False(t, overlap, "logs %s [%s,%s] and %s [%s,%s] overlap",
				a.ID, a.StartedAt.Format("15:04"), a.End(testNow).Format("15:04"),
				b.ID, b.StartedAt.Format("15:04"), b.End(testNow).Format("15:04"))
		}
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, ev UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestObserver_ReportsUseCaseOutcome(t *testing.T) {
	rec := &recordingObserver{}
	f := newFixture(t, sqliteBackend(t), WithObserver(rec))
	ctx := context.Background()

	_, err := f.eng.AddManualTime(ctx, f.actor, ManualTimeInput{
		StartedAt: testutil.At("2024-03-04T09:00:00"),
		StoppedAt: testutil.At("2024-03-04T09:30:00"),
	})
	require.NoError(t, err)
	_, err = f.eng.AddManualTime(ctx, f.actor, ManualTimeInput{
		StartedAt: testutil.At("2024-03-04T10:00:00"),
		StoppedAt: testutil.At("2024-03-04T09:00:00"),
	})
	require.Error(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "add-manual-time", rec.events[0].Name)
	assert.True(t, rec.events[0].Success)
	assert.NotEmpty(t, rec.events[0].Fields["log_id"])
	assert.False(t, rec.events[1].Success)
	assert.ErrorIs(t, rec.events[1].Err, domain.ErrInvalidRange)
}

func TestLogUseCaseObserver_WritesRecord(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(&buf)
	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name: "merge-slots", Duration: 3 * time.Millisecond, Success: false,
		Err: errors.New("boom"), Fields: map[string]any{"slots": 2},
	})
	out := buf.String()
	assert.Contains(t, out, "use_case=merge-slots")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "slots=2")

	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
	assert.IsType(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}

func TestEmployeeLocks_ReleaseEntries(t *testing.T) {
	locks := newEmployeeLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("emp-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
	assert.Empty(t, locks.locks, "idle keys should be dropped")
}

// failAfterUoW lets the first okCalls units of work through and fails the rest.
type failAfterUoW struct {
	repository.UnitOfWork
	okCalls int
	calls   int
}

func (u *failAfterUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	u.calls++
	if u.calls > u.okCalls {
		return errors.New("aggregate store unavailable")
	}
	return u.UnitOfWork.WithinTx(ctx, fn)
}

func TestCascadeFailure_DoesNotFailMutation(t *testing.T) {
	b := sqliteBackend(t)
	var logs bytes.Buffer
	b.UoW = &failAfterUoW{UnitOfWork: b.UoW, okCalls: 1}
	f := newFixture(t, b, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()

	log := testutil.NewTestTimeLog(f.scope, testutil.At("2024-03-04T10:00:00"), testutil.At("2024-03-04T10:10:00"))
	require.NoError(t, f.store.TimeLogs().Create(ctx, log))
	for i := 0; i < 2; i++ {
		s := testutil.NewTestTimeSlot(f.scope, testutil.At("2024-03-04T10:00:00"),
			testutil.WithCounters(200, 10, 10, 10), testutil.WithLogs(log))
		require.NoError(t, f.store.TimeSlots().Create(ctx, s))
	}

	merged, err := f.eng.MergeSlots(ctx, f.actor, "", "", testutil.At("2024-03-04T10:00:00"), testutil.At("2024-03-04T10:10:00"))
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 400, merged[0].Duration)
	assert.Len(t, f.slots(t), 1, "the merge itself must stay committed")
	assert.Contains(t, logs.String(), "employee total update failed")
}
