package lending

import (
	"context"
	"errors"
	"testing"
	"time"

	"booklending/model"

	"github.com/stretchr/testify/require"
)

func newTestSweeper(f *fakeStore, n *fakeNotifier, at *time.Time) *Sweeper {
	return NewSweeperWithClock(f, n, testLogger(), func() time.Time { return *at })
}

func TestSweep_MarksOverdueAndComputesFee(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()

	// requested 2024-01-01, due 2024-01-08, swept 2024-01-10: two days late
	requested := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingBorrowed,
		RequestedAt: requested, DueDate: &due,
	})
	nt := &fakeNotifier{}
	sw := newTestSweeper(f, nt, &now)

	stats, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.NewlyOverdue)
	require.Equal(t, 1, stats.Notified)

	l := f.lendings[id]
	require.Equal(t, model.LendingOverdue, l.Status)
	require.Equal(t, 2.0, l.OverdueFee)
	require.True(t, l.Notified)
	require.Len(t, nt.msgs, 1)
}

func TestSweep_IdempotentWithNoElapsedTime(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	due := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingBorrowed,
		RequestedAt: due.Add(-7 * 24 * time.Hour), DueDate: &due,
	})
	nt := &fakeNotifier{}
	sw := newTestSweeper(f, nt, &now)

	_, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	_, err = sw.SweepOnce(ctx)
	require.NoError(t, err)

	// no double-charged fee, no second notification
	require.Equal(t, 2.0, f.lendings[id].OverdueFee)
	require.Len(t, nt.msgs, 1)
}

func TestSweep_FeeOverwrittenNotAccumulated(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	due := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingOverdue,
		RequestedAt: due.Add(-7 * 24 * time.Hour), DueDate: &due,
		OverdueFee: 1.0, Notified: true,
	})
	nt := &fakeNotifier{}
	sw := newTestSweeper(f, nt, &now)

	stats, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FeeUpdates)
	require.Equal(t, 2.0, f.lendings[id].OverdueFee)

	// a week later the fee is the day-9 value, not a running sum
	now = now.Add(7 * 24 * time.Hour)
	_, err = sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3.5*2+0.5*2*3, f.lendings[id].OverdueFee) // n=1 m=2
	require.Empty(t, nt.msgs)
}

func TestSweep_DueDateEditedForwardResetsToBorrowed(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now.Add(5 * 24 * time.Hour)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingOverdue,
		RequestedAt: now.Add(-10 * 24 * time.Hour), DueDate: &due,
		OverdueFee: 4.5, Notified: true,
	})
	sw := newTestSweeper(f, &fakeNotifier{}, &now)

	stats, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.BackToBorrowed)

	l := f.lendings[id]
	require.Equal(t, model.LendingBorrowed, l.Status)
	require.Zero(t, l.OverdueFee)
	require.False(t, l.Notified)
}

func TestSweep_NotificationFailureRetriedNextTick(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	due := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingBorrowed,
		RequestedAt: due.Add(-7 * 24 * time.Hour), DueDate: &due,
	})
	nt := &fakeNotifier{err: errors.New("sink down")}
	sw := newTestSweeper(f, nt, &now)

	_, err := sw.SweepOnce(ctx)
	require.NoError(t, err)

	// status flip survives the failed notification; flag stays unset
	l := f.lendings[id]
	require.Equal(t, model.LendingOverdue, l.Status)
	require.False(t, l.Notified)

	nt.err = nil
	_, err = sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.True(t, f.lendings[id].Notified)
	require.Len(t, nt.msgs, 1)
}

func TestSweep_LeavesCurrentLoansAlone(t *testing.T) {
	ctx := context.Background()
	f := newFakeStore()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now.Add(3 * 24 * time.Hour)
	id := f.addLending(model.Lending{
		UserID: 7, BookID: 1, Status: model.LendingBorrowed,
		RequestedAt: now.Add(-4 * 24 * time.Hour), DueDate: &due,
	})
	nt := &fakeNotifier{}
	sw := newTestSweeper(f, nt, &now)

	stats, err := sw.SweepOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.NewlyOverdue)
	require.Equal(t, model.LendingBorrowed, f.lendings[id].Status)
	require.Empty(t, nt.msgs)
}
