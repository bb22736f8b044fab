package lending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"booklending/model"
)

// SweepStats summarizes one sweeper pass, for logging.
type SweepStats struct {
	NewlyOverdue   int
	BackToBorrowed int
	FeeUpdates     int
	Notified       int
	Errors         int
}

// Sweeper periodically reclassifies overdue loans and keeps their fees
// current. A record that fails to update is picked up again on the next tick.
type Sweeper struct {
	r   Repo
	n   Notifier
	log *slog.Logger
	now func() time.Time
}

func NewSweeper(r Repo, n Notifier, log *slog.Logger) *Sweeper {
	return NewSweeperWithClock(r, n, log, time.Now)
}

func NewSweeperWithClock(r Repo, n Notifier, log *slog.Logger, now func() time.Time) *Sweeper {
	return &Sweeper{r: r, n: n, log: log, now: now}
}

// Run fires SweepOnce on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("overdue sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("overdue sweeper stopped")
			return
		case <-ticker.C:
			stats, err := s.SweepOnce(ctx)
			if err != nil {
				s.log.Error("sweep failed", "err", err)
				continue
			}
			if stats.NewlyOverdue > 0 || stats.BackToBorrowed > 0 || stats.FeeUpdates > 0 || stats.Errors > 0 {
				s.log.Info("sweep done",
					"newly_overdue", stats.NewlyOverdue,
					"back_to_borrowed", stats.BackToBorrowed,
					"fee_updates", stats.FeeUpdates,
					"notified", stats.Notified,
					"errors", stats.Errors,
				)
			}
		}
	}
}

// SweepOnce is one full pass: flip past-due BORROWED loans to OVERDUE, move
// corrected OVERDUE loans back to BORROWED, and refresh fees in place. Fees
// are overwritten (never accumulated) and the overdue notification is sent at
// most once per overdue episode, guarded by the notified flag.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepStats, error) {
	now := s.now()
	var st SweepStats

	pastDue, err := s.r.ListBorrowedDueBefore(ctx, now)
	if err != nil {
		return st, err
	}
	for _, l := range pastDue {
		fee := ComputeFee(l.DueDate, now)
		notified := l.Notified
		if !notified {
			if err := s.n.Add(ctx, l.UserID, overdueMessage(l.ID, fee)); err != nil {
				// Missed notification is a logged degradation, not a rollback.
				s.log.Error("overdue notification failed", "lending_id", l.ID, "err", err)
			} else {
				notified = true
				st.Notified++
			}
		}
		if err := s.r.SetOverdue(ctx, l.ID, fee, notified); err != nil {
			st.Errors++
			s.log.Error("mark overdue failed", "lending_id", l.ID, "err", err)
			continue
		}
		st.NewlyOverdue++
	}

	overdue, err := s.r.ListOverdue(ctx)
	if err != nil {
		return st, err
	}
	for _, l := range overdue {
		if l.DueDate != nil && l.DueDate.After(now) {
			// Due date was edited into the future; the loan is current again.
			if err := s.r.SetDueDate(ctx, l.ID, *l.DueDate, model.LendingBorrowed, 0, false); err != nil {
				st.Errors++
				s.log.Error("reset to borrowed failed", "lending_id", l.ID, "err", err)
				continue
			}
			st.BackToBorrowed++
			continue
		}

		fee := ComputeFee(l.DueDate, now)
		if !l.Notified {
			// An earlier notification write failed; retry it now.
			if err := s.n.Add(ctx, l.UserID, overdueMessage(l.ID, fee)); err != nil {
				s.log.Error("overdue notification failed", "lending_id", l.ID, "err", err)
			} else if err := s.r.SetNotified(ctx, l.ID, true); err != nil {
				st.Errors++
				s.log.Error("set notified failed", "lending_id", l.ID, "err", err)
			} else {
				st.Notified++
			}
		}
		if fee != l.OverdueFee {
			if err := s.r.SetFee(ctx, l.ID, fee); err != nil {
				st.Errors++
				s.log.Error("fee update failed", "lending_id", l.ID, "err", err)
				continue
			}
			st.FeeUpdates++
		}
	}

	return st, nil
}

func overdueMessage(lendingID int64, fee float64) string {
	return fmt.Sprintf("Your lending #%d is overdue. Current fee: %.2f. Please return the book and pay the fee.", lendingID, fee)
}
