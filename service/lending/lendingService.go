package lending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"booklending/model"
	lrepo "booklending/repository/lending"

	"github.com/jackc/pgx/v5"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound  ErrCode = "BOOK_NOT_FOUND"
	ErrOutOfStock    ErrCode = "OUT_OF_STOCK"
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrWrongStatus   ErrCode = "WRONG_STATUS"
	ErrInvalidDates  ErrCode = "INVALID_DATE_RANGE"
	ErrLendingActive ErrCode = "LENDING_ACTIVE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// HistoryRow = repository shape
type HistoryRow = lrepo.HistoryRow

type Repo interface {
	CheckBookExists(ctx context.Context, bookID int64) (bool, error)

	Create(ctx context.Context, userID, bookID int64, requestedAt time.Time) (int64, error)
	Get(ctx context.Context, id int64) (*model.Lending, error)
	SetBorrowed(ctx context.Context, id int64, due time.Time) error
	SetDueDate(ctx context.Context, id int64, due time.Time, status model.LendingStatus, fee float64, notified bool) error
	SetOverdue(ctx context.Context, id int64, fee float64, notified bool) error
	SetFee(ctx context.Context, id int64, fee float64) error
	SetNotified(ctx context.Context, id int64, notified bool) error

	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListAll(ctx context.Context) ([]HistoryRow, error)
	ListBorrowedDueBefore(ctx context.Context, cutoff time.Time) ([]model.Lending, error)
	ListOverdue(ctx context.Context) ([]model.Lending, error)

	InTx(ctx context.Context, fn func(tx lrepo.TxRepo) error) error
}

// Notifier appends a message to a user's notification feed. Failures are
// logged and never abort the lending mutation that triggered them.
type Notifier interface {
	Add(ctx context.Context, userID int64, message string) error
}

type Service interface {
	// Request creates a new lending in REQUESTING state.
	Request(ctx context.Context, userID, bookID int64) (int64, error)

	// Approve moves REQUESTING to APPROVED and takes one copy off the shelf.
	Approve(ctx context.Context, lendingID int64) error

	// MarkBorrowed hands the book over: APPROVED to BORROWED, due date set.
	MarkBorrowed(ctx context.Context, lendingID int64) error

	// Return closes the loan (BORROWED/OVERDUE to RETURNED) and restocks.
	Return(ctx context.Context, lendingID int64) error

	// EditDueDate is the administrative due-date correction.
	EditDueDate(ctx context.Context, lendingID int64, due time.Time) error

	// Delete removes a lending record; active loans are protected.
	Delete(ctx context.Context, lendingID int64) error

	MyHistory(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListAll(ctx context.Context) ([]HistoryRow, error)
}

// ----- Service implementation -----

type service struct {
	r   Repo
	n   Notifier
	log *slog.Logger
	now func() time.Time
}

func New(r Repo, n Notifier, log *slog.Logger) Service {
	return NewWithClock(r, n, log, time.Now)
}

// NewWithClock injects the clock, for tests.
func NewWithClock(r Repo, n Notifier, log *slog.Logger, now func() time.Time) Service {
	return &service{r: r, n: n, log: log, now: now}
}

func (s *service) Request(ctx context.Context, userID, bookID int64) (int64, error) {
	exists, err := s.r.CheckBookExists(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, makeErr(ErrBookNotFound)
	}
	return s.r.Create(ctx, userID, bookID, s.now())
}

func (s *service) Approve(ctx context.Context, lendingID int64) error {
	var userID int64
	err := s.r.InTx(ctx, func(tx lrepo.TxRepo) error {
		l, err := tx.GetLendingForUpdate(ctx, lendingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		if l.Status != model.LendingRequesting {
			return makeErr(ErrWrongStatus)
		}

		// Re-validate the stock under the row lock; a stale read must never
		// drive the decrement.
		qty, err := tx.LockBookQuantity(ctx, l.BookID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return makeErr(ErrBookNotFound)
			}
			return err
		}
		if qty <= 0 {
			return makeErr(ErrOutOfStock)
		}
		if err := tx.AdjustBookQuantity(ctx, l.BookID, -1); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, lendingID, model.LendingApproved); err != nil {
			return err
		}
		userID = l.UserID
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, userID, fmt.Sprintf(
		"Your lending request #%d has been approved. Please come collect the book.", lendingID))
	return nil
}

func (s *service) MarkBorrowed(ctx context.Context, lendingID int64) error {
	l, err := s.r.Get(ctx, lendingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if l.Status != model.LendingApproved {
		return makeErr(ErrWrongStatus)
	}

	due := s.now().Add(LoanPeriod)
	if err := s.r.SetBorrowed(ctx, lendingID, due); err != nil {
		return err
	}

	s.notify(ctx, l.UserID, fmt.Sprintf(
		"Book borrowed successfully. Due back on %s.", due.Format("2006-01-02")))
	return nil
}

func (s *service) Return(ctx context.Context, lendingID int64) error {
	var userID int64
	err := s.r.InTx(ctx, func(tx lrepo.TxRepo) error {
		l, err := tx.GetLendingForUpdate(ctx, lendingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		if !l.Status.Active() {
			return makeErr(ErrWrongStatus)
		}
		if err := tx.AdjustBookQuantity(ctx, l.BookID, 1); err != nil {
			return err
		}
		// Fee stays as last computed, as payment history.
		if err := tx.MarkReturned(ctx, lendingID, s.now()); err != nil {
			return err
		}
		userID = l.UserID
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, userID, "Book returned successfully. Thank you!")
	return nil
}

func (s *service) EditDueDate(ctx context.Context, lendingID int64, due time.Time) error {
	l, err := s.r.Get(ctx, lendingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if l.Status != model.LendingBorrowed && l.Status != model.LendingOverdue {
		return makeErr(ErrWrongStatus)
	}

	now := s.now()
	if due.Before(l.RequestedAt) || due.Before(now) {
		return makeErr(ErrInvalidDates)
	}

	status := l.Status
	fee := l.OverdueFee
	notified := l.Notified
	if l.Status == model.LendingOverdue {
		// Due date moved into the future: the loan is current again.
		status = model.LendingBorrowed
		fee = 0
		notified = false
	}
	return s.r.SetDueDate(ctx, lendingID, due, status, fee, notified)
}

func (s *service) Delete(ctx context.Context, lendingID int64) error {
	return s.r.InTx(ctx, func(tx lrepo.TxRepo) error {
		l, err := tx.GetLendingForUpdate(ctx, lendingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return makeErr(ErrNotFound)
			}
			return err
		}
		if l.Status.Active() {
			return makeErr(ErrLendingActive)
		}
		// An approved copy was already taken off the shelf; put it back.
		if l.Status == model.LendingApproved {
			if err := tx.AdjustBookQuantity(ctx, l.BookID, 1); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, lendingID)
	})
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]HistoryRow, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]HistoryRow, error) {
	return s.r.ListAll(ctx)
}

func (s *service) notify(ctx context.Context, userID int64, msg string) {
	if err := s.n.Add(ctx, userID, msg); err != nil {
		s.log.Error("notification write failed", "user_id", userID, "err", err)
	}
}
