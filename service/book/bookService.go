package booksvc

import (
	"context"
	"errors"
	"time"

	"booklending/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrBadPayload ErrCode = "BAD_PAYLOAD"
	ErrBookInUse  ErrCode = "BOOK_IN_USE"
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

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

// LendingCounter reports how many active loans still reference a book.
type LendingCounter interface {
	CountActiveForBook(ctx context.Context, bookID int64) (int64, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)

	// Delete refuses to remove a book while an active lending references it.
	Delete(ctx context.Context, id int64) error
}

type service struct {
	r Repo
	l LendingCounter
}

func New(r Repo, l LendingCounter) Service { return &service{r: r, l: l} }

func validate(b *model.Book) error {
	if b.Title == "" || b.ISBN == "" || b.Quantity < 0 {
		return makeErr(ErrBadPayload)
	}
	if b.Year != 0 && (b.Year < 1000 || b.Year > time.Now().Year()+1) {
		return makeErr(ErrBadPayload)
	}
	return nil
}

func (s *service) Create(ctx context.Context, b *model.Book) (int64, error) {
	if err := validate(b); err != nil {
		return 0, err
	}
	return s.r.Create(ctx, b)
}

func (s *service) Update(ctx context.Context, b *model.Book) error {
	if err := validate(b); err != nil {
		return err
	}
	if err := s.r.Update(ctx, b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	n, err := s.l.CountActiveForBook(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return makeErr(ErrBookInUse)
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		// Returned lendings still reference the book row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return makeErr(ErrBookInUse)
		}
		return err
	}
	return nil
}
