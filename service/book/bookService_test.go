// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"errors"
	"testing"

	"booklending/model"
	booksvc "booklending/service/book"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) (int64, error)
	updateFn func(ctx context.Context, b *model.Book) error
	listFn   func(ctx context.Context) ([]model.Book, error)
	detailFn func(ctx context.Context, id int64) (*model.Book, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) (int64, error) {
	return m.createFn(ctx, b)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) error { return m.updateFn(ctx, b) }
func (m *repoMock) List(ctx context.Context) ([]model.Book, error)  { return m.listFn(ctx) }
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	return m.detailFn(ctx, id)
}
func (m *repoMock) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }

type counterMock struct {
	active int64
}

func (m *counterMock) CountActiveForBook(ctx context.Context, bookID int64) (int64, error) {
	return m.active, nil
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{}, &counterMock{})
	if _, err := s.Create(context.Background(), &model.Book{ISBN: "978-1", Quantity: 1}); booksvc.Code(err) != booksvc.ErrBadPayload {
		t.Fatal("expected error for empty title")
	}
	if _, err := s.Create(context.Background(), &model.Book{Title: "Clean Code", Quantity: 1}); booksvc.Code(err) != booksvc.ErrBadPayload {
		t.Fatal("expected error for empty isbn")
	}
	if _, err := s.Create(context.Background(), &model.Book{Title: "Clean Code", ISBN: "978-1", Quantity: -1}); booksvc.Code(err) != booksvc.ErrBadPayload {
		t.Fatal("expected error for negative quantity")
	}
	if _, err := s.Create(context.Background(), &model.Book{Title: "Clean Code", ISBN: "978-1", Year: 15}); booksvc.Code(err) != booksvc.ErrBadPayload {
		t.Fatal("expected error for bogus year")
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) (int64, error) {
			if b.Title != "Clean Code" || b.ISBN != "9780132350884" {
				return 0, errors.New("bad args")
			}
			return 42, nil
		},
	}
	s := booksvc.New(m, &counterMock{})
	id, err := s.Create(context.Background(), &model.Book{
		Title: "Clean Code", ISBN: "9780132350884", Year: 2008, Quantity: 3,
		Authors: []string{"Robert C. Martin"}, Categories: []string{"Programming"},
	})
	if err != nil || id != 42 {
		t.Fatalf("got id=%v err=%v; want 42 nil", id, err)
	}
}

func TestDelete_BlockedWhileLendingsActive(t *testing.T) {
	deleted := false
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error { deleted = true; return nil },
	}
	s := booksvc.New(m, &counterMock{active: 2})

	err := s.Delete(context.Background(), 7)
	if booksvc.Code(err) != booksvc.ErrBookInUse {
		t.Fatalf("got %v; want BOOK_IN_USE", err)
	}
	if deleted {
		t.Fatal("delete must not reach the repository")
	}
}

func TestDelete_HistoricalLendingsMapToConflict(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error {
			return &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "lendings_book_id_fkey"}
		},
	}
	s := booksvc.New(m, &counterMock{})

	err := s.Delete(context.Background(), 7)
	if booksvc.Code(err) != booksvc.ErrBookInUse {
		t.Fatalf("got %v; want BOOK_IN_USE", err)
	}
}

func TestDelete_Success(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error { return nil },
	}
	s := booksvc.New(m, &counterMock{})
	if err := s.Delete(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, pgx.ErrNoRows },
	}
	s := booksvc.New(m, &counterMock{})
	if _, err := s.Detail(context.Background(), 99); booksvc.Code(err) != booksvc.ErrNotFound {
		t.Fatalf("got %v; want NOT_FOUND", err)
	}
}
