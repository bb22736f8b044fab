// repository/lending/repo.go
package lending

import (
	"context"
	"errors"
	"time"

	"booklending/model"
	"booklending/util/database"

	"github.com/jackc/pgx/v5"
)

type HistoryRow struct {
	LendingID   int64      `json:"lending_id"`
	BookID      int64      `json:"book_id"`
	BookTitle   string     `json:"book_title"`
	UserID      int64      `json:"user_id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	OverdueFee  float64    `json:"overdue_fee"`
}

// TxRepo is the slice of the repository visible inside one transaction.
type TxRepo interface {
	LockBookQuantity(ctx context.Context, bookID int64) (int64, error)
	AdjustBookQuantity(ctx context.Context, bookID, delta int64) error
	GetLendingForUpdate(ctx context.Context, id int64) (*model.Lending, error)
	SetStatus(ctx context.Context, id int64, status model.LendingStatus) error
	MarkReturned(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

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
	CountActiveForBook(ctx context.Context, bookID int64) (int64, error)

	// InTx runs fn inside a single database transaction; fn returning an
	// error rolls everything back.
	InTx(ctx context.Context, fn func(tx TxRepo) error) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

const lendingCols = `id, user_id, book_id, status, requested_at, due_date, returned_at, overdue_fee, notified`

func scanLending(row pgx.Row) (*model.Lending, error) {
	l := &model.Lending{}
	err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.Status, &l.RequestedAt,
		&l.DueDate, &l.ReturnedAt, &l.OverdueFee, &l.Notified)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) CheckBookExists(ctx context.Context, bookID int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) Create(ctx context.Context, userID, bookID int64, requestedAt time.Time) (int64, error) {
	const q = `
		INSERT INTO lendings (user_id, book_id, status, requested_at, overdue_fee, notified)
		VALUES ($1, $2, 'REQUESTING', $3, 0, FALSE)
		RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, userID, bookID, requestedAt).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Lending, error) {
	return scanLending(r.db.Pool.QueryRow(ctx,
		`SELECT `+lendingCols+` FROM lendings WHERE id = $1`, id))
}

func (r *repo) SetBorrowed(ctx context.Context, id int64, due time.Time) error {
	const q = `
		UPDATE lendings
		SET status = 'BORROWED',
			due_date = $2,
			overdue_fee = 0,
			notified = FALSE
		WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, id, due)
	return err
}

func (r *repo) SetDueDate(ctx context.Context, id int64, due time.Time, status model.LendingStatus, fee float64, notified bool) error {
	const q = `
		UPDATE lendings
		SET due_date = $2,
			status = $3,
			overdue_fee = $4,
			notified = $5
		WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, id, due, status, fee, notified)
	return err
}

func (r *repo) SetOverdue(ctx context.Context, id int64, fee float64, notified bool) error {
	const q = `
		UPDATE lendings
		SET status = 'OVERDUE',
			overdue_fee = $2,
			notified = $3
		WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, id, fee, notified)
	return err
}

func (r *repo) SetFee(ctx context.Context, id int64, fee float64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE lendings SET overdue_fee = $2 WHERE id = $1`, id, fee)
	return err
}

func (r *repo) SetNotified(ctx context.Context, id int64, notified bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE lendings SET notified = $2 WHERE id = $1`, id, notified)
	return err
}

const historySelect = `
		SELECT
			l.id           AS lending_id,
			l.book_id      AS book_id,
			b.title        AS book_title,
			l.user_id      AS user_id,
			l.status       AS status,
			l.requested_at AS requested_at,
			l.due_date     AS due_date,
			l.returned_at  AS returned_at,
			l.overdue_fee  AS overdue_fee
		FROM lendings l
		JOIN books b ON b.id = l.book_id`

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	rows, err := r.db.Pool.Query(ctx, historySelect+`
		WHERE l.user_id = $1
		ORDER BY l.requested_at DESC, l.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func (r *repo) ListAll(ctx context.Context) ([]HistoryRow, error) {
	rows, err := r.db.Pool.Query(ctx, historySelect+`
		ORDER BY l.requested_at DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func collectHistory(rows pgx.Rows) ([]HistoryRow, error) {
	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.LendingID, &h.BookID, &h.BookTitle, &h.UserID,
			&h.Status, &h.RequestedAt, &h.DueDate, &h.ReturnedAt, &h.OverdueFee,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ListBorrowedDueBefore(ctx context.Context, cutoff time.Time) ([]model.Lending, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+lendingCols+`
		FROM lendings
		WHERE status = 'BORROWED' AND due_date < $1
		ORDER BY id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLendings(rows)
}

func (r *repo) ListOverdue(ctx context.Context) ([]model.Lending, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+lendingCols+`
		FROM lendings
		WHERE status = 'OVERDUE'
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLendings(rows)
}

func collectLendings(rows pgx.Rows) ([]model.Lending, error) {
	var out []model.Lending
	for rows.Next() {
		var l model.Lending
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.Status, &l.RequestedAt,
			&l.DueDate, &l.ReturnedAt, &l.OverdueFee, &l.Notified); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repo) CountActiveForBook(ctx context.Context, bookID int64) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lendings
		WHERE book_id = $1 AND status IN ('BORROWED','OVERDUE')`, bookID).Scan(&n)
	return n, err
}

func (r *repo) InTx(ctx context.Context, fn func(tx TxRepo) error) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepo struct{ tx pgx.Tx }

func (t *txRepo) LockBookQuantity(ctx context.Context, bookID int64) (int64, error) {
	const q = `
		SELECT quantity
		FROM books
		WHERE id = $1
		FOR UPDATE`
	var qty int64
	err := t.tx.QueryRow(ctx, q, bookID).Scan(&qty)
	return qty, err
}

func (t *txRepo) AdjustBookQuantity(ctx context.Context, bookID, delta int64) error {
	// Guard: never let quantity go negative.
	const q = `
		UPDATE books
		SET quantity = quantity + $2
		WHERE id = $1
		AND quantity + $2 >= 0`
	ct, err := t.tx.Exec(ctx, q, bookID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("quantity adjustment rejected")
	}
	return nil
}

func (t *txRepo) GetLendingForUpdate(ctx context.Context, id int64) (*model.Lending, error) {
	return scanLending(t.tx.QueryRow(ctx,
		`SELECT `+lendingCols+` FROM lendings WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status model.LendingStatus) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE lendings SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (t *txRepo) MarkReturned(ctx context.Context, id int64, at time.Time) error {
	const q = `
		UPDATE lendings
		SET status = 'RETURNED',
			returned_at = $2,
			due_date = NULL
		WHERE id = $1`
	_, err := t.tx.Exec(ctx, q, id, at)
	return err
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM lendings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
