package bookrepo

import (
	"context"

	"booklending/model"
	"booklending/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) (int64, error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO books (isbn, title, year, edition, quantity, image_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, q, b.ISBN, b.Title, b.Year, b.Edition, b.Quantity, b.ImageURL).Scan(&id); err != nil {
		return 0, err
	}

	if err := linkNames(ctx, tx, id, b.Authors, "authors", "book_authors", "author_id"); err != nil {
		return 0, err
	}
	if err := linkNames(ctx, tx, id, b.Categories, "categories", "book_categories", "category_id"); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE books
		SET isbn = $2, title = $3, year = $4, edition = $5, quantity = $6, image_url = $7
		WHERE id = $1`
	ct, err := tx.Exec(ctx, q, b.ID, b.ISBN, b.Title, b.Year, b.Edition, b.Quantity, b.ImageURL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM book_authors WHERE book_id = $1`, b.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM book_categories WHERE book_id = $1`, b.ID); err != nil {
		return err
	}
	if err := linkNames(ctx, tx, b.ID, b.Authors, "authors", "book_authors", "author_id"); err != nil {
		return err
	}
	if err := linkNames(ctx, tx, b.ID, b.Categories, "categories", "book_categories", "category_id"); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// linkNames upserts the named rows (authors or categories) and links them to
// the book through the given join table.
func linkNames(ctx context.Context, tx pgx.Tx, bookID int64, names []string, table, joinTable, joinCol string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		var refID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO `+table+` (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&refID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO `+joinTable+` (book_id, `+joinCol+`)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, bookID, refID)
		if err != nil {
			return err
		}
	}
	return nil
}

const bookSelect = `
	SELECT b.id, b.isbn, b.title, b.year, b.edition, b.quantity, b.image_url,
		COALESCE(array_agg(DISTINCT a.name) FILTER (WHERE a.name IS NOT NULL), '{}') AS authors,
		COALESCE(array_agg(DISTINCT c.name) FILTER (WHERE c.name IS NOT NULL), '{}') AS categories
	FROM books b
	LEFT JOIN book_authors ba ON ba.book_id = b.id
	LEFT JOIN authors a ON a.id = ba.author_id
	LEFT JOIN book_categories bc ON bc.book_id = b.id
	LEFT JOIN categories c ON c.id = bc.category_id`

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.db.Pool.Query(ctx, bookSelect+`
	GROUP BY b.id
	ORDER BY b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.ISBN, &b.Title, &b.Year, &b.Edition,
			&b.Quantity, &b.ImageURL, &b.Authors, &b.Categories); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := r.db.Pool.QueryRow(ctx, bookSelect+`
	WHERE b.id = $1
	GROUP BY b.id`, id).Scan(&b.ID, &b.ISBN, &b.Title, &b.Year, &b.Edition,
		&b.Quantity, &b.ImageURL, &b.Authors, &b.Categories)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
