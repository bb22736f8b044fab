package notification

import (
	"context"

	"booklending/model"
	"booklending/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	Add(ctx context.Context, userID int64, message string) error
	ListForUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Add(ctx context.Context, userID int64, message string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notifications (user_id, message, read)
		VALUES ($1, $2, FALSE)`,
		userID, message)
	return err
}

func (r *repo) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repo) MarkRead(ctx context.Context, id, userID int64) error {
	ct, err := r.db.Pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
