package notificationsvc

import (
	"context"
	"errors"

	"booklending/model"
	notifrepo "booklending/repository/notification"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("notification not found")

type Service interface {
	ListForUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type service struct{ r notifrepo.Repo }

func New(r notifrepo.Repo) Service { return &service{r: r} }

func (s *service) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.r.ListForUser(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, id, userID int64) error {
	if err := s.r.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
