// Package inbox serves a member's in-app notifications.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sacco-backend/internal/domain/errs"
	"sacco-backend/internal/domain/uow"
)

var ErrNotFound = fmt.Errorf("notification %w", errs.ErrNotFound)

type NotificationDTO struct {
	NotificationID string    `json:"notification_id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type Usecase struct {
	uow uow.UnitOfWork
}

func NewUsecase(tx uow.UnitOfWork) *Usecase { return &Usecase{uow: tx} }

func (u *Usecase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		n, err = r.Notifications.CountUnread(ctx, userID)
		return err
	})
	return n, err
}

// List returns the newest notifications first.
func (u *Usecase) List(ctx context.Context, userID string, limit int) ([]NotificationDTO, error) {
	var out []NotificationDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rows, err := r.Notifications.ListByUser(ctx, userID, limit)
		if err != nil {
			return err
		}
		out = make([]NotificationDTO, 0, len(rows))
		for _, n := range rows {
			out = append(out, NotificationDTO{
				NotificationID: n.NotificationID,
				Kind:           string(n.Kind),
				Title:          n.Title,
				Message:        n.Message,
				Read:           n.Read,
				CreatedAt:      n.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (u *Usecase) MarkRead(ctx context.Context, userID, notificationID string) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		err := r.Notifications.MarkRead(ctx, userID, notificationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	})
}

