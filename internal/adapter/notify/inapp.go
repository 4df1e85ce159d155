package notify

import (
	"context"
	"log"

	"sacco-backend/internal/domain/notification"
	"sacco-backend/pkg/id"
)

// InApp stores each message as an unread notification row.
type InApp struct {
	repo notification.Repository
}

func NewInApp(repo notification.Repository) *InApp { return &InApp{repo: repo} }

func (n *InApp) Notify(ctx context.Context, m notification.Message) {
	if m.UserID == "" {
		return
	}
	row := &notification.Notification{
		NotificationID: id.NewID32(),
		UserID:         m.UserID,
		Kind:           m.Kind,
		Title:          m.Title,
		Message:        m.Body,
	}
	if err := n.repo.Create(ctx, row); err != nil {
		log.Printf("notify: store %s for %s: %v", m.Kind, m.UserID, err)
	}
}
