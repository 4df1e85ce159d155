package notify

import (
	"context"

	"sacco-backend/internal/domain/notification"
)

// Fanout delivers every message to each notifier in order.
type Fanout []notification.Notifier

func (f Fanout) Notify(ctx context.Context, m notification.Message) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, m)
		}
	}
}
