// Package service sequences the cross-cutting concerns around each
// repository mutation, always in the same order: permission check,
// domain validation, uniqueness check, repository call, cache
// invalidation, event emission, notification. Each step can
// short-circuit the whole operation; nothing after the repository call
// can fail the request, since events and notifications are
// fire-and-forget.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/taskhub/kanban-api/internal/queue"
	"github.com/taskhub/kanban-api/internal/ws"
)

// ErrAccessDenied is returned when the permission resolver denies the
// requested operation. Handlers translate this into an HTTP 403
// response. The check runs before any side effect, so a denied
// request leaves no trace.
var ErrAccessDenied = errors.New("access denied")

// EventPublisher is the sink for domain events. Implementations must
// tolerate broker outages; services ignore publish errors.
type EventPublisher interface {
	PublishActivity(ctx context.Context, ev queue.ActivityEvent) error
}

// Notifier is the sink for user-facing notifications. Implementations
// must never block the request path.
type Notifier interface {
	Notify(userIDs []uint64, n ws.Notification)
}

// emit publishes an event if a publisher is configured. Failures are
// logged by the publisher and otherwise ignored; a lost event does not
// roll back the mutation that produced it.
func emit(ctx context.Context, events EventPublisher, ev queue.ActivityEvent) {
	if events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := events.PublishActivity(ctx, ev); err != nil {
		log.Printf("service: event %s %s dropped: %v", ev.EntityType, ev.Action, err)
	}
}

// notify dispatches a notification if a notifier is configured. The
// actor is filtered from the recipient list; nobody needs a push about
// their own action.
func notify(notifier Notifier, userIDs []uint64, actorID uint64, n ws.Notification) {
	if notifier == nil {
		return
	}
	recipients := make([]uint64, 0, len(userIDs))
	for _, id := range userIDs {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	n.ActorID = actorID
	notifier.Notify(recipients, n)
}
