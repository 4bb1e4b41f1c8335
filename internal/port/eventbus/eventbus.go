package eventbus

import (
	"context"

	"github.com/mliu/prompthub/internal/domain/event"
)

type Handler func(ctx context.Context, e event.Event)

type Subscription interface {
	Unsubscribe()
}

// EventBus fans domain events out to in-process and cross-process
// subscribers. Publish failures are non-fatal to the operations that emit
// them — events are notifications, not state.
type EventBus interface {
	Publish(ctx context.Context, e event.Event) error
	Subscribe(ctx context.Context, ch event.Channel, handler Handler) (Subscription, error)
}
