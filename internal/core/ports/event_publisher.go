package ports

import (
	"context"

	"ekanban/internal/core/domain/model/order"
)

// OrderEventPublisher forwards lifecycle events to other systems after commit.
type OrderEventPublisher interface {
	Publish(ctx context.Context, evt order.ChangedEvent) error
}
