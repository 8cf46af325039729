package order

import (
	"time"

	"ekanban/internal/core/domain/model/kernel"
)

// ChangedEvent is published after an order is created or advanced.
type ChangedEvent struct {
	OrderID    kernel.UUID
	CardID     string
	Location   string
	Status     Status
	OccurredAt time.Time
}

func NewCreatedEvent(o *Order) ChangedEvent {
	return ChangedEvent{
		OrderID:    o.ID(),
		CardID:     o.CardID(),
		Location:   o.Location(),
		Status:     o.Status(),
		OccurredAt: o.CreatedAt(),
	}
}

func NewAdvancedEvent(o *Order, t Transition, at time.Time) ChangedEvent {
	return ChangedEvent{
		OrderID:    o.ID(),
		CardID:     o.CardID(),
		Location:   o.Location(),
		Status:     t.To,
		OccurredAt: at,
	}
}
