// Package ports defines the contracts between the e-kanban core and the
// store, registry, feed and event adapters.
package ports

import (
	"context"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
)

// OrderRepository is the write side of the order store.
type OrderRepository interface {
	// Add appends a new pending order. The store assigns the id, createdAt
	// and timestamp and returns the stored order.
	Add(ctx context.Context, draft order.Draft) (*order.Order, error)

	// Get returns the order with id, or an errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// UpdateStatus writes only the status and the transition's stamp column,
	// stamped with the store clock. The write is conditioned on t.From;
	// ErrStaleStatus is returned when the order is no longer in that status.
	UpdateStatus(ctx context.Context, id kernel.UUID, t order.Transition) error

	// GetAllActive returns pending and in-transit orders, newest timestamp first.
	GetAllActive(ctx context.Context) ([]*order.Order, error)
}
