package ports

import (
	"context"
	"errors"

	"ekanban/internal/core/domain/model/order"
)

var (
	// ErrSubscription is delivered to snapshot handlers when the live feed is disrupted.
	ErrSubscription = errors.New("active orders subscription disrupted")

	// ErrStaleStatus is returned by UpdateStatus when another writer moved the order first.
	ErrStaleStatus = errors.New("order status changed since it was read")
)

// SnapshotFunc receives the complete active snapshot, newest first. A non-nil
// err (wrapping ErrSubscription) means the feed is disrupted and orders is the
// last good snapshot, possibly stale.
type SnapshotFunc func(orders []*order.Order, err error)

// Unsubscribe tears a subscription down and waits for an in-flight
// SnapshotFunc call to return. Calling it more than once is a no-op. A
// SnapshotFunc must not call its own Unsubscribe synchronously; it may hand it
// to another goroutine.
type Unsubscribe func()

// ActiveOrdersFeed is the live subscription over pending and in-transit orders.
type ActiveOrdersFeed interface {
	// SubscribeActiveOrders calls fn once with the current snapshot before
	// returning, then again after every change until the returned Unsubscribe
	// is called. Calls for one subscription never overlap.
	SubscribeActiveOrders(ctx context.Context, fn SnapshotFunc) (Unsubscribe, error)
}
