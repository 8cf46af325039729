// Package orderfeed turns Postgres LISTEN/NOTIFY on active_orders into the
// live active-orders feed. Each notification reloads the full snapshot; the
// snapshot is the unit of delivery, never a delta.
package orderfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"

	"github.com/lib/pq"
)

const (
	defaultMinReconnect = 10 * time.Second
	defaultMaxReconnect = time.Minute
	defaultPingInterval = 90 * time.Second
)

// ActiveOrdersReader loads the current snapshot.
type ActiveOrdersReader interface {
	GetAllActive(ctx context.Context) ([]*order.Order, error)
}

// Listener is the part of *pq.Listener the feed uses.
type Listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// ListenerFactory opens a listener; onEvent receives its connection events.
type ListenerFactory func(onEvent pq.EventCallbackType) Listener

// Feed implements ports.ActiveOrdersFeed.
type Feed struct {
	channel      string
	reader       ActiveOrdersReader
	newListener  ListenerFactory
	pingInterval time.Duration
	logger       *slog.Logger
}

// NewFeed listens on channel with lib/pq listeners connected to dsn.
func NewFeed(dsn, channel string, reader ActiveOrdersReader, logger *slog.Logger) *Feed {
	return NewFeedWithListener(channel, reader, PQListenerFactory(dsn), logger)
}

func NewFeedWithListener(channel string, reader ActiveOrdersReader, factory ListenerFactory, logger *slog.Logger) *Feed {
	return &Feed{
		channel:      channel,
		reader:       reader,
		newListener:  factory,
		pingInterval: defaultPingInterval,
		logger:       logger.With("component", "active_orders_feed"),
	}
}

// PQListenerFactory opens *pq.Listener connections with the default reconnect backoff.
func PQListenerFactory(dsn string) ListenerFactory {
	return func(onEvent pq.EventCallbackType) Listener {
		return pq.NewListener(dsn, defaultMinReconnect, defaultMaxReconnect, onEvent)
	}
}

// SubscribeActiveOrders opens a dedicated listener connection, delivers the
// initial snapshot and then one snapshot per notification burst.
func (f *Feed) SubscribeActiveOrders(ctx context.Context, fn ports.SnapshotFunc) (ports.Unsubscribe, error) {
	problems := make(chan error, 1)
	listener := f.newListener(func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
			select {
			case problems <- fmt.Errorf("%w: listener %s: %w", ports.ErrSubscription, eventName(ev), err):
			default:
			}
		case pq.ListenerEventConnected, pq.ListenerEventReconnected:
		}
	})

	if err := listener.Listen(f.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("%w: listen %s: %w", ports.ErrSubscription, f.channel, err)
	}

	orders, err := f.reader.GetAllActive(ctx)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("%w: initial snapshot: %w", ports.ErrSubscription, err)
	}
	fn(orders, nil)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s := &subscription{
		feed:     f,
		listener: listener,
		problems: problems,
		fn:       fn,
		last:     orders,
	}
	go func() {
		defer close(done)
		s.run(loopCtx)
	}()

	f.logger.InfoContext(ctx, "Subscribed to active orders", "channel", f.channel)

	// Waits for the subscription goroutine, so fn must not call it
	// synchronously; see ports.Unsubscribe.
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			if err := listener.Close(); err != nil {
				f.logger.Warn("Closing listener failed", "error", err)
			}
			f.logger.Info("Unsubscribed from active orders", "channel", f.channel)
		})
	}, nil
}

type subscription struct {
	feed     *Feed
	listener Listener
	problems <-chan error
	fn       ports.SnapshotFunc
	last     []*order.Order
}

// run is the only goroutine calling fn after the initial snapshot.
func (s *subscription) run(ctx context.Context) {
	ticker := time.NewTicker(s.feed.pingInterval)
	defer ticker.Stop()

	notifications := s.listener.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.problems:
			s.feed.logger.Warn("Active orders feed disrupted", "error", err)
			s.fn(s.last, err)
		case <-notifications:
			// A nil notification follows a reconnect; either way the snapshot
			// is reloaded. Pending notifications are folded into this reload.
			drain(notifications)
			s.reload(ctx)
		case <-ticker.C:
			if err := s.listener.Ping(); err != nil {
				s.feed.logger.Debug("Listener ping failed", "error", err)
			}
		}
	}
}

func (s *subscription) reload(ctx context.Context) {
	orders, err := s.feed.reader.GetAllActive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.feed.logger.Warn("Reloading active orders failed", "error", err)
		s.fn(s.last, fmt.Errorf("%w: reload: %w", ports.ErrSubscription, err))
		return
	}
	s.last = orders
	s.fn(orders, nil)
}

func drain(ch <-chan *pq.Notification) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func eventName(ev pq.ListenerEventType) string {
	switch ev {
	case pq.ListenerEventConnected:
		return "connected"
	case pq.ListenerEventDisconnected:
		return "disconnected"
	case pq.ListenerEventReconnected:
		return "reconnected"
	case pq.ListenerEventConnectionAttemptFailed:
		return "connection attempt failed"
	default:
		return "unknown event"
	}
}
