package memory

import (
	"context"
	"fmt"
	"sync"

	"ekanban/internal/core/ports"
)

// subscriber owns a goroutine that delivers snapshots one at a time.
// wake has room for one signal; commits that land while a snapshot is being
// delivered fold into the next one.
type subscriber struct {
	fn   ports.SnapshotFunc
	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// SubscribeActiveOrders implements ports.ActiveOrdersFeed.
func (s *Store) SubscribeActiveOrders(ctx context.Context, fn ports.SnapshotFunc) (ports.Unsubscribe, error) {
	sub := &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = sub
	s.subMu.Unlock()

	orders, err := s.snapshot()
	if err != nil {
		s.removeSubscriber(id)
		return nil, fmt.Errorf("%w: %w", ports.ErrSubscription, err)
	}
	fn(orders, nil)

	go s.deliver(sub)
	s.logger.DebugContext(ctx, "Subscriber added", "subscriber", id)

	// Waiting on done from inside fn would block on the goroutine that runs fn;
	// see ports.Unsubscribe.
	var once sync.Once
	return func() {
		once.Do(func() {
			s.removeSubscriber(id)
			close(sub.stop)
			<-sub.done
			s.logger.Debug("Subscriber removed", "subscriber", id)
		})
	}, nil
}

func (s *Store) deliver(sub *subscriber) {
	defer close(sub.done)
	for {
		select {
		case <-sub.stop:
			return
		case <-sub.wake:
			orders, err := s.snapshot()
			if err != nil {
				sub.fn(nil, fmt.Errorf("%w: %w", ports.ErrSubscription, err))
				continue
			}
			sub.fn(orders, nil)
		}
	}
}

func (s *Store) notifySubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subscribers {
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

func (s *Store) removeSubscriber(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subscribers, id)
}
