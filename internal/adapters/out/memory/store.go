// Package memory is a process-local store: card registry, order repository,
// units of work and a live active-orders feed. It backs the memory store
// driver and end-to-end tests.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"
)

type storedOrder struct {
	record order.Record
	seq    uint64
}

// Store keeps committed state. Every committed write wakes the feed subscribers.
type Store struct {
	clock  kernel.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	cards  map[string]*card.Card
	orders map[kernel.UUID]storedOrder
	seq    uint64

	subMu       sync.Mutex
	subscribers map[uint64]*subscriber
	nextSubID   uint64
}

func NewStore(clock kernel.Clock, logger *slog.Logger) *Store {
	return &Store{
		clock:       clock,
		logger:      logger.With("component", "memory_store"),
		cards:       make(map[string]*card.Card),
		orders:      make(map[kernel.UUID]storedOrder),
		subscribers: make(map[uint64]*subscriber),
	}
}

// Get implements ports.CardRegistry.
func (s *Store) Get(_ context.Context, id string) (*card.Card, error) {
	key := card.NormalizeID(id)
	if key == "" {
		return nil, errs.NewValueIsRequiredError("cardId")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[key]
	if !ok {
		return nil, errs.NewObjectNotFoundError("card", key)
	}
	return c, nil
}

// Upsert implements ports.CardWriter.
func (s *Store) Upsert(_ context.Context, cards []*card.Card) error {
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cards {
		s.cards[c.ID()] = c
	}
	return nil
}

// Create implements ports.UnitOfWorkFactory.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

// activeSnapshot must be called with s.mu held.
func (s *Store) activeSnapshot() ([]*order.Order, error) {
	active := make([]storedOrder, 0, len(s.orders))
	for _, so := range s.orders {
		if so.record.Status.IsActive() {
			active = append(active, so)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		a, b := active[i].record.Timestamp, active[j].record.Timestamp
		if !a.Equal(b) {
			return a.After(b)
		}
		return active[i].seq > active[j].seq
	})

	orders := make([]*order.Order, 0, len(active))
	for _, so := range active {
		o, err := order.Restore(so.record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *Store) snapshot() ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSnapshot()
}
