package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"
)

var ErrNoTransaction = errors.New("no transaction in progress")

// mutation is a staged write. apply runs under the store lock at commit and
// must re-check its preconditions against committed state.
type mutation func(s *Store) error

// UnitOfWork stages writes until Commit. Without Begin, writes apply at once.
type UnitOfWork struct {
	store  *Store
	active bool
	staged []mutation
	// pending shadows committed records for reads inside the transaction.
	pending map[kernel.UUID]storedOrder
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.staged = nil
	u.pending = make(map[kernel.UUID]storedOrder)
	return nil
}

// Commit applies all staged writes atomically, then wakes the feed. A staged
// status change whose precondition no longer holds aborts the whole commit.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	staged := u.staged
	u.reset()

	if len(staged) == 0 {
		return nil
	}
	return u.store.apply(staged...)
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.reset()
	return nil
}

func (u *UnitOfWork) reset() {
	u.active = false
	u.staged = nil
	u.pending = nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: u}
}

// apply runs mutations as one atomic step and notifies subscribers once.
func (s *Store) apply(mutations ...mutation) error {
	s.mu.Lock()
	backup := make(map[kernel.UUID]storedOrder, len(s.orders))
	for id, so := range s.orders {
		backup[id] = so
	}
	seq := s.seq

	for _, m := range mutations {
		if err := m(s); err != nil {
			s.orders = backup
			s.seq = seq
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.notifySubscribers()
	return nil
}

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(_ context.Context, d order.Draft) (*order.Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := r.uow.store.clock.Now()
	o, err := order.FromDraft(d, kernel.NewUUID(), now, now)
	if err != nil {
		return nil, err
	}
	record := o.Record()

	insert := func(s *Store) error {
		s.seq++
		s.orders[record.ID] = storedOrder{record: record, seq: s.seq}
		return nil
	}

	if err = r.write(record.ID, storedOrder{record: record}, insert); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	so, ok := r.lookup(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.Restore(so.record)
}

// UpdateStatus stamps the transition with the store clock, conditioned on t.From.
func (r *orderRepository) UpdateStatus(_ context.Context, id kernel.UUID, t order.Transition) error {
	if err := id.Validate(); err != nil {
		return err
	}

	current, ok := r.lookup(id)
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if current.record.Status != t.From {
		return fmt.Errorf("%w: %s expected %s", ports.ErrStaleStatus, id, t.From)
	}

	at := r.uow.store.clock.Now()
	updated := current
	updated.record = withTransition(current.record, t, at)

	update := func(s *Store) error {
		committed, ok := s.orders[id]
		if !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		if committed.record.Status != t.From {
			return fmt.Errorf("%w: %s expected %s", ports.ErrStaleStatus, id, t.From)
		}
		committed.record = withTransition(committed.record, t, at)
		s.orders[id] = committed
		return nil
	}

	return r.write(id, updated, update)
}

func (r *orderRepository) GetAllActive(_ context.Context) ([]*order.Order, error) {
	if !r.uow.active || len(r.uow.pending) == 0 {
		return r.uow.store.snapshot()
	}

	// Inside a transaction with staged writes, read through a scratch store.
	scratch := &Store{orders: make(map[kernel.UUID]storedOrder)}
	r.uow.store.mu.RLock()
	for id, so := range r.uow.store.orders {
		scratch.orders[id] = so
	}
	seq := r.uow.store.seq
	r.uow.store.mu.RUnlock()

	for id, so := range r.uow.pending {
		if so.seq == 0 {
			seq++
			so.seq = seq
		}
		scratch.orders[id] = so
	}
	return scratch.activeSnapshot()
}

func (r *orderRepository) lookup(id kernel.UUID) (storedOrder, bool) {
	if r.uow.active {
		if so, ok := r.uow.pending[id]; ok {
			return so, true
		}
	}

	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	so, ok := s.orders[id]
	return so, ok
}

func (r *orderRepository) write(id kernel.UUID, shadow storedOrder, m mutation) error {
	if !r.uow.active {
		return r.uow.store.apply(m)
	}
	r.uow.pending[id] = shadow
	r.uow.staged = append(r.uow.staged, m)
	return nil
}

func withTransition(rec order.Record, t order.Transition, at time.Time) order.Record {
	rec.Status = t.To
	stamp := at
	switch t.Stamp {
	case order.StampDispatchedAt:
		rec.DispatchedAt = &stamp
	case order.StampDeliveredAt:
		rec.DeliveredAt = &stamp
	case order.StampNone:
	}
	return rec
}
