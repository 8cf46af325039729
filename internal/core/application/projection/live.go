package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
)

var ErrAlreadyStarted = errors.New("live projection already started")

// ListenerID identifies a board listener.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn func(Board)
}

// LiveProjection keeps the latest Board of one active-orders subscription.
// Start subscribes exactly once; Stop releases the subscription exactly once.
type LiveProjection struct {
	feed      ports.ActiveOrdersFeed
	locations []string
	logger    *slog.Logger

	mu          sync.RWMutex
	board       Board
	seq         uint64
	unsubscribe ports.Unsubscribe
	started     bool
	stopped     bool
	listeners   []listener
	nextID      ListenerID
}

// NewLiveProjection creates a projection over feed. Until the first snapshot
// arrives the board is empty and stale.
func NewLiveProjection(feed ports.ActiveOrdersFeed, locations []string, logger *slog.Logger) *LiveProjection {
	board := Project(nil, locations)
	board.Stale = true
	return &LiveProjection{
		feed:      feed,
		locations: append([]string(nil), locations...),
		logger:    logger.With("component", "live_projection"),
		board:     board,
	}
}

// Start opens the subscription. The feed delivers the first snapshot before
// Start returns.
func (p *LiveProjection) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	unsubscribe, err := p.feed.SubscribeActiveOrders(ctx, p.handleSnapshot)
	if err != nil {
		p.mu.Lock()
		p.started = false
		p.stopped = false
		p.mu.Unlock()
		return fmt.Errorf("subscribe active orders: %w", err)
	}

	p.mu.Lock()
	if p.stopped {
		// Stop ran while subscribing.
		p.mu.Unlock()
		unsubscribe()
		p.logger.InfoContext(ctx, "Live projection stopped during start")
		return nil
	}
	p.unsubscribe = unsubscribe
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Live projection started")
	return nil
}

// Stop closes the subscription. It is safe to call more than once, and while
// Start is still subscribing.
func (p *LiveProjection) Stop() {
	p.mu.Lock()
	if p.started {
		p.stopped = true
	}
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	unsubscribe()
	p.logger.Info("Live projection stopped")
}

// Board returns the latest projected board.
func (p *LiveProjection) Board() Board {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.board
}

// OnChange registers fn to be called with every new board, on the feed's
// goroutine. fn must not block.
func (p *LiveProjection) OnChange(fn func(Board)) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.listeners = append(p.listeners, listener{id: p.nextID, fn: fn})
	return p.nextID
}

func (p *LiveProjection) RemoveListener(id ListenerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// handleSnapshot never lets a failure escape into the feed: a board that
// cannot be projected is replaced by an empty stale one.
func (p *LiveProjection) handleSnapshot(orders []*order.Order, feedErr error) {
	board, err := p.project(orders)
	if err != nil {
		p.logger.Error("Projecting snapshot failed, serving empty board", "error", err)
		board = Project(nil, p.locations)
		board.Stale = true
	}
	if feedErr != nil {
		p.logger.Warn("Active orders feed disrupted, board is stale", "error", feedErr)
		board.Stale = true
	}

	p.mu.Lock()
	p.seq++
	board.Seq = p.seq
	p.board = board
	listeners := make([]listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		p.notify(l, board)
	}
}

func (p *LiveProjection) project(orders []*order.Order) (board Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while projecting: %v", r)
		}
	}()
	return Project(orders, p.locations), nil
}

func (p *LiveProjection) notify(l listener, board Board) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Board listener panicked", "listener", l.id, "panic", r)
		}
	}()
	l.fn(board)
}
