package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"
)

// AdvanceOrderCommandHandler runs the dispatch control flow. It never mutates
// any local view: the dispatcher sees the change when the feed echoes it.
type AdvanceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.OrderEventPublisher
	clock      kernel.Clock
	logger     *slog.Logger
}

func NewAdvanceOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.OrderEventPublisher,
	clock kernel.Clock,
	logger *slog.Logger,
) AdvanceOrderCommandHandler {
	return AdvanceOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With("component", "advance_order"),
	}
}

// Handle validates the requested step against the stored status and writes
// only the status and its stamp. A rejected step, including one lost to a
// concurrent writer, returns an error wrapping order.ErrInvalidTransition and
// writes nothing.
func (h AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStatusUpdateFailed, err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	current, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, cmd.OrderID())
		}
		return fmt.Errorf("%w: %w", ErrStatusUpdateFailed, err)
	}

	transition, err := order.NextStatus(current.Status(), cmd.Target())
	if err != nil {
		h.logger.InfoContext(ctx, "Status change rejected",
			"order_id", cmd.OrderID().String(),
			"error", err,
		)
		return err
	}

	// Stores that check the expected status at commit report the lost race there.
	if err = repo.UpdateStatus(ctx, cmd.OrderID(), transition); err != nil {
		return h.writeFailed(ctx, cmd, transition, err)
	}
	if err = uow.Commit(ctx); err != nil {
		return h.writeFailed(ctx, cmd, transition, err)
	}

	h.logger.InfoContext(ctx, "Order status changed",
		"order_id", cmd.OrderID().String(),
		"from", transition.From.String(),
		"to", transition.To.String(),
	)

	event := order.NewAdvancedEvent(current, transition, h.clock.Now())
	if err = h.publisher.Publish(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "Publishing order changed event failed",
			"order_id", cmd.OrderID().String(),
			"error", err,
		)
	}

	return nil
}

func (h AdvanceOrderCommandHandler) writeFailed(ctx context.Context, cmd AdvanceOrderCommand, t order.Transition, err error) error {
	if !errors.Is(err, ports.ErrStaleStatus) {
		return fmt.Errorf("%w: %w", ErrStatusUpdateFailed, err)
	}
	h.logger.InfoContext(ctx, "Status change lost to a concurrent update",
		"order_id", cmd.OrderID().String(),
		"from", t.From.String(),
		"to", t.To.String(),
	)
	return &order.InvalidTransitionError{From: t.From, Requested: cmd.Target()}
}
