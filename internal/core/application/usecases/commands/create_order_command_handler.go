package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"
)

// CreateOrderCommandHandler runs the operator intake: look the card up, copy
// its fields into a pending order, and confirm.
//
// There is no duplicate prevention. Two scans of the same card create two
// orders.
type CreateOrderCommandHandler struct {
	cards      ports.CardRegistry
	uowFactory OrderUoWFactory
	publisher  ports.OrderEventPublisher
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	cards ports.CardRegistry,
	uowFactory OrderUoWFactory,
	publisher ports.OrderEventPublisher,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		cards:      cards,
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "create_order"),
	}
}

// Handle creates the order and returns the confirmation. A missing card yields
// ErrCardNotFound; every store failure yields ErrOrderCreationFailed.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (Confirmation, error) {
	if err := cmd.Validate(); err != nil {
		return Confirmation{}, err
	}

	c, err := h.cards.Get(ctx, cmd.CardID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return Confirmation{}, fmt.Errorf("%w: %s", ErrCardNotFound, cmd.CardID())
		}
		return Confirmation{}, fmt.Errorf("%w: lookup card %s: %w", ErrOrderCreationFailed, cmd.CardID(), err)
	}

	draft, err := order.NewDraft(c, "")
	if err != nil {
		return Confirmation{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return Confirmation{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := uow.OrderRepository().Add(ctx, draft)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	if err = uow.Commit(ctx); err != nil {
		return Confirmation{}, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	h.logger.InfoContext(ctx, "Order created",
		"order_id", created.ID().String(),
		"card_id", created.CardID(),
		"location", created.Location(),
	)

	if err = h.publisher.Publish(ctx, order.NewCreatedEvent(created)); err != nil {
		h.logger.WarnContext(ctx, "Publishing order created event failed",
			"order_id", created.ID().String(),
			"error", err,
		)
	}

	return newConfirmation(created), nil
}
