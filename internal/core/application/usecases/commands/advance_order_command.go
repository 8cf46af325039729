package commands

import (
	"errors"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/pkg/errs"
	"ekanban/internal/pkg/guard"
)

var ErrAdvanceOrderCommandIsNotConstructed = errors.New(
	"AdvanceOrderCommand must be created via NewAdvanceOrderCommand constructor",
)

// AdvanceOrderCommand asks to move an order to its next status: IN_TRANSIT
// when a dispatcher picks it up, DELIVERED when it reaches the line.
type AdvanceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.Status

	guard guard.ConstructorGuard
}

func NewAdvanceOrderCommand(orderID kernel.UUID, target order.Status) (AdvanceOrderCommand, error) {
	cmd := AdvanceOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTarget(target),
	); err != nil {
		return AdvanceOrderCommand{}, err
	}

	return cmd, nil
}

func (c AdvanceOrderCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderCommandIsNotConstructed)
}

func (c AdvanceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AdvanceOrderCommand) Target() order.Status {
	return c.target
}

func (c *AdvanceOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

// setTarget only checks that target is a real status. Whether it is reachable
// is decided against the stored order.
func (c *AdvanceOrderCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("target", err)
	}

	c.target = target
	return nil
}
