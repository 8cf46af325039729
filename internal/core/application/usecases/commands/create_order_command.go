package commands

import (
	"errors"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/pkg/errs"
	"ekanban/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand is an operator request to replenish the material of one card.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(" mat-001 ")
//	if err != nil {
//	    return fmt.Errorf("invalid scan: %w", err)
//	}
//	confirmation, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	cardID string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand normalizes the scanned identifier the same way the
// card registry keys cards.
func NewCreateOrderCommand(cardID string) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setCardID(cardID); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) CardID() string {
	return c.cardID
}

func (c *CreateOrderCommand) setCardID(cardID string) error {
	normalized := card.NormalizeID(cardID)
	if normalized == "" {
		return errs.NewValueIsRequiredError("cardId")
	}

	c.cardID = normalized
	return nil
}
