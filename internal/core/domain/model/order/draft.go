package order

import (
	"errors"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/pkg/errs"
	"ekanban/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrDraftIsNotConstructed = errors.New("Draft must be created via NewDraft constructor")

// Draft is a new order before the store assigns its id and timestamps.
// It copies every card field it needs, so later card edits cannot reach it.
type Draft struct {
	cardID       string
	partNumber   string
	description  string
	location     string
	standardPack decimal.Decimal

	guard guard.ConstructorGuard
}

// NewDraft snapshots c for delivery to location. An empty location falls
// back to the card's own consumption point.
func NewDraft(c *card.Card, location string) (Draft, error) {
	if c == nil {
		return Draft{}, errs.NewValueIsRequiredError("card")
	}
	if err := c.Validate(); err != nil {
		return Draft{}, err
	}
	if location == "" {
		location = c.Location()
	}

	return Draft{
		cardID:       c.ID(),
		partNumber:   c.PartNumber(),
		description:  c.Description(),
		location:     location,
		standardPack: c.StandardPack(),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (d Draft) Validate() error {
	return d.guard.Validate(ErrDraftIsNotConstructed)
}

func (d Draft) CardID() string                { return d.cardID }
func (d Draft) PartNumber() string            { return d.partNumber }
func (d Draft) Description() string           { return d.description }
func (d Draft) Location() string              { return d.location }
func (d Draft) StandardPack() decimal.Decimal { return d.standardPack }

// Status is always Pending for a draft.
func (d Draft) Status() Status { return Pending }
