// Package card models the kanban card: static reference data describing a
// replenishable part and the consumption point it feeds. Cards are owned by
// the registry; the core only reads them.
package card

import (
	"errors"
	"fmt"
	"strings"

	"ekanban/internal/pkg/errs"
	"ekanban/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCardIsNotConstructed = errors.New("Card must be created via NewCard constructor")

// Card is an immutable snapshot of one registry record.
type Card struct { //nolint:recvcheck //using for validation
	id           string
	partNumber   string
	description  string
	location     string
	standardPack decimal.Decimal

	guard guard.ConstructorGuard
}

// NewCard validates and builds a Card. The id, part number and location are
// required; the standard pack must be strictly positive.
func NewCard(id, partNumber, description, location string, standardPack decimal.Decimal) (*Card, error) {
	c := &Card{
		description: strings.TrimSpace(description),
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setPartNumber(partNumber),
		c.setLocation(location),
		c.setStandardPack(standardPack),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// NormalizeID turns scanner or keyboard input into the registry key form.
func NormalizeID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func (c Card) Validate() error {
	return c.guard.Validate(ErrCardIsNotConstructed)
}

func (c Card) ID() string                    { return c.id }
func (c Card) PartNumber() string            { return c.partNumber }
func (c Card) Description() string           { return c.description }
func (c Card) Location() string              { return c.location }
func (c Card) StandardPack() decimal.Decimal { return c.standardPack }

func (c *Card) setID(id string) error {
	id = NormalizeID(id)
	if id == "" {
		return errs.NewValueIsRequiredError("cardId")
	}
	c.id = id
	return nil
}

func (c *Card) setPartNumber(partNumber string) error {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return errs.NewValueIsRequiredError("partNumber")
	}
	c.partNumber = partNumber
	return nil
}

func (c *Card) setLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return errs.NewValueIsRequiredError("location")
	}
	c.location = location
	return nil
}

func (c *Card) setStandardPack(pack decimal.Decimal) error {
	if !pack.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("standardPack", fmt.Errorf("%s is not greater than 0", pack))
	}
	c.standardPack = pack
	return nil
}
