package commands

import (
	"fmt"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// Confirmation is what the operator sees after a successful scan.
type Confirmation struct {
	OrderID      kernel.UUID
	CardID       string
	PartNumber   string
	Description  string
	Location     string
	StandardPack decimal.Decimal
}

func newConfirmation(o *order.Order) Confirmation {
	return Confirmation{
		OrderID:      o.ID(),
		CardID:       o.CardID(),
		PartNumber:   o.PartNumber(),
		Description:  o.Description(),
		Location:     o.Location(),
		StandardPack: o.StandardPack(),
	}
}

// Message renders the confirmation line, "<partNumber> - <description>".
func (c Confirmation) Message() string {
	return fmt.Sprintf("%s - %s", c.PartNumber, c.Description)
}
