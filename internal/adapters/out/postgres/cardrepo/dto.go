// Package cardrepo stores the kanban card registry in the kanban_cards table.
package cardrepo

import (
	"ekanban/internal/core/domain/model/card"

	"github.com/shopspring/decimal"
)

const TableName = "kanban_cards"

type CardDTO struct {
	ID           string          `gorm:"column:card_id;type:varchar(64);primaryKey"`
	PartNumber   string          `gorm:"type:varchar(128);not null"`
	Description  string          `gorm:"type:text;not null;default:''"`
	Location     string          `gorm:"type:varchar(128);not null"`
	StandardPack decimal.Decimal `gorm:"type:numeric(14,3);not null"`
}

func (CardDTO) TableName() string {
	return TableName
}

func fromDomain(c *card.Card) CardDTO {
	return CardDTO{
		ID:           c.ID(),
		PartNumber:   c.PartNumber(),
		Description:  c.Description(),
		Location:     c.Location(),
		StandardPack: c.StandardPack(),
	}
}

func toDomain(dto CardDTO) (*card.Card, error) {
	return card.NewCard(dto.ID, dto.PartNumber, dto.Description, dto.Location, dto.StandardPack)
}
