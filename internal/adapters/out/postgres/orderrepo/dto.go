// Package orderrepo persists orders in the active_orders table.
//
// created_at and timestamp are filled by the database (DEFAULT now()) and
// read back through RETURNING, so every order carries the server's clock.
package orderrepo

import (
	"time"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TableName = "active_orders"

// OrderDTO is the row of active_orders. Card fields are copies taken at
// creation and are never rewritten.
type OrderDTO struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CardID       string          `gorm:"type:varchar(64);not null;index"`
	PartNumber   string          `gorm:"type:varchar(128);not null"`
	Description  string          `gorm:"type:text;not null;default:''"`
	Location     string          `gorm:"type:varchar(128);not null"`
	StandardPack decimal.Decimal `gorm:"type:numeric(14,3);not null"`
	Status       string          `gorm:"type:varchar(16);not null;index"`
	Created      time.Time       `gorm:"column:created_at;not null;default:now()"`
	Timestamp    time.Time       `gorm:"not null;default:now();index"`
	DispatchedAt *time.Time
	DeliveredAt  *time.Time
}

func (OrderDTO) TableName() string {
	return TableName
}

func fromDraft(id kernel.UUID, d order.Draft) OrderDTO {
	return OrderDTO{
		ID:           id.Bytes(),
		CardID:       d.CardID(),
		PartNumber:   d.PartNumber(),
		Description:  d.Description(),
		Location:     d.Location(),
		StandardPack: d.StandardPack(),
		Status:       d.Status().String(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.Restore(order.Record{
		ID:           id,
		CardID:       dto.CardID,
		PartNumber:   dto.PartNumber,
		Description:  dto.Description,
		Location:     dto.Location,
		StandardPack: dto.StandardPack,
		Status:       status,
		CreatedAt:    dto.Created,
		Timestamp:    dto.Timestamp,
		DispatchedAt: dto.DispatchedAt,
		DeliveredAt:  dto.DeliveredAt,
	})
}

func activeStatusNames() []string {
	names := make([]string, 0, len(order.ActiveStatuses))
	for _, s := range order.ActiveStatuses {
		names = append(names, s.String())
	}
	return names
}
