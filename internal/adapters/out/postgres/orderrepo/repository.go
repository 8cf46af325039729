package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/ports"
	"ekanban/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a pending order built from d and returns it with the id and
// the server-assigned times.
func (r *GormOrderRepository) Add(ctx context.Context, d order.Draft) (*order.Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	dto := fromDraft(kernel.NewUUID(), d)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateStatus writes the new status and stamps the transition's column with
// NOW(). Nothing else in the row is touched.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id kernel.UUID, t order.Transition) error {
	if err := id.Validate(); err != nil {
		return err
	}

	updates := map[string]any{"status": t.To.String()}
	switch t.Stamp {
	case order.StampDispatchedAt:
		updates["dispatched_at"] = gorm.Expr("NOW()")
	case order.StampDeliveredAt:
		updates["delivered_at"] = gorm.Expr("NOW()")
	case order.StampNone:
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", id.Bytes(), t.From.String()).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return r.missOrStale(ctx, id, t)
	}

	return nil
}

func (r *GormOrderRepository) missOrStale(ctx context.Context, id kernel.UUID, t order.Transition) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return fmt.Errorf("%w: %s expected %s", ports.ErrStaleStatus, id, t.From)
}

func (r *GormOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatusNames()).
		Order("timestamp DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
