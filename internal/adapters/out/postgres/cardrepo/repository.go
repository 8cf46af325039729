package cardrepo

import (
	"context"
	"errors"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCardRepository implements ports.CardRegistry and ports.CardWriter.
type GormCardRepository struct {
	db *gorm.DB
}

func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// Get looks a card up by its normalized identifier.
func (r *GormCardRepository) Get(ctx context.Context, id string) (*card.Card, error) {
	key := card.NormalizeID(id)
	if key == "" {
		return nil, errs.NewValueIsRequiredError("cardId")
	}

	var dto CardDTO
	if err := r.db.WithContext(ctx).First(&dto, "card_id = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("card", key)
		}
		return nil, err
	}

	return toDomain(dto)
}

// Upsert inserts cards or overwrites the registered ones. Existing orders keep
// the values they copied.
func (r *GormCardRepository) Upsert(ctx context.Context, cards []*card.Card) error {
	if len(cards) == 0 {
		return nil
	}

	dtos := make([]CardDTO, 0, len(cards))
	for _, c := range cards {
		if err := c.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, fromDomain(c))
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_id"}},
			UpdateAll: true,
		}).
		Create(&dtos).Error
}
