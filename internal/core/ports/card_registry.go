package ports

import (
	"context"

	"ekanban/internal/core/domain/model/card"
)

// CardRegistry is the read-only reference data lookup.
type CardRegistry interface {
	// Get returns the card for id, or an errs.ObjectNotFoundError.
	Get(ctx context.Context, id string) (*card.Card, error)
}

// CardWriter loads reference data. Only the seed loader uses it; the core
// never writes cards.
type CardWriter interface {
	Upsert(ctx context.Context, cards []*card.Card) error
}
