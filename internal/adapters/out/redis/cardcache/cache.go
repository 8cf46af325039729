// Package cardcache is a Redis read-through cache in front of the card registry.
// Redis failures never fail a lookup; the registry is asked instead.
package cardcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "ekanban:card:"

func cardKey(id string) string {
	return keyPrefix + id
}

type cachedCard struct {
	ID           string          `json:"cardId"`
	PartNumber   string          `json:"partNumber"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	StandardPack decimal.Decimal `json:"standardPack"`
}

// Registry implements ports.CardRegistry and ports.CardWriter. Writes go to
// the backing writer and evict the cached entries.
type Registry struct {
	client  *redis.Client
	backend ports.CardRegistry
	writer  ports.CardWriter
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRegistry caches backend lookups for ttl. writer may be nil when the
// registry is read only.
func NewRegistry(client *redis.Client, backend ports.CardRegistry, writer ports.CardWriter, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		client:  client,
		backend: backend,
		writer:  writer,
		ttl:     ttl,
		logger:  logger.With("component", "card_cache"),
	}
}

func (r *Registry) Get(ctx context.Context, id string) (*card.Card, error) {
	key := card.NormalizeID(id)

	if c, ok := r.fromCache(ctx, key); ok {
		return c, nil
	}

	c, err := r.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	r.store(ctx, c)
	return c, nil
}

func (r *Registry) Upsert(ctx context.Context, cards []*card.Card) error {
	if r.writer == nil {
		return errors.New("card cache has no backing writer")
	}
	if err := r.writer.Upsert(ctx, cards); err != nil {
		return err
	}

	keys := make([]string, 0, len(cards))
	for _, c := range cards {
		keys = append(keys, cardKey(c.ID()))
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.logger.WarnContext(ctx, "Evicting cached cards failed", "error", err)
		}
	}
	return nil
}

func (r *Registry) fromCache(ctx context.Context, key string) (*card.Card, bool) {
	data, err := r.client.Get(ctx, cardKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Card cache read failed", "card_id", key, "error", err)
		return nil, false
	}

	var cc cachedCard
	if err = json.Unmarshal(data, &cc); err != nil {
		r.logger.WarnContext(ctx, "Dropping undecodable cached card", "card_id", key, "error", err)
		r.client.Del(ctx, cardKey(key))
		return nil, false
	}

	c, err := card.NewCard(cc.ID, cc.PartNumber, cc.Description, cc.Location, cc.StandardPack)
	if err != nil {
		r.logger.WarnContext(ctx, "Dropping invalid cached card", "card_id", key, "error", err)
		r.client.Del(ctx, cardKey(key))
		return nil, false
	}
	return c, true
}

func (r *Registry) store(ctx context.Context, c *card.Card) {
	data, err := json.Marshal(cachedCard{
		ID:           c.ID(),
		PartNumber:   c.PartNumber(),
		Description:  c.Description(),
		Location:     c.Location(),
		StandardPack: c.StandardPack(),
	})
	if err != nil {
		r.logger.WarnContext(ctx, "Encoding card for cache failed", "card_id", c.ID(), "error", err)
		return
	}

	if err = r.client.Set(ctx, cardKey(c.ID()), data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Card cache write failed", "card_id", c.ID(), "error", err)
	}
}

// Ping checks the connection; used at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
