// Package cardseed loads the kanban card registry from a YAML file:
//
//	locations:
//	  - Bobinado 1
//	  - Horno
//	cards:
//	  - cardId: MAT-001
//	    partNumber: PN-100
//	    description: Copper wire 0.8mm
//	    location: Bobinado 1
//	    standardPack: 25
package cardseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"ekanban/internal/core/domain/model/card"
	"ekanban/internal/core/ports"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Quantity decodes scalars such as 25, 12.5 or "12.5" exactly.
type Quantity struct {
	decimal.Decimal
}

func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: standardPack must be a number", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: standardPack: %w", node.Line, err)
	}
	q.Decimal = d
	return nil
}

type cardEntry struct {
	CardID       string   `yaml:"cardId"`
	PartNumber   string   `yaml:"partNumber"`
	Description  string   `yaml:"description"`
	Location     string   `yaml:"location"`
	StandardPack Quantity `yaml:"standardPack"`
}

type file struct {
	Locations []string    `yaml:"locations"`
	Cards     []cardEntry `yaml:"cards"`
}

// Seed is a decoded seed file.
type Seed struct {
	Cards []*card.Card
	// Locations lists the declared locations followed by any other location
	// a card points at, without duplicates.
	Locations []string
}

// Parse decodes and validates data. Every invalid entry is reported.
func Parse(data []byte) (Seed, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Seed{}, fmt.Errorf("decode card seed: %w", err)
	}

	var (
		seed Seed
		errs []error
		seen = make(map[string]int, len(f.Cards))
	)
	for i, e := range f.Cards {
		c, err := card.NewCard(e.CardID, e.PartNumber, e.Description, e.Location, e.StandardPack.Decimal)
		if err != nil {
			errs = append(errs, fmt.Errorf("cards[%d]: %w", i, err))
			continue
		}
		if first, dup := seen[c.ID()]; dup {
			errs = append(errs, fmt.Errorf("cards[%d]: %s already defined at cards[%d]", i, c.ID(), first))
			continue
		}
		seen[c.ID()] = i
		seed.Cards = append(seed.Cards, c)
	}
	if err := errors.Join(errs...); err != nil {
		return Seed{}, err
	}

	seed.Locations = mergeLocations(f.Locations, seed.Cards)
	return seed, nil
}

func LoadFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return Parse(data)
}

// Apply upserts the seed's cards.
func Apply(ctx context.Context, writer ports.CardWriter, seed Seed, logger *slog.Logger) error {
	if err := writer.Upsert(ctx, seed.Cards); err != nil {
		return fmt.Errorf("upsert seeded cards: %w", err)
	}
	logger.InfoContext(ctx, "Card registry seeded", "component", "card_seed", "cards", len(seed.Cards))
	return nil
}

func mergeLocations(declared []string, cards []*card.Card) []string {
	out := make([]string, 0, len(declared))
	seen := make(map[string]bool, len(declared))
	for _, l := range declared {
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}

	var extra []string
	for _, c := range cards {
		if !seen[c.Location()] {
			seen[c.Location()] = true
			extra = append(extra, c.Location())
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
