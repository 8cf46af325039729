package queries

import (
	"context"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
)

// BoardSource provides the latest projected board.
type BoardSource interface {
	Board() projection.Board
}

// GetBoardQueryHandler renders boards from the live projection. It never
// touches the store.
type GetBoardQueryHandler struct {
	source   BoardSource
	clock    kernel.Clock
	location *time.Location
}

// NewGetBoardQueryHandler renders display times in location; nil means UTC.
func NewGetBoardQueryHandler(source BoardSource, clock kernel.Clock, location *time.Location) GetBoardQueryHandler {
	if location == nil {
		location = time.UTC
	}
	return GetBoardQueryHandler{source: source, clock: clock, location: location}
}

func (h GetBoardQueryHandler) Handle(_ context.Context, query GetBoardQuery) (GetBoardQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetBoardQueryResponse{}, err
	}

	return h.Render(h.source.Board()), nil
}

// Render converts board at the current clock reading. Streams use it for
// boards pushed by the projection.
func (h GetBoardQueryHandler) Render(board projection.Board) GetBoardQueryResponse {
	now := h.clock.Now()

	resp := GetBoardQueryResponse{
		Counts:      board.Counts,
		Locations:   make([]LocationResponse, 0, len(board.Locations)),
		Pending:     h.renderOrders(board.Pending, now),
		InTransit:   h.renderOrders(board.InTransit, now),
		Stale:       board.Stale,
		Seq:         board.Seq,
		GeneratedAt: now,
	}

	for _, name := range board.LocationNames() {
		status := board.Location(name)
		resp.Locations = append(resp.Locations, LocationResponse{
			Name:      name,
			Pending:   status.Pending,
			InTransit: status.InTransit,
		})
	}

	return resp
}

func (h GetBoardQueryHandler) renderOrders(orders []*order.Order, now time.Time) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderResponse{
			ID:           o.ID(),
			CardID:       o.CardID(),
			PartNumber:   o.PartNumber(),
			Description:  o.Description(),
			Location:     o.Location(),
			StandardPack: o.StandardPack(),
			Status:       o.Status(),
			Timestamp:    o.Timestamp(),
			DispatchedAt: o.DispatchedAt(),
			DisplayTime:  order.FormatDisplayTime(o.Timestamp(), h.location),
			Elapsed:      o.Elapsed(now),
			Urgent:       o.IsUrgent(now),
		})
	}
	return out
}
