package http

import (
	"time"

	"ekanban/internal/core/application/usecases/commands"
	"ekanban/internal/core/application/usecases/queries"

	"github.com/shopspring/decimal"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// FeedbackTTLSeconds is set on operator responses.
	FeedbackTTLSeconds int `json:"feedbackTtlSeconds,omitempty"`
}

func feedbackError(code int, message string) Error {
	return Error{Code: code, Message: message, FeedbackTTLSeconds: FeedbackTTLSeconds}
}

type CreateOrderRequest struct {
	CardID string `json:"cardId"`
}

type ConfirmationResponse struct {
	OrderID            string          `json:"orderId"`
	CardID             string          `json:"cardId"`
	PartNumber         string          `json:"partNumber"`
	Description        string          `json:"description"`
	Location           string          `json:"location"`
	StandardPack       decimal.Decimal `json:"standardPack"`
	Message            string          `json:"message"`
	FeedbackTTLSeconds int             `json:"feedbackTtlSeconds"`
}

func newConfirmationResponse(c commands.Confirmation) ConfirmationResponse {
	return ConfirmationResponse{
		OrderID:            c.OrderID.String(),
		CardID:             c.CardID,
		PartNumber:         c.PartNumber,
		Description:        c.Description,
		Location:           c.Location,
		StandardPack:       c.StandardPack,
		Message:            c.Message(),
		FeedbackTTLSeconds: FeedbackTTLSeconds,
	}
}

type AdvanceOrderResponse struct {
	OrderID   string `json:"orderId"`
	Requested string `json:"requested"`
}

type CountsResponse struct {
	Pending   int `json:"pending"`
	InTransit int `json:"inTransit"`
	Urgent    int `json:"urgent"`
}

type LocationResponse struct {
	Name      string `json:"name"`
	Pending   bool   `json:"pending"`
	InTransit bool   `json:"inTransit"`
}

type OrderResponse struct {
	ID             string          `json:"id"`
	CardID         string          `json:"cardId"`
	PartNumber     string          `json:"partNumber"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	StandardPack   decimal.Decimal `json:"standardPack"`
	Status         string          `json:"status"`
	Timestamp      *time.Time      `json:"timestamp"`
	DispatchedAt   *time.Time      `json:"dispatchedAt,omitempty"`
	DisplayTime    string          `json:"displayTime"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	Urgent         bool            `json:"urgent"`
}

type BoardResponse struct {
	Counts      CountsResponse     `json:"counts"`
	Locations   []LocationResponse `json:"locations"`
	Pending     []OrderResponse    `json:"pending"`
	InTransit   []OrderResponse    `json:"inTransit"`
	Stale       bool               `json:"stale"`
	Seq         uint64             `json:"seq"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

func newBoardResponse(b queries.GetBoardQueryResponse) BoardResponse {
	resp := BoardResponse{
		Counts: CountsResponse{
			Pending:   b.Counts.Pending,
			InTransit: b.Counts.InTransit,
			Urgent:    b.UrgentCount(),
		},
		Locations:   make([]LocationResponse, len(b.Locations)),
		Pending:     newOrderResponses(b.Pending),
		InTransit:   newOrderResponses(b.InTransit),
		Stale:       b.Stale,
		Seq:         b.Seq,
		GeneratedAt: b.GeneratedAt,
	}
	for i, l := range b.Locations {
		resp.Locations[i] = LocationResponse{Name: l.Name, Pending: l.Pending, InTransit: l.InTransit}
	}
	return resp
}

func newOrderResponses(orders []queries.OrderResponse) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = OrderResponse{
			ID:             o.ID.String(),
			CardID:         o.CardID,
			PartNumber:     o.PartNumber,
			Description:    o.Description,
			Location:       o.Location,
			StandardPack:   o.StandardPack,
			Status:         o.Status.String(),
			DispatchedAt:   o.DispatchedAt,
			DisplayTime:    o.DisplayTime,
			ElapsedSeconds: int64(o.Elapsed.Seconds()),
			Urgent:         o.Urgent,
		}
		if !o.Timestamp.IsZero() {
			ts := o.Timestamp
			out[i].Timestamp = &ts
		}
	}
	return out
}
