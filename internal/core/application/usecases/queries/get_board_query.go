// Package queries holds the read side: views computed from the live
// projection at request time.
package queries

import (
	"errors"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetBoardQueryIsNotConstructed = errors.New(
	"GetBoardQuery must be created via NewGetBoardQuery constructor",
)

// GetBoardQuery reads the dispatcher's board: counts, the site map and both
// columns with urgency and display times resolved at the query time.
//
// Example:
//
//	query := NewGetBoardQuery()
//	handler := NewGetBoardQueryHandler(liveProjection, clock, location)
//
//	board, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d pending, %d in transit\n", board.Counts.Pending, board.Counts.InTransit)
type GetBoardQuery struct {
	guard guard.ConstructorGuard
}

func NewGetBoardQuery() GetBoardQuery {
	return GetBoardQuery{guard: guard.NewConstructorGuard()}
}

func (q GetBoardQuery) Validate() error {
	return q.guard.Validate(ErrGetBoardQueryIsNotConstructed)
}

type GetBoardQueryResponse struct {
	Counts      projection.Counts
	Locations   []LocationResponse
	Pending     []OrderResponse
	InTransit   []OrderResponse
	Stale       bool
	Seq         uint64
	GeneratedAt time.Time
}

type LocationResponse struct {
	Name      string
	Pending   bool
	InTransit bool
}

type OrderResponse struct {
	ID           kernel.UUID
	CardID       string
	PartNumber   string
	Description  string
	Location     string
	StandardPack decimal.Decimal
	Status       order.Status
	Timestamp    time.Time
	DispatchedAt *time.Time
	// DisplayTime is HH:MM in the plant's time zone, or "--:--" until the store echoes the timestamp.
	DisplayTime string
	Elapsed     time.Duration
	Urgent      bool
}

// UrgentCount counts the urgent entries of the pending column.
func (r GetBoardQueryResponse) UrgentCount() int {
	n := 0
	for _, o := range r.Pending {
		if o.Urgent {
			n++
		}
	}
	return n
}
