package projection_test

import (
	"testing"
	"time"

	"ekanban/internal/core/application/projection"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 5, 12, 14, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, location string, status order.Status, ts time.Time) *order.Order {
	t.Helper()
	r := order.Record{
		ID:           kernel.NewUUID(),
		CardID:       "MAT-001",
		PartNumber:   "PN-100",
		Description:  "Copper wire",
		Location:     location,
		StandardPack: decimal.NewFromInt(25),
		Status:       status,
		CreatedAt:    ts,
		Timestamp:    ts,
	}
	if status == order.InTransit || status == order.Delivered {
		at := ts.Add(time.Minute)
		r.DispatchedAt = &at
	}
	if status == order.Delivered {
		at := ts.Add(2 * time.Minute)
		r.DeliveredAt = &at
	}
	o, err := order.Restore(r)
	require.NoError(t, err)
	return o
}

func TestProject_Counts(t *testing.T) {
	var orders []*order.Order
	for range 3 {
		orders = append(orders, newOrder(t, "Bobinado 1", order.Pending, base))
	}
	for range 2 {
		orders = append(orders, newOrder(t, "Horno", order.InTransit, base))
	}

	board := projection.Project(orders, nil)

	assert.Equal(t, projection.Counts{Pending: 3, InTransit: 2}, board.Counts)
	assert.Len(t, board.Pending, 3)
	assert.Len(t, board.InTransit, 2)
}

func TestProject_IgnoresDeliveredAndNil(t *testing.T) {
	orders := []*order.Order{
		newOrder(t, "Horno", order.Delivered, base),
		nil,
		newOrder(t, "Horno", order.Pending, base),
	}

	board := projection.Project(orders, []string{"Horno"})

	assert.Equal(t, projection.Counts{Pending: 1}, board.Counts)
	assert.Equal(t, projection.LocationStatus{Pending: true}, board.Location("Horno"))
}

func TestProject_LocationFlags(t *testing.T) {
	t.Run("pending and in transit at the same location set both flags", func(t *testing.T) {
		orders := []*order.Order{
			newOrder(t, "Bobinado 1", order.Pending, base),
			newOrder(t, "Bobinado 1", order.InTransit, base),
		}

		board := projection.Project(orders, nil)

		assert.Equal(t, projection.LocationStatus{Pending: true, InTransit: true}, board.Location("Bobinado 1"))
	})

	t.Run("known locations without orders are neutral", func(t *testing.T) {
		board := projection.Project(nil, []string{"Bobinado 1", "Horno"})

		assert.True(t, board.Location("Horno").IsNeutral())
		assert.Equal(t, []string{"Bobinado 1", "Horno"}, board.LocationNames())
	})

	t.Run("unknown locations read as neutral", func(t *testing.T) {
		board := projection.Project(nil, nil)

		assert.True(t, board.Location("Nowhere").IsNeutral())
	})

	t.Run("locations seen in orders are added to the map", func(t *testing.T) {
		board := projection.Project([]*order.Order{newOrder(t, "Pintura", order.Pending, base)}, []string{"Horno"})

		assert.Equal(t, []string{"Horno", "Pintura"}, board.LocationNames())
	})
}

func TestProject_PreservesFeedOrder(t *testing.T) {
	newest := newOrder(t, "A", order.Pending, base.Add(2*time.Minute))
	middle := newOrder(t, "B", order.InTransit, base.Add(time.Minute))
	oldest := newOrder(t, "C", order.Pending, base)

	board := projection.Project([]*order.Order{newest, middle, oldest}, nil)

	require.Len(t, board.Pending, 2)
	assert.True(t, board.Pending[0].IsEqual(newest))
	assert.True(t, board.Pending[1].IsEqual(oldest))
	assert.Len(t, board.Active(), 3)
}

func TestBoard_Urgent(t *testing.T) {
	old := newOrder(t, "A", order.Pending, base)
	fresh := newOrder(t, "B", order.Pending, base.Add(10*time.Minute))
	moving := newOrder(t, "C", order.InTransit, base)

	board := projection.Project([]*order.Order{fresh, old, moving}, nil)
	urgent := board.Urgent(base.Add(16 * time.Minute))

	require.Len(t, urgent, 1)
	assert.True(t, urgent[0].IsEqual(old))
}

func TestProject_IsRecomputedFromScratch(t *testing.T) {
	withOrder := projection.Project([]*order.Order{newOrder(t, "Horno", order.Pending, base)}, []string{"Horno"})
	empty := projection.Project(nil, []string{"Horno"})

	assert.True(t, withOrder.Location("Horno").Pending)
	assert.True(t, empty.Location("Horno").IsNeutral())
	assert.Zero(t, empty.Counts)
}

