// Package projection turns active-order snapshots into the views the
// dispatch board needs: per-status counts, per-location flags for the site
// map, and the pending / in-transit columns.
//
// Every snapshot is projected from scratch; nothing is carried over from the
// previous one.
package projection

import (
	"sort"
	"time"

	"ekanban/internal/core/domain/model/order"
)

// Counts are the per-status totals of the active snapshot.
type Counts struct {
	Pending   int
	InTransit int
}

// LocationStatus flags a site-map location. The zero value is the neutral state.
type LocationStatus struct {
	Pending   bool
	InTransit bool
}

func (s LocationStatus) IsNeutral() bool {
	return !s.Pending && !s.InTransit
}

// Board is one projected snapshot. Boards are shared between readers and
// must be treated as read-only.
type Board struct {
	Counts    Counts
	Locations map[string]LocationStatus
	Pending   []*order.Order
	InTransit []*order.Order

	// Stale is set while the feed is disrupted or a snapshot could not be projected.
	Stale bool
	// Seq increases with every projected snapshot.
	Seq uint64
}

// Project derives a Board from orders, which must already be in feed order.
// Every name in knownLocations appears in Locations, neutral when no active
// order targets it. Nil and non-active entries are ignored.
func Project(orders []*order.Order, knownLocations []string) Board {
	b := Board{
		Locations: make(map[string]LocationStatus, len(knownLocations)),
		Pending:   make([]*order.Order, 0),
		InTransit: make([]*order.Order, 0),
	}
	for _, name := range knownLocations {
		b.Locations[name] = LocationStatus{}
	}

	for _, o := range orders {
		if o == nil {
			continue
		}
		loc := b.Locations[o.Location()]
		switch o.Status() {
		case order.Pending:
			b.Counts.Pending++
			b.Pending = append(b.Pending, o)
			loc.Pending = true
		case order.InTransit:
			b.Counts.InTransit++
			b.InTransit = append(b.InTransit, o)
			loc.InTransit = true
		case order.Unknown, order.Delivered:
			continue
		}
		b.Locations[o.Location()] = loc
	}

	return b
}

// Location returns the flags for name; unknown names are neutral.
func (b Board) Location(name string) LocationStatus {
	return b.Locations[name]
}

// LocationNames lists the site-map locations in a stable order.
func (b Board) LocationNames() []string {
	names := make([]string, 0, len(b.Locations))
	for name := range b.Locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns pending then in-transit orders.
func (b Board) Active() []*order.Order {
	active := make([]*order.Order, 0, len(b.Pending)+len(b.InTransit))
	active = append(active, b.Pending...)
	return append(active, b.InTransit...)
}

// Urgent returns the pending orders that are urgent at now, in feed order.
func (b Board) Urgent(now time.Time) []*order.Order {
	var urgent []*order.Order
	for _, o := range b.Pending {
		if o.IsUrgent(now) {
			urgent = append(urgent, o)
		}
	}
	return urgent
}
