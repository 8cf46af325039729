// Package order implements the replenishment order aggregate and its lifecycle.
//
// The package includes:
//   - Status: PENDING -> IN_TRANSIT -> DELIVERED, forward only
//   - NextStatus: the transition table, which also names the timestamp each step stamps
//   - Draft: the denormalized card snapshot handed to a store for creation
//   - Order: the stored aggregate, rebuilt by stores through Restore
//   - IsUrgent and FormatDisplayTime: pure functions of wall-clock time and the
//     order's immutable timestamp
//
// Key business rules:
//   - an order copies its card fields at creation and never re-reads the card
//   - each transition moves exactly one step and stamps exactly one field, once
//   - only pending orders older than UrgencyThreshold are urgent
package order
