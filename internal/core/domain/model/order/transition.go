package order

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition marks a requested status change the lifecycle does not allow.
// It usually means the order already moved on; callers log it and write nothing.
var ErrInvalidTransition = errors.New("invalid order status transition")

// StampField names the timestamp a transition sets.
type StampField int

const (
	StampNone StampField = iota
	StampDispatchedAt
	StampDeliveredAt
)

func (f StampField) String() string {
	switch f {
	case StampDispatchedAt:
		return "dispatchedAt"
	case StampDeliveredAt:
		return "deliveredAt"
	default:
		return "none"
	}
}

// Transition is an accepted status change. From is the status the caller read;
// stores may condition their write on it.
type Transition struct {
	From  Status
	To    Status
	Stamp StampField
}

// InvalidTransitionError carries the rejected pair.
type InvalidTransitionError struct {
	From      Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

var transitions = map[Status]Transition{
	Pending:   {From: Pending, To: InTransit, Stamp: StampDispatchedAt},
	InTransit: {From: InTransit, To: Delivered, Stamp: StampDeliveredAt},
}

// NextStatus validates that requested is the single step after current.
// Skips, reversals, self-loops and anything leaving Delivered are rejected.
func NextStatus(current, requested Status) (Transition, error) {
	t, ok := transitions[current]
	if !ok || t.To != requested {
		return Transition{}, &InvalidTransitionError{From: current, Requested: requested}
	}
	return t, nil
}
