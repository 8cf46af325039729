package order

import (
	"fmt"
	"strings"

	"ekanban/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
//	Pending ──> InTransit ──> Delivered
//
// Pending and InTransit orders form the active working set.
type Status int

const (
	// Unknown catches uninitialized and corrupted values.
	Unknown Status = iota
	Pending
	InTransit
	Delivered
)

var statusNames = map[Status]string{
	Pending:   "PENDING",
	InTransit: "IN_TRANSIT",
	Delivered: "DELIVERED",
}

// ActiveStatuses is the filter of the live feed.
var ActiveStatuses = []Status{Pending, InTransit}

// ParseStatus maps the wire names back to a Status.
func ParseStatus(s string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name, or UNKNOWN for invalid values.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsActive reports whether orders in this status belong to the live feed.
func (s Status) IsActive() bool {
	return s == Pending || s == InTransit
}

func (s Status) IsTerminal() bool {
	return s == Delivered
}
