package order

import (
	"errors"
	"fmt"
	"time"

	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrOrderIsNotConstructed = errors.New("Order must be created via Restore")

// Order is a stored replenishment request.
//
// Orders are only ever built by stores through Restore: the id, createdAt and
// timestamp are assigned server side. The card fields are the snapshot taken
// by the Draft and have no setters.
type Order struct {
	id           kernel.UUID
	cardID       string
	partNumber   string
	description  string
	location     string
	standardPack decimal.Decimal

	status       Status
	createdAt    time.Time
	timestamp    time.Time
	dispatchedAt *time.Time
	deliveredAt  *time.Time

	isConstructed bool
}

// Record is the flat form stores hand to Restore.
type Record struct {
	ID           kernel.UUID
	CardID       string
	PartNumber   string
	Description  string
	Location     string
	StandardPack decimal.Decimal
	Status       Status
	CreatedAt    time.Time
	Timestamp    time.Time
	DispatchedAt *time.Time
	DeliveredAt  *time.Time
}

// FromDraft combines a draft with the identity and times the store assigned.
func FromDraft(d Draft, id kernel.UUID, createdAt, timestamp time.Time) (*Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return Restore(Record{
		ID:           id,
		CardID:       d.cardID,
		PartNumber:   d.partNumber,
		Description:  d.description,
		Location:     d.location,
		StandardPack: d.standardPack,
		Status:       Pending,
		CreatedAt:    createdAt,
		Timestamp:    timestamp,
	})
}

// Restore rebuilds an order read from a store and checks that its stamps
// agree with its status.
func Restore(r Record) (*Order, error) {
	if err := errors.Join(
		r.ID.Validate(),
		r.Status.Validate(),
		requireText("cardId", r.CardID),
		requireText("location", r.Location),
		validateStamps(r.Status, r.DispatchedAt, r.DeliveredAt),
	); err != nil {
		return nil, err
	}

	return &Order{
		id:           r.ID,
		cardID:       r.CardID,
		partNumber:   r.PartNumber,
		description:  r.Description,
		location:     r.Location,
		standardPack: r.StandardPack,
		status:       r.Status,
		createdAt:    r.CreatedAt,
		timestamp:    r.Timestamp,
		dispatchedAt: copyTime(r.DispatchedAt),
		deliveredAt:  copyTime(r.DeliveredAt),

		isConstructed: true,
	}, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID               { return o.id }
func (o *Order) CardID() string                { return o.cardID }
func (o *Order) PartNumber() string            { return o.partNumber }
func (o *Order) Description() string           { return o.description }
func (o *Order) Location() string              { return o.location }
func (o *Order) StandardPack() decimal.Decimal { return o.standardPack }
func (o *Order) Status() Status                { return o.status }
func (o *Order) CreatedAt() time.Time          { return o.createdAt }

// Timestamp is the sort and urgency key. The zero value means the store has
// not echoed it back yet.
func (o *Order) Timestamp() time.Time { return o.timestamp }

func (o *Order) DispatchedAt() *time.Time { return copyTime(o.dispatchedAt) }
func (o *Order) DeliveredAt() *time.Time  { return copyTime(o.deliveredAt) }

// Record flattens the order for stores and transports.
func (o *Order) Record() Record {
	return Record{
		ID:           o.id,
		CardID:       o.cardID,
		PartNumber:   o.partNumber,
		Description:  o.description,
		Location:     o.location,
		StandardPack: o.standardPack,
		Status:       o.status,
		CreatedAt:    o.createdAt,
		Timestamp:    o.timestamp,
		DispatchedAt: copyTime(o.dispatchedAt),
		DeliveredAt:  copyTime(o.deliveredAt),
	}
}

// Advance moves the order one step toward requested and stamps the matching
// field with at. Rejected transitions leave the order untouched.
func (o *Order) Advance(requested Status, at time.Time) (Transition, error) {
	t, err := NextStatus(o.status, requested)
	if err != nil {
		return Transition{}, err
	}

	stamp := at
	switch t.Stamp {
	case StampDispatchedAt:
		o.dispatchedAt = &stamp
	case StampDeliveredAt:
		o.deliveredAt = &stamp
	case StampNone:
	}
	o.status = t.To
	return t, nil
}

// IsUrgent reports whether the order is a pending request older than UrgencyThreshold.
func (o *Order) IsUrgent(now time.Time) bool {
	return IsUrgent(o.status, o.timestamp, now)
}

// Elapsed is the age of the request, or zero while the timestamp is unresolved.
func (o *Order) Elapsed(now time.Time) time.Duration {
	if o.timestamp.IsZero() {
		return 0
	}
	return now.Sub(o.timestamp)
}

func validateStamps(s Status, dispatchedAt, deliveredAt *time.Time) error {
	var err error
	switch s {
	case Pending:
		if dispatchedAt != nil || deliveredAt != nil {
			err = errors.New("pending orders carry no transition stamps")
		}
	case InTransit:
		if dispatchedAt == nil || deliveredAt != nil {
			err = errors.New("in-transit orders carry only dispatchedAt")
		}
	case Delivered:
		if dispatchedAt == nil || deliveredAt == nil {
			err = errors.New("delivered orders carry dispatchedAt and deliveredAt")
		}
	case Unknown:
	}
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("stamps", fmt.Errorf("%s: %w", s, err))
	}
	return nil
}

func requireText(param, v string) error {
	if v == "" {
		return errs.NewValueIsRequiredError(param)
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
