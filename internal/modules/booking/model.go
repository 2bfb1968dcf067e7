// README: Booking aggregate, status enums, and the service-status transition table.
package booking

import (
	"time"

	"fixly/internal/types"
)

type ServiceStatus string

const (
	StatusPending    ServiceStatus = "pending"
	StatusAssigned   ServiceStatus = "assigned"
	StatusStarted    ServiceStatus = "started"
	StatusEnRoute    ServiceStatus = "en_route"
	StatusArrived    ServiceStatus = "arrived"
	StatusInProgress ServiceStatus = "in_progress"
	StatusCompleted  ServiceStatus = "completed"
	StatusCancelled  ServiceStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type BookingType string

const (
	TypeRide    BookingType = "ride"
	TypeService BookingType = "service"
)

type Booking struct {
	ID            types.ID
	CustomerID    types.ID
	ProviderID    *types.ID
	BookingType   BookingType
	ServiceStatus ServiceStatus
	PaymentStatus PaymentStatus
	ScheduledTime time.Time
	Location      *types.Point
	OTPCode       *string
	OTPExpiresAt  *time.Time
	OTPAttempts   int
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelledBy   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AllowedTransitions represents the booking state flow (diagram) as code.
// pending<->assigned edges belong to the arbiter, arrived->in_progress to the
// verification gate; SetStatus enforces that split on top of this table.
var AllowedTransitions = map[ServiceStatus][]ServiceStatus{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusPending, StatusStarted, StatusEnRoute, StatusCancelled},
	StatusStarted:    {StatusArrived, StatusCancelled},
	StatusEnRoute:    {StatusArrived, StatusCancelled},
	StatusArrived:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to ServiceStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (b *Booking) assignedTo(providerID types.ID) bool {
	return b.ProviderID != nil && *b.ProviderID == providerID
}

func (b *Booking) terminal() bool {
	return b.ServiceStatus == StatusCompleted || b.ServiceStatus == StatusCancelled
}

func (b *Booking) clone() *Booking {
	c := *b
	c.ProviderID = clonePtr(b.ProviderID)
	c.Location = clonePtr(b.Location)
	c.OTPCode = clonePtr(b.OTPCode)
	c.OTPExpiresAt = clonePtr(b.OTPExpiresAt)
	c.StartedAt = clonePtr(b.StartedAt)
	c.CompletedAt = clonePtr(b.CompletedAt)
	c.CancelledAt = clonePtr(b.CancelledAt)
	c.CancelledBy = clonePtr(b.CancelledBy)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
