// README: Notification dispatcher capability; injected into services, never
// reached through ambient globals.
package notify

import (
	"context"
	"fmt"

	"fixly/internal/types"
)

// Dispatcher fans state-change events out to named channels. Delivery is
// best-effort; callers log failures and continue.
type Dispatcher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// Event is a pending publication collected inside a transaction and emitted
// after commit, in order.
type Event struct {
	Channel string
	Name    string
	Payload any
}

const (
	EventOfferCreated      = "offer_created"
	EventOfferAccepted     = "offer_accepted"
	EventOfferRejected     = "offer_rejected"
	EventOfferUpdated      = "offer_updated"
	EventOfferReopened     = "offer_reopened"
	EventBookingAssigned   = "booking_assigned"
	EventBookingUnassigned = "booking_unassigned"
	EventBookingCancelled  = "booking_cancelled"
	EventStatusUpdate      = "status_update"
	EventTripStarted       = "trip_started"
	EventTripCompleted     = "trip_completed"
	EventDriverArrived     = "driver_arrived"
	EventDriverEnRoute     = "driver_en_route"
	EventProviderDeparted  = "provider_departed"
	EventPaymentReceived   = "payment_received"
)

func CustomerChannel(id types.ID) string { return fmt.Sprintf("customer:%s", id) }
func ProviderChannel(id types.ID) string { return fmt.Sprintf("provider:%s", id) }
func BookingChannel(id types.ID) string  { return fmt.Sprintf("booking:%s", id) }

// Func adapts a function to the Dispatcher interface; handy in tests.
type Func func(ctx context.Context, channel, event string, payload any) error

func (f Func) Publish(ctx context.Context, channel, event string, payload any) error {
	return f(ctx, channel, event, payload)
}
