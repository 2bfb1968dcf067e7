// README: Post-commit event emission; order follows the order events were
// collected inside the transaction (offer events before booking events).
package booking

import (
	"context"
	"log/slog"

	"fixly/internal/notify"
	"fixly/internal/types"
)

func emit(ctx context.Context, d notify.Dispatcher, logger *slog.Logger, events []notify.Event) {
	for _, e := range events {
		if err := d.Publish(ctx, e.Channel, e.Name, e.Payload); err != nil {
			logger.Warn("notification dispatch failed",
				"channel", e.Channel, "event", e.Name, "error", err)
		}
	}
}

type offerPayload struct {
	OfferID   types.ID    `json:"offer_id"`
	BookingID types.ID    `json:"booking_id"`
	Status    OfferStatus `json:"status"`
}

type bookingPayload struct {
	BookingID  types.ID      `json:"booking_id"`
	Status     ServiceStatus `json:"status"`
	ProviderID *types.ID     `json:"provider_id,omitempty"`
}

func offerEvent(name string, o *Offer) notify.Event {
	return notify.Event{
		Channel: notify.ProviderChannel(o.ProviderID),
		Name:    name,
		Payload: offerPayload{OfferID: o.ID, BookingID: o.BookingID, Status: o.Status},
	}
}

func customerEvent(name string, b *Booking) notify.Event {
	return notify.Event{
		Channel: notify.CustomerChannel(b.CustomerID),
		Name:    name,
		Payload: bookingPayload{BookingID: b.ID, Status: b.ServiceStatus, ProviderID: b.ProviderID},
	}
}

func statusEvent(b *Booking) notify.Event {
	return notify.Event{
		Channel: notify.BookingChannel(b.ID),
		Name:    notify.EventStatusUpdate,
		Payload: bookingPayload{BookingID: b.ID, Status: b.ServiceStatus, ProviderID: b.ProviderID},
	}
}

// semanticEvent names fine-grained states so clients need not infer meaning
// from the generic status_update.
func semanticEvent(status ServiceStatus) (string, bool) {
	switch status {
	case StatusStarted:
		return notify.EventProviderDeparted, true
	case StatusEnRoute:
		return notify.EventDriverEnRoute, true
	case StatusArrived:
		return notify.EventDriverArrived, true
	case StatusInProgress:
		return notify.EventTripStarted, true
	case StatusCompleted:
		return notify.EventTripCompleted, true
	case StatusCancelled:
		return notify.EventBookingCancelled, true
	}
	return "", false
}
