// README: JSON projections of engine types returned by the API.
package http

import (
	"time"

	"fixly/internal/modules/booking"
	"fixly/internal/types"
)

type bookingView struct {
	ID            types.ID              `json:"id"`
	CustomerID    types.ID              `json:"customer_id"`
	ProviderID    *types.ID             `json:"provider_id,omitempty"`
	BookingType   booking.BookingType   `json:"booking_type"`
	ServiceStatus booking.ServiceStatus `json:"service_status"`
	PaymentStatus booking.PaymentStatus `json:"payment_status"`
	ScheduledTime time.Time             `json:"scheduled_time"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type offerView struct {
	ID          types.ID            `json:"id"`
	BookingID   types.ID            `json:"booking_id"`
	ProviderID  types.ID            `json:"provider_id"`
	Status      booking.OfferStatus `json:"status"`
	RequestedAt time.Time           `json:"requested_at"`
	RespondedAt *time.Time          `json:"responded_at,omitempty"`
}

func viewBooking(b *booking.Booking) bookingView {
	return bookingView{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		ProviderID:    b.ProviderID,
		BookingType:   b.BookingType,
		ServiceStatus: b.ServiceStatus,
		PaymentStatus: b.PaymentStatus,
		ScheduledTime: b.ScheduledTime,
		StartedAt:     b.StartedAt,
		CompletedAt:   b.CompletedAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func viewOffer(o *booking.Offer) offerView {
	return offerView{
		ID:          o.ID,
		BookingID:   o.BookingID,
		ProviderID:  o.ProviderID,
		Status:      o.Status,
		RequestedAt: o.RequestedAt,
		RespondedAt: o.RespondedAt,
	}
}

func viewOffers(offers []*booking.Offer) []offerView {
	out := make([]offerView, len(offers))
	for i, o := range offers {
		out[i] = viewOffer(o)
	}
	return out
}
