// README: Store abstraction; every multi-row mutation runs through WithBooking.
package booking

import (
	"context"

	"fixly/internal/types"
)

// Tx is the per-booking transactional unit of work. The booking row is locked
// for the duration of the callback; offers for that booking may only be read
// or written through the same Tx so "exactly one accepted offer" stays atomic
// with provider_id/service_status.
type Tx interface {
	Booking() *Booking
	Offers(ctx context.Context) ([]*Offer, error)
	SaveBooking(ctx context.Context, b *Booking) error
	SaveOffer(ctx context.Context, o *Offer) error
	CreateOffer(ctx context.Context, o *Offer) error
}

type Store interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id types.ID) (*Booking, error)
	GetOffer(ctx context.Context, id types.ID) (*Offer, error)
	ListOffersByBooking(ctx context.Context, bookingID types.ID) ([]*Offer, error)
	ListOffersByProvider(ctx context.Context, providerID types.ID) ([]*Offer, error)
	HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error)

	// WithBooking runs fn inside a transaction holding the booking row lock.
	// Returning an error from fn rolls back everything staged through the Tx.
	WithBooking(ctx context.Context, bookingID types.ID, fn func(ctx context.Context, tx Tx) error) error
}
