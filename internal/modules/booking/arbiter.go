// README: Assignment arbiter; resolves the provider accept race to exactly
// one winner and keeps withdrawal symmetric with acceptance.
package booking

import (
	"context"
	"log/slog"
	"time"

	"fixly/internal/notify"
	"fixly/internal/types"
)

type Arbiter struct {
	store      Store
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

func NewArbiter(store Store, dispatcher notify.Dispatcher, logger *slog.Logger) *Arbiter {
	return &Arbiter{store: store, dispatcher: dispatcher, logger: logger}
}

// AcceptOffer is the accept-race entry point. Preconditions are re-checked
// inside the booking-row transaction so two concurrent accepts cannot both
// commit; the loser gets ErrLostRace, never a silent retry.
func (a *Arbiter) AcceptOffer(ctx context.Context, offerID, actingProviderID types.ID) (*Booking, *Offer, error) {
	off, err := a.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if off.ProviderID != actingProviderID {
		return nil, nil, ErrForbidden
	}

	var (
		outBooking *Booking
		outOffer   *Offer
		events     []notify.Event
	)
	err = a.store.WithBooking(ctx, off.BookingID, func(ctx context.Context, tx Tx) error {
		// The store may re-run the closure on tx retry.
		events = nil
		b := tx.Booking()
		offers, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		target := findOffer(offers, offerID)
		if target == nil {
			return ErrNotFound
		}
		if target.Status != OfferPending {
			return ErrAlreadyResolved
		}
		if b.ProviderID != nil {
			return ErrLostRace
		}
		if b.ServiceStatus != StatusPending {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		target.Status = OfferAccepted
		target.Resolution = ResolutionNone
		target.RespondedAt = &now
		if err := tx.SaveOffer(ctx, target); err != nil {
			return err
		}
		events = append(events, offerEvent(notify.EventOfferAccepted, target))

		for _, sib := range offers {
			if sib.ID == target.ID || sib.Status != OfferPending {
				continue
			}
			sib.Status = OfferRejected
			sib.Resolution = ResolutionOutbid
			sib.RespondedAt = &now
			if err := tx.SaveOffer(ctx, sib); err != nil {
				return err
			}
			events = append(events, offerEvent(notify.EventOfferRejected, sib))
		}

		b.ProviderID = &actingProviderID
		b.ServiceStatus = StatusAssigned
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		events = append(events, customerEvent(notify.EventBookingAssigned, b))

		outBooking = b.clone()
		outOffer = target.clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	emit(ctx, a.dispatcher, a.logger, events)
	return outBooking, outOffer, nil
}

// WithdrawAcceptedOffer reverses an acceptance before work starts: the
// booking returns to pending and every offer the acceptance auto-rejected is
// reopened. Offers a provider declined on purpose stay rejected.
func (a *Arbiter) WithdrawAcceptedOffer(ctx context.Context, offerID, actingProviderID types.ID) (*Booking, *Offer, error) {
	off, err := a.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if off.ProviderID != actingProviderID {
		return nil, nil, ErrForbidden
	}

	var (
		outBooking *Booking
		outOffer   *Offer
		events     []notify.Event
	)
	err = a.store.WithBooking(ctx, off.BookingID, func(ctx context.Context, tx Tx) error {
		events = nil
		b := tx.Booking()
		offers, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		target := findOffer(offers, offerID)
		if target == nil {
			return ErrNotFound
		}
		if target.Status != OfferAccepted {
			return ErrAlreadyResolved
		}
		if !b.assignedTo(actingProviderID) || b.ServiceStatus != StatusAssigned {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		target.Status = OfferRejected
		target.Resolution = ResolutionByProvider
		target.RespondedAt = &now
		if err := tx.SaveOffer(ctx, target); err != nil {
			return err
		}
		events = append(events, offerEvent(notify.EventOfferUpdated, target))

		reopened, err := reopenOutbid(ctx, tx, offers)
		if err != nil {
			return err
		}
		for _, sib := range reopened {
			events = append(events, offerEvent(notify.EventOfferReopened, sib))
		}

		b.ProviderID = nil
		b.ServiceStatus = StatusPending
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		events = append(events, customerEvent(notify.EventBookingUnassigned, b))

		outBooking = b.clone()
		outOffer = target.clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	emit(ctx, a.dispatcher, a.logger, events)
	return outBooking, outOffer, nil
}

// RejectOffer declines a single pending offer. No effect on siblings or the
// booking.
func (a *Arbiter) RejectOffer(ctx context.Context, offerID, actingProviderID types.ID) (*Offer, error) {
	off, err := a.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if off.ProviderID != actingProviderID {
		return nil, ErrForbidden
	}

	var outOffer *Offer
	err = a.store.WithBooking(ctx, off.BookingID, func(ctx context.Context, tx Tx) error {
		offers, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		target := findOffer(offers, offerID)
		if target == nil {
			return ErrNotFound
		}
		if target.Status != OfferPending {
			return ErrAlreadyResolved
		}
		now := time.Now().UTC()
		target.Status = OfferRejected
		target.Resolution = ResolutionByProvider
		target.RespondedAt = &now
		if err := tx.SaveOffer(ctx, target); err != nil {
			return err
		}
		outOffer = target.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outOffer, nil
}

func findOffer(offers []*Offer, id types.ID) *Offer {
	for _, o := range offers {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// reopenOutbid reverts offers rejected as a side effect of a prior acceptance
// back to pending and returns them.
func reopenOutbid(ctx context.Context, tx Tx, offers []*Offer) ([]*Offer, error) {
	var reopened []*Offer
	for _, o := range offers {
		if o.Status != OfferRejected || o.Resolution != ResolutionOutbid {
			continue
		}
		o.Status = OfferPending
		o.Resolution = ResolutionNone
		o.RespondedAt = nil
		if err := tx.SaveOffer(ctx, o); err != nil {
			return nil, err
		}
		reopened = append(reopened, o)
	}
	return reopened, nil
}
