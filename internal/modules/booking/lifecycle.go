// README: Lifecycle controller; validates provider-driven status transitions
// and handles cancellation with the lead-time window rule.
package booking

import (
	"context"
	"log/slog"
	"time"

	"fixly/internal/notify"
	"fixly/internal/types"
)

// SessionEnder tears down the ancillary chat session for a booking. It is
// advisory cleanup: failures are logged, never surfaced.
type SessionEnder interface {
	EndSessionFor(ctx context.Context, bookingID types.ID) error
}

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	// RoleGateway is the service identity payment webhooks authenticate as.
	RoleGateway = "gateway"
)

type Lifecycle struct {
	store      Store
	dispatcher notify.Dispatcher
	chat       SessionEnder
	logger     *slog.Logger
	leadWindow time.Duration
	now        func() time.Time
}

func NewLifecycle(store Store, dispatcher notify.Dispatcher, chat SessionEnder, logger *slog.Logger, leadWindow time.Duration) *Lifecycle {
	return &Lifecycle{
		store:      store,
		dispatcher: dispatcher,
		chat:       chat,
		logger:     logger,
		leadWindow: leadWindow,
		now:        time.Now,
	}
}

// setStatusTargets are the states a provider may request directly. Assignment
// edges belong to the arbiter, arrived->in_progress to the verification gate,
// and cancellation goes through Cancel.
var setStatusTargets = map[ServiceStatus]bool{
	StatusStarted:   true,
	StatusEnRoute:   true,
	StatusArrived:   true,
	StatusCompleted: true,
}

func (l *Lifecycle) SetStatus(ctx context.Context, bookingID, actingProviderID types.ID, target ServiceStatus) (*Booking, error) {
	if !setStatusTargets[target] {
		return nil, ErrInvalidTransition
	}

	var (
		outBooking *Booking
		events     []notify.Event
	)
	err := l.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		events = nil
		b := tx.Booking()
		if !b.assignedTo(actingProviderID) {
			return ErrForbidden
		}
		if !CanTransition(b.ServiceStatus, target) {
			return ErrInvalidTransition
		}

		b.ServiceStatus = target
		if target == StatusCompleted {
			now := l.now().UTC()
			b.CompletedAt = &now
		}
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}

		events = append(events, statusEvent(b))
		if name, ok := semanticEvent(target); ok {
			events = append(events, customerEvent(name, b))
		}
		outBooking = b.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, l.dispatcher, l.logger, events)
	if outBooking.ServiceStatus == StatusCompleted {
		l.teardownChat(ctx, bookingID)
	}
	return outBooking, nil
}

// Cancel is permitted from any non-terminal state. Provider-initiated cancels
// are refused inside the lead window before the scheduled time; customer
// cancels are not (see DESIGN.md).
func (l *Lifecycle) Cancel(ctx context.Context, bookingID, actingUserID types.ID, role string) (*Booking, error) {
	if role != RoleCustomer && role != RoleProvider {
		return nil, ErrBadRequest
	}

	var (
		outBooking *Booking
		events     []notify.Event
	)
	err := l.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		events = nil
		b := tx.Booking()
		if b.terminal() {
			return ErrInvalidTransition
		}
		switch role {
		case RoleCustomer:
			if b.CustomerID != actingUserID {
				return ErrForbidden
			}
		case RoleProvider:
			if !b.assignedTo(actingUserID) {
				return ErrForbidden
			}
			if l.now().Add(l.leadWindow).After(b.ScheduledTime) {
				return ErrCancellationWindow
			}
		}

		now := l.now().UTC()
		wasAssigned := b.ProviderID != nil

		if wasAssigned {
			offers, err := tx.Offers(ctx)
			if err != nil {
				return err
			}
			if accepted := findAccepted(offers); accepted != nil {
				accepted.Status = OfferRejected
				accepted.Resolution = ResolutionCancelled
				accepted.RespondedAt = &now
				if err := tx.SaveOffer(ctx, accepted); err != nil {
					return err
				}
				events = append(events, offerEvent(notify.EventOfferUpdated, accepted))
			}
			reopened, err := reopenOutbid(ctx, tx, offers)
			if err != nil {
				return err
			}
			for _, sib := range reopened {
				events = append(events, offerEvent(notify.EventOfferReopened, sib))
			}
		}

		b.ProviderID = nil
		b.ServiceStatus = StatusCancelled
		// An outstanding verification code only lives while arrived.
		b.OTPCode = nil
		b.OTPExpiresAt = nil
		b.OTPAttempts = 0
		b.CancelledAt = &now
		b.CancelledBy = &role
		if b.PaymentStatus == PaymentPaid {
			b.PaymentStatus = PaymentRefunded
		}
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}

		events = append(events, statusEvent(b))
		events = append(events, customerEvent(notify.EventBookingCancelled, b))
		outBooking = b.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, l.dispatcher, l.logger, events)
	return outBooking, nil
}

func (l *Lifecycle) teardownChat(ctx context.Context, bookingID types.ID) {
	if l.chat == nil {
		return
	}
	if err := l.chat.EndSessionFor(ctx, bookingID); err != nil {
		l.logger.Warn("chat teardown failed", "booking_id", bookingID, "error", err)
	}
}

func findAccepted(offers []*Offer) *Offer {
	for _, o := range offers {
		if o.Status == OfferAccepted {
			return o
		}
	}
	return nil
}
