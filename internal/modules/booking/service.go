// README: Booking intake and offer fan-out; the hooks the surrounding system
// calls before arbitration takes over.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fixly/internal/notify"
	"fixly/internal/types"
)

// ProviderFinder lists providers currently open for work, nearest-first when
// a position is given.
type ProviderFinder interface {
	Nearby(ctx context.Context, p *types.Point, limit int) ([]types.ID, error)
}

type Service struct {
	store      Store
	providers  ProviderFinder
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	fanout     int
}

func NewService(store Store, providers ProviderFinder, dispatcher notify.Dispatcher, logger *slog.Logger, fanout int) *Service {
	return &Service{store: store, providers: providers, dispatcher: dispatcher, logger: logger, fanout: fanout}
}

type CreateCommand struct {
	CustomerID    types.ID
	BookingType   BookingType
	ScheduledTime time.Time
	Location      *types.Point
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.CustomerID == "" || cmd.ScheduledTime.IsZero() {
		return nil, ErrBadRequest
	}
	if cmd.BookingType != TypeRide && cmd.BookingType != TypeService {
		return nil, ErrBadRequest
	}
	active, err := s.store.HasActiveByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveBooking
	}

	now := time.Now().UTC()
	b := &Booking{
		ID:            newID(),
		CustomerID:    cmd.CustomerID,
		BookingType:   cmd.BookingType,
		ServiceStatus: StatusPending,
		PaymentStatus: PaymentPending,
		ScheduledTime: cmd.ScheduledTime,
		Location:      cmd.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	return b.clone(), nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *Service) ListProviderOffers(ctx context.Context, providerID types.ID) ([]*Offer, error) {
	return s.store.ListOffersByProvider(ctx, providerID)
}

// OpenOffers makes a pending booking eligible for arbitration by creating one
// pending offer per available provider. Providers already holding an offer
// for the booking (any status) are skipped, so re-running after a withdrawal
// only fills in newcomers.
func (s *Service) OpenOffers(ctx context.Context, bookingID types.ID) ([]*Offer, error) {
	candidates, err := s.findCandidates(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		created []*Offer
		events  []notify.Event
	)
	err = s.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		created, events = nil, nil
		b := tx.Booking()
		if b.ServiceStatus != StatusPending || b.ProviderID != nil {
			return ErrInvalidTransition
		}
		existing, err := tx.Offers(ctx)
		if err != nil {
			return err
		}
		seen := make(map[types.ID]bool, len(existing))
		for _, o := range existing {
			seen[o.ProviderID] = true
		}

		now := time.Now().UTC()
		for _, providerID := range candidates {
			if seen[providerID] {
				continue
			}
			o := &Offer{
				ID:          newID(),
				BookingID:   bookingID,
				ProviderID:  providerID,
				Status:      OfferPending,
				RequestedAt: now,
			}
			if err := tx.CreateOffer(ctx, o); err != nil {
				return err
			}
			created = append(created, o.clone())
			events = append(events, offerEvent(notify.EventOfferCreated, o))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, s.dispatcher, s.logger, events)
	return created, nil
}

// MarkPaid is the payment-gateway webhook hook.
func (s *Service) MarkPaid(ctx context.Context, bookingID types.ID) (*Booking, error) {
	var (
		outBooking *Booking
		events     []notify.Event
	)
	err := s.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		outBooking, events = nil, nil
		b := tx.Booking()
		if b.ServiceStatus == StatusCancelled {
			return ErrInvalidTransition
		}
		if b.PaymentStatus != PaymentPending {
			return nil // already settled; webhook retries are expected
		}
		b.PaymentStatus = PaymentPaid
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		events = append(events, notify.Event{
			Channel: notify.BookingChannel(b.ID),
			Name:    notify.EventPaymentReceived,
			Payload: bookingPayload{BookingID: b.ID, Status: b.ServiceStatus},
		})
		outBooking = b.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outBooking == nil {
		return s.store.GetBooking(ctx, bookingID)
	}

	emit(ctx, s.dispatcher, s.logger, events)
	return outBooking, nil
}

func (s *Service) findCandidates(ctx context.Context, bookingID types.ID) ([]types.ID, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.providers.Nearby(ctx, b.Location, s.fanout)
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}
