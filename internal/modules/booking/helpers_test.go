// README: Shared test fixtures for the engine tests.
package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fixly/internal/notify"
	"fixly/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder captures dispatched events in publish order.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(ctx context.Context, channel, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notify.Event{Channel: channel, Name: event, Payload: payload})
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// retryingStore runs every booking transaction twice, the way the Postgres
// store does after a deadlock: the first attempt's writes are discarded, then
// the closure runs again against fresh state.
type retryingStore struct {
	Store
}

func (s *retryingStore) WithBooking(ctx context.Context, id types.ID, fn func(ctx context.Context, tx Tx) error) error {
	discard := errors.New("discard first attempt")
	err := s.Store.WithBooking(ctx, id, func(ctx context.Context, tx Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return discard
	})
	if err != nil && !errors.Is(err, discard) {
		return err
	}
	return s.Store.WithBooking(ctx, id, fn)
}

type senderFunc func(ctx context.Context, contact, code string, bookingID types.ID) error

func (f senderFunc) SendVerificationCode(ctx context.Context, contact, code string, bookingID types.ID) error {
	return f(ctx, contact, code, bookingID)
}

// seedBooking inserts a pending booking with one pending offer per provider
// and returns the booking plus offers keyed by provider id.
func seedBooking(t *testing.T, store *MemoryStore, providerIDs ...types.ID) (*Booking, map[types.ID]*Offer) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	b := &Booking{
		ID:            newID(),
		CustomerID:    "c1",
		BookingType:   TypeService,
		ServiceStatus: StatusPending,
		PaymentStatus: PaymentPending,
		ScheduledTime: now.Add(24 * time.Hour),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	offers := make(map[types.ID]*Offer, len(providerIDs))
	for i, pid := range providerIDs {
		o := &Offer{
			ID:          newID(),
			BookingID:   b.ID,
			ProviderID:  pid,
			Status:      OfferPending,
			RequestedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		err := store.WithBooking(ctx, b.ID, func(ctx context.Context, tx Tx) error {
			return tx.CreateOffer(ctx, o)
		})
		if err != nil {
			t.Fatalf("create offer: %v", err)
		}
		offers[pid] = o
	}
	return b, offers
}

func getOffer(t *testing.T, store Store, id types.ID) *Offer {
	t.Helper()
	o, err := store.GetOffer(context.Background(), id)
	if err != nil {
		t.Fatalf("get offer: %v", err)
	}
	return o
}

func getBooking(t *testing.T, store Store, id types.ID) *Booking {
	t.Helper()
	b, err := store.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	return b
}

func assertServiceStatus(t *testing.T, store Store, id types.ID, want ServiceStatus) {
	t.Helper()
	if got := getBooking(t, store, id).ServiceStatus; got != want {
		t.Fatalf("service_status = %s, want %s", got, want)
	}
}
