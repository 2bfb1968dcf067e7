// README: Intake and offer fan-out tests.
package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixly/internal/notify"
	"fixly/internal/types"
)

type staticFinder []types.ID

func (f staticFinder) Nearby(ctx context.Context, p *types.Point, limit int) ([]types.ID, error) {
	if len(f) > limit {
		return f[:limit], nil
	}
	return f, nil
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, staticFinder{}, &recorder{}, testLogger(), 5)

	b, err := svc.Create(ctx, CreateCommand{
		CustomerID:    "c1",
		BookingType:   TypeService,
		ScheduledTime: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ServiceStatus != StatusPending || b.PaymentStatus != PaymentPending {
		t.Fatalf("fresh booking: %+v", b)
	}
	if b.ProviderID != nil {
		t.Fatalf("fresh booking already assigned")
	}

	// One active booking per customer.
	_, err = svc.Create(ctx, CreateCommand{
		CustomerID:    "c1",
		BookingType:   TypeRide,
		ScheduledTime: time.Now().Add(72 * time.Hour),
	})
	if !errors.Is(err, ErrActiveBooking) {
		t.Fatalf("second create: err = %v, want ErrActiveBooking", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), staticFinder{}, &recorder{}, testLogger(), 5)
	cases := []CreateCommand{
		{CustomerID: "", BookingType: TypeRide, ScheduledTime: time.Now()},
		{CustomerID: "c1", BookingType: "limo", ScheduledTime: time.Now()},
		{CustomerID: "c1", BookingType: TypeRide},
	}
	for i, cmd := range cases {
		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("case %d: err = %v, want ErrBadRequest", i, err)
		}
	}
}

func TestOpenOffersFansOutToAvailableProviders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := &recorder{}
	svc := NewService(store, staticFinder{"p1", "p2", "p3"}, rec, testLogger(), 2)

	b, err := svc.Create(ctx, CreateCommand{
		CustomerID:    "c1",
		BookingType:   TypeService,
		ScheduledTime: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created, err := svc.OpenOffers(ctx, b.ID)
	if err != nil {
		t.Fatalf("open offers: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("fan-out created %d offers, want 2 (capped)", len(created))
	}
	for _, o := range created {
		if o.Status != OfferPending || o.BookingID != b.ID {
			t.Fatalf("created offer: %+v", o)
		}
	}
	names := rec.names()
	if n := count(names, notify.EventOfferCreated); n != 2 {
		t.Fatalf("offer_created events = %d, want 2", n)
	}

	// Re-running only fills in providers without an existing offer.
	again, err := svc.OpenOffers(ctx, b.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-run created %d duplicate offers", len(again))
	}
}

func TestOpenOffersRejectsAssignedBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, staticFinder{"p2"}, &recorder{}, testLogger(), 5)

	b, offers := seedBooking(t, store, "p1")
	acceptFor(t, store, offers, "p1")

	if _, err := svc.OpenOffers(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, staticFinder{}, &recorder{}, testLogger(), 5)

	b, _ := seedBooking(t, store, "p1")
	first, err := svc.MarkPaid(ctx, b.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if first.PaymentStatus != PaymentPaid {
		t.Fatalf("payment_status = %s, want paid", first.PaymentStatus)
	}
	// Gateway webhooks retry; the second call is a no-op, not an error.
	second, err := svc.MarkPaid(ctx, b.ID)
	if err != nil {
		t.Fatalf("retry mark paid: %v", err)
	}
	if second.PaymentStatus != PaymentPaid {
		t.Fatalf("retry payment_status = %s, want paid", second.PaymentStatus)
	}
}

func TestMarkPaidRefusesCancelledBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, staticFinder{}, &recorder{}, testLogger(), 5)
	lc := NewLifecycle(store, &recorder{}, nil, testLogger(), 2*time.Hour)

	b, _ := seedBooking(t, store, "p1")
	if _, err := lc.Cancel(ctx, b.ID, b.CustomerID, RoleCustomer); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// A payment landing after cancellation has no refund path; bounce it back
	// to the gateway instead of recording it.
	if _, err := svc.MarkPaid(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if got := getBooking(t, store, b.ID); got.PaymentStatus != PaymentPending {
		t.Fatalf("payment_status = %s, want pending", got.PaymentStatus)
	}
}

func count(names []string, name string) int {
	n := 0
	for _, s := range names {
		if s == name {
			n++
		}
	}
	return n
}
