// README: In-process store with per-booking locking; mirrors the Postgres
// commit semantics so engine tests run without a database.
package booking

import (
	"context"
	"sort"
	"sync"

	"fixly/internal/types"
)

type MemoryStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	offers   map[types.ID]*Offer
	locks    map[types.ID]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[types.ID]*Booking),
		offers:   make(map[types.ID]*Offer),
		locks:    make(map[types.ID]*sync.Mutex),
	}
}

func (s *MemoryStore) CreateBooking(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b.clone()
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.clone(), nil
}

func (s *MemoryStore) GetOffer(ctx context.Context, id types.ID) (*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.clone(), nil
}

func (s *MemoryStore) ListOffersByBooking(ctx context.Context, bookingID types.ID) ([]*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offersFor(bookingID), nil
}

func (s *MemoryStore) ListOffersByProvider(ctx context.Context, providerID types.ID) ([]*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Offer
	for _, o := range s.offers {
		if o.ProviderID == providerID {
			out = append(out, o.clone())
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *MemoryStore) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.CustomerID == customerID && !b.terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) WithBooking(ctx context.Context, bookingID types.ID, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	if _, exists := s.bookings[bookingID]; !exists {
		s.mu.Unlock()
		return ErrNotFound
	}
	lock, ok := s.locks[bookingID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[bookingID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	tx := &memTx{
		store:   s,
		booking: s.bookings[bookingID].clone(),
		staged:  make(map[types.ID]*Offer),
	}
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.savedBooking != nil {
		s.bookings[bookingID] = tx.savedBooking.clone()
	}
	for id, o := range tx.staged {
		s.offers[id] = o.clone()
	}
	return nil
}

func (s *MemoryStore) offersFor(bookingID types.ID) []*Offer {
	var out []*Offer
	for _, o := range s.offers {
		if o.BookingID == bookingID {
			out = append(out, o.clone())
		}
	}
	sortOffers(out)
	return out
}

func sortOffers(offers []*Offer) {
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].RequestedAt.Equal(offers[j].RequestedAt) {
			return offers[i].ID < offers[j].ID
		}
		return offers[i].RequestedAt.Before(offers[j].RequestedAt)
	})
}

type memTx struct {
	store        *MemoryStore
	booking      *Booking
	savedBooking *Booking
	staged       map[types.ID]*Offer
}

func (t *memTx) Booking() *Booking { return t.booking }

func (t *memTx) Offers(ctx context.Context) ([]*Offer, error) {
	t.store.mu.Lock()
	offers := t.store.offersFor(t.booking.ID)
	t.store.mu.Unlock()
	for i, o := range offers {
		if staged, ok := t.staged[o.ID]; ok {
			offers[i] = staged.clone()
		}
	}
	return offers, nil
}

func (t *memTx) SaveBooking(ctx context.Context, b *Booking) error {
	t.savedBooking = b.clone()
	return nil
}

func (t *memTx) SaveOffer(ctx context.Context, o *Offer) error {
	t.staged[o.ID] = o.clone()
	return nil
}

func (t *memTx) CreateOffer(ctx context.Context, o *Offer) error {
	t.staged[o.ID] = o.clone()
	return nil
}
