// README: Postgres store backed by pgx; FOR UPDATE row lock plus bounded retry.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fixly/internal/types"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Deadlocks and serialization failures are expected under the accept race and
// retried transparently.
const maxTxAttempts = 3

const bookingColumns = `
	id, customer_id, provider_id, booking_type, service_status, payment_status,
	scheduled_time, location_lat, location_lng,
	otp_code, otp_expires_at, otp_attempts,
	started_at, completed_at, cancelled_at, cancelled_by,
	created_at, updated_at`

const offerColumns = `
	id, booking_id, provider_id, status, resolution, requested_at, responded_at`

func (s *PostgresStore) CreateBooking(ctx context.Context, b *Booking) error {
	var lat, lng *float64
	if b.Location != nil {
		lat, lng = &b.Location.Lat, &b.Location.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, customer_id, provider_id, booking_type, service_status, payment_status,
			scheduled_time, location_lat, location_lng, otp_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(b.ID), string(b.CustomerID), idPtr(b.ProviderID),
		string(b.BookingType), string(b.ServiceStatus), string(b.PaymentStatus),
		b.ScheduledTime, lat, lng, b.OTPAttempts, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetBooking(ctx context.Context, id types.ID) (*Booking, error) {
	return scanBooking(s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id)))
}

func (s *PostgresStore) GetOffer(ctx context.Context, id types.ID) (*Offer, error) {
	return scanOffer(s.db.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, string(id)))
}

func (s *PostgresStore) ListOffersByBooking(ctx context.Context, bookingID types.ID) ([]*Offer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE booking_id = $1 ORDER BY requested_at, id`,
		string(bookingID))
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (s *PostgresStore) ListOffersByProvider(ctx context.Context, providerID types.ID) ([]*Offer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE provider_id = $1 ORDER BY requested_at, id`,
		string(providerID))
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (s *PostgresStore) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE customer_id = $1
			  AND service_status NOT IN ('completed', 'cancelled')
		)`, string(customerID)).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) WithBooking(ctx context.Context, bookingID types.ID, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.runLocked(ctx, bookingID, fn)
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (s *PostgresStore) runLocked(ctx context.Context, bookingID types.ID, fn func(ctx context.Context, tx Tx) error) error {
	pgtx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer pgtx.Rollback(ctx)

	b, err := scanBooking(pgtx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, string(bookingID)))
	if err != nil {
		return err
	}

	if err := fn(ctx, &pgTx{tx: pgtx, booking: b}); err != nil {
		return err
	}
	return pgtx.Commit(ctx)
}

// retryable reports whether err is a deadlock (40P01) or serialization
// failure (40001).
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

type pgTx struct {
	tx      pgx.Tx
	booking *Booking
}

func (t *pgTx) Booking() *Booking { return t.booking }

func (t *pgTx) Offers(ctx context.Context) ([]*Offer, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE booking_id = $1 ORDER BY requested_at, id`,
		string(t.booking.ID))
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

func (t *pgTx) SaveBooking(ctx context.Context, b *Booking) error {
	var lat, lng *float64
	if b.Location != nil {
		lat, lng = &b.Location.Lat, &b.Location.Lng
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE bookings SET
			provider_id = $2, service_status = $3, payment_status = $4,
			location_lat = $5, location_lng = $6,
			otp_code = $7, otp_expires_at = $8, otp_attempts = $9,
			started_at = $10, completed_at = $11, cancelled_at = $12, cancelled_by = $13,
			updated_at = NOW()
		WHERE id = $1`,
		string(b.ID), idPtr(b.ProviderID), string(b.ServiceStatus), string(b.PaymentStatus),
		lat, lng, b.OTPCode, b.OTPExpiresAt, b.OTPAttempts,
		b.StartedAt, b.CompletedAt, b.CancelledAt, b.CancelledBy,
	)
	return err
}

func (t *pgTx) SaveOffer(ctx context.Context, o *Offer) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE offers SET status = $2, resolution = $3, responded_at = $4
		WHERE id = $1`,
		string(o.ID), string(o.Status), string(o.Resolution), o.RespondedAt,
	)
	return err
}

func (t *pgTx) CreateOffer(ctx context.Context, o *Offer) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO offers (id, booking_id, provider_id, status, resolution, requested_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(o.ID), string(o.BookingID), string(o.ProviderID),
		string(o.Status), string(o.Resolution), o.RequestedAt, o.RespondedAt,
	)
	return err
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var providerID, otpCode, cancelledBy *string
	var lat, lng *float64
	var otpExpires, startedAt, completedAt, cancelledAt *time.Time

	err := row.Scan(
		&b.ID, &b.CustomerID, &providerID, &b.BookingType, &b.ServiceStatus, &b.PaymentStatus,
		&b.ScheduledTime, &lat, &lng,
		&otpCode, &otpExpires, &b.OTPAttempts,
		&startedAt, &completedAt, &cancelledAt, &cancelledBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if providerID != nil {
		id := types.ID(*providerID)
		b.ProviderID = &id
	}
	if lat != nil && lng != nil {
		b.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	b.OTPCode = otpCode
	b.OTPExpiresAt = otpExpires
	b.StartedAt = startedAt
	b.CompletedAt = completedAt
	b.CancelledAt = cancelledAt
	b.CancelledBy = cancelledBy
	return &b, nil
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.BookingID, &o.ProviderID, &o.Status, &o.Resolution,
		&o.RequestedAt, &o.RespondedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOffers(rows pgx.Rows) ([]*Offer, error) {
	defer rows.Close()
	var offers []*Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.BookingID, &o.ProviderID, &o.Status, &o.Resolution,
			&o.RequestedAt, &o.RespondedAt); err != nil {
			return nil, err
		}
		offers = append(offers, &o)
	}
	return offers, rows.Err()
}

// PostgresContacts resolves customer contact addresses from the customers
// table; the engine only needs the reachable-address check, account CRUD
// lives elsewhere.
type PostgresContacts struct {
	db DB
}

func NewPostgresContacts(db DB) *PostgresContacts {
	return &PostgresContacts{db: db}
}

func (c *PostgresContacts) CustomerContact(ctx context.Context, customerID types.ID) (string, error) {
	var email string
	err := c.db.QueryRow(ctx,
		`SELECT email FROM customers WHERE id = $1`, string(customerID)).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
