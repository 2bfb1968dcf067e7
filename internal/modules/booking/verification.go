// README: Verification gate; one-time code shared with the customer gates the
// arrived -> in_progress transition.
package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"fixly/internal/notify"
	"fixly/internal/types"
)

// CodeSender relays the code to the customer out-of-band (email).
type CodeSender interface {
	SendVerificationCode(ctx context.Context, contact, code string, bookingID types.ID) error
}

// ContactDirectory resolves a customer's reachable contact address.
type ContactDirectory interface {
	CustomerContact(ctx context.Context, customerID types.ID) (string, error)
}

// ContactsFunc adapts a function to ContactDirectory.
type ContactsFunc func(ctx context.Context, customerID types.ID) (string, error)

func (f ContactsFunc) CustomerContact(ctx context.Context, customerID types.ID) (string, error) {
	return f(ctx, customerID)
}

// A provider gets this many wrong codes before the outstanding code is
// invalidated and must be reissued.
const maxCodeAttempts = 5

var codeFormat = regexp.MustCompile(`^[0-9]{6}$`)

type Gate struct {
	store      Store
	sender     CodeSender
	contacts   ContactDirectory
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	ttl        time.Duration
	now        func() time.Time
}

func NewGate(store Store, sender CodeSender, contacts ContactDirectory, dispatcher notify.Dispatcher, logger *slog.Logger, ttl time.Duration) *Gate {
	return &Gate{
		store:      store,
		sender:     sender,
		contacts:   contacts,
		dispatcher: dispatcher,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

// IssueCode generates, persists, and delivers a fresh code. Issuance and
// delivery form one atomic unit from the caller's view: if delivery fails the
// committed code is cleared again before the error is returned.
func (g *Gate) IssueCode(ctx context.Context, bookingID, actingProviderID types.ID) (string, time.Time, error) {
	b, err := g.store.GetBooking(ctx, bookingID)
	if err != nil {
		return "", time.Time{}, err
	}
	contact, err := g.contacts.CustomerContact(ctx, b.CustomerID)
	if err != nil || contact == "" {
		return "", time.Time{}, fmt.Errorf("no reachable customer contact: %w", err)
	}

	var (
		code      string
		expiresAt time.Time
	)
	err = g.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		b := tx.Booking()
		if !b.assignedTo(actingProviderID) {
			return ErrForbidden
		}
		if b.ServiceStatus != StatusArrived {
			return ErrInvalidTransition
		}
		now := g.now().UTC()
		if b.OTPCode != nil && b.OTPExpiresAt != nil && b.OTPExpiresAt.After(now) {
			return &ThrottledError{RetryAfter: b.OTPExpiresAt.Sub(now)}
		}

		c, err := generateCode()
		if err != nil {
			return err
		}
		exp := now.Add(g.ttl)
		b.OTPCode = &c
		b.OTPExpiresAt = &exp
		b.OTPAttempts = 0
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		code, expiresAt = c, exp
		return nil
	})
	if err != nil {
		return "", time.Time{}, err
	}

	if err := g.sender.SendVerificationCode(ctx, contact, code, bookingID); err != nil {
		g.logger.Error("verification code delivery failed", "booking_id", bookingID, "error", err)
		g.clearCode(ctx, bookingID)
		return "", time.Time{}, fmt.Errorf("%w: %s", ErrCodeDeliveryFailed, err)
	}
	return code, expiresAt, nil
}

// VerifyCode checks the supplied code and, on match, drives the booking into
// in_progress. Mismatches burn an attempt; exhausting attempts invalidates
// the code.
func (g *Gate) VerifyCode(ctx context.Context, bookingID, actingProviderID types.ID, suppliedCode string) (*Booking, error) {
	if !codeFormat.MatchString(suppliedCode) {
		return nil, ErrBadRequest
	}

	var (
		outBooking *Booking
		events     []notify.Event
		verdict    error
	)
	err := g.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		events, verdict = nil, nil
		b := tx.Booking()
		if !b.assignedTo(actingProviderID) {
			return ErrForbidden
		}
		if b.ServiceStatus != StatusArrived {
			return ErrInvalidTransition
		}
		now := g.now().UTC()
		if b.OTPCode == nil || b.OTPExpiresAt == nil {
			return ErrCodeExpired
		}
		// Expiry and mismatch must still commit (code clearing, attempt
		// counter), so they set a verdict instead of failing the tx.
		if !b.OTPExpiresAt.After(now) {
			b.OTPCode = nil
			b.OTPExpiresAt = nil
			b.OTPAttempts = 0
			verdict = ErrCodeExpired
			return tx.SaveBooking(ctx, b)
		}
		if suppliedCode != *b.OTPCode {
			b.OTPAttempts++
			if b.OTPAttempts >= maxCodeAttempts {
				b.OTPCode = nil
				b.OTPExpiresAt = nil
				b.OTPAttempts = 0
			}
			verdict = ErrCodeMismatch
			return tx.SaveBooking(ctx, b)
		}

		b.OTPCode = nil
		b.OTPExpiresAt = nil
		b.OTPAttempts = 0
		b.ServiceStatus = StatusInProgress
		b.StartedAt = &now
		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		events = append(events, statusEvent(b))
		events = append(events, customerEvent(notify.EventTripStarted, b))
		outBooking = b.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if verdict != nil {
		return nil, verdict
	}

	emit(ctx, g.dispatcher, g.logger, events)
	return outBooking, nil
}

// clearCode is the compensating write after a failed delivery.
func (g *Gate) clearCode(ctx context.Context, bookingID types.ID) {
	err := g.store.WithBooking(ctx, bookingID, func(ctx context.Context, tx Tx) error {
		b := tx.Booking()
		b.OTPCode = nil
		b.OTPExpiresAt = nil
		b.OTPAttempts = 0
		return tx.SaveBooking(ctx, b)
	})
	if err != nil {
		g.logger.Error("clearing undelivered code failed", "booking_id", bookingID, "error", err)
	}
}

// generateCode draws a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
