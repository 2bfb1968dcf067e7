// README: Caller-facing error taxonomy for the assignment and lifecycle engine.
package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound            = errors.New("booking or offer not found")
	ErrForbidden           = errors.New("acting party does not own this offer or booking")
	ErrAlreadyResolved     = errors.New("offer is no longer pending")
	ErrLostRace            = errors.New("booking was assigned to another provider")
	ErrInvalidTransition   = errors.New("invalid service status transition")
	ErrThrottled           = errors.New("verification code already outstanding")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrCodeMismatch        = errors.New("verification code mismatch")
	ErrCancellationWindow  = errors.New("cancellation refused inside the lead-time window")
	ErrCodeDeliveryFailed  = errors.New("verification code could not be delivered")
	ErrActiveBooking       = errors.New("customer already has an active booking")
	ErrBadRequest          = errors.New("bad request")
)

// ThrottledError tells the caller when a new verification code may be
// requested. errors.Is(err, ErrThrottled) matches it.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("verification code already outstanding, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}
