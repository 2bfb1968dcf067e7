// README: Offer ledger row; one per booking x provider pairing ever notified.
package booking

import (
	"time"

	"fixly/internal/types"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Resolution records why a rejected offer ended up rejected, so withdrawal can
// reopen exactly the offers the arbiter auto-rejected and nothing a provider
// declined on purpose.
type Resolution string

const (
	ResolutionNone       Resolution = ""
	ResolutionByProvider Resolution = "rejected_by_provider"
	ResolutionOutbid     Resolution = "rejected_due_to_other_acceptance"
	ResolutionCancelled  Resolution = "booking_cancelled"
)

type Offer struct {
	ID          types.ID
	BookingID   types.ID
	ProviderID  types.ID
	Status      OfferStatus
	Resolution  Resolution
	RequestedAt time.Time
	RespondedAt *time.Time
}

func (o *Offer) clone() *Offer {
	c := *o
	c.RespondedAt = clonePtr(o.RespondedAt)
	return &c
}
