package customorder

import (
	"slices"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
)

// Status is the lifecycle state of a custom order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusBidReceived    Status = "bid_received"
	StatusAccepted       Status = "accepted"
	StatusWaitingPayment Status = "waiting_payment"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// canonical is the total order of the non-cancelled statuses.
var canonical = []Status{
	StatusPending,
	StatusBidReceived,
	StatusAccepted,
	StatusWaitingPayment,
	StatusInProgress,
	StatusCompleted,
	StatusShipped,
	StatusDelivered,
}

// Rank returns the position of s in the canonical order, or -1 for cancelled and unknown values.
func (s Status) Rank() int {
	return slices.Index(canonical, s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCancelled || s.Rank() >= 0
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether the order can still be cancelled (before payment).
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusBidReceived || s == StatusAccepted
}

// Fulfillment reports whether s is a staff-driven fulfillment target.
func (s Status) Fulfillment() bool {
	return s == StatusCompleted || s == StatusShipped || s == StatusDelivered
}

// ParseStatus converts s into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", sferrors.Invalid("status", "failed on rule: oneof")
	}
	return st, nil
}
