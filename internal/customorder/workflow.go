package customorder

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/abgdnv/stitchnstyle/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Workflow applies guarded transitions to orders. Every method either fails without touching
// the order or performs exactly one transition and records it in the history.
type Workflow struct {
	validate *validator.Validate
}

// NewWorkflow creates a workflow using v for field validation.
func NewWorkflow(v *validator.Validate) *Workflow {
	return &Workflow{validate: v}
}

// Submit validates a customer submission and opens a pending order.
func (w *Workflow) Submit(owner string, sub Submission, now time.Time) (*Order, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	sub.Size = strings.TrimSpace(sub.Size)
	switch sub.MeasurementMode {
	case MeasurementStandard:
		sub.Measurements = nil
	case MeasurementCustom:
		sub.Size = ""
	}
	if err := w.checkSubmission(sub); err != nil {
		return nil, err
	}
	o := &Order{
		ID:         uuid.New(),
		UserID:     owner,
		Submission: sub,
		Status:     StatusPending,
		History:    []StatusChange{{To: StatusPending, At: now, Actor: owner}},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return o, nil
}

func (w *Workflow) checkSubmission(sub Submission) error {
	fields := map[string]string{}
	if err := validation.Check(w.validate, sub); err != nil {
		var ve *sferrors.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		fields = ve.Fields
	}
	switch sub.MeasurementMode {
	case MeasurementStandard:
		if !slices.Contains(StandardSizes, sub.Size) {
			fields["size"] = "failed on rule: oneof"
		}
	case MeasurementCustom:
		if sub.Measurements == nil {
			fields["measurements"] = "failed on rule: required"
		}
	}
	if len(fields) > 0 {
		return sferrors.NewValidationError(fields)
	}
	return nil
}

// PlaceBid records a designer's bid. A bid on a bid_received order replaces the previous one.
func (w *Workflow) PlaceBid(o *Order, designer string, bid Bid, now time.Time) error {
	if o.Status != StatusPending && o.Status != StatusBidReceived {
		return sferrors.Conflict("cannot bid on an order in status %s", o.Status)
	}
	if err := validation.Check(w.validate, bid); err != nil {
		return err
	}
	bid.DesignerID = designer
	bid.PlacedAt = now
	o.Bid = &bid
	o.transition(StatusBidReceived, designer, now)
	return nil
}

// AcceptBid records the customer's acceptance together with the shipping address.
func (w *Workflow) AcceptBid(o *Order, actor string, addr Address, now time.Time) error {
	if o.Status != StatusPending && o.Status != StatusBidReceived {
		return sferrors.Conflict("cannot accept a bid on an order in status %s", o.Status)
	}
	if o.Bid == nil {
		return sferrors.Conflict("order has no bid to accept")
	}
	addr = normalizeAddress(addr)
	if err := validation.Check(w.validate, addr); err != nil {
		return err
	}
	o.ShippingAddress = &addr
	o.transition(StatusAccepted, actor, now)
	return nil
}

func normalizeAddress(a Address) Address {
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

// CheckPaymentStart reports whether a payment may be started for o. Callers use it before
// contacting the gateway so that a doomed attempt never reaches it.
func CheckPaymentStart(o *Order, method PaymentMethod) error {
	if method != PaymentRazorpay && method != PaymentCOD {
		return sferrors.Invalid("method", "failed on rule: oneof")
	}
	if o.Status != StatusAccepted && o.Status != StatusWaitingPayment {
		return sferrors.Conflict("cannot start payment for an order in status %s", o.Status)
	}
	if o.ShippingAddress == nil {
		return sferrors.Conflict("order has no shipping address")
	}
	if o.Bid == nil {
		return sferrors.Conflict("order has no accepted bid")
	}
	return nil
}

// StartPayment records a payment attempt. Online payments wait for confirmation;
// cash on delivery confirms the order immediately.
func (w *Workflow) StartPayment(o *Order, actor string, p Payment, now time.Time) error {
	if err := CheckPaymentStart(o, p.Method); err != nil {
		return err
	}
	p.Amount = o.Bid.Price
	switch p.Method {
	case PaymentRazorpay:
		if p.GatewayOrderID == "" {
			return sferrors.Invalid("gatewayOrderId", "failed on rule: required")
		}
		o.Payment = &p
		if o.Status == StatusWaitingPayment {
			// retry with a fresh gateway order
			o.UpdatedAt = now
			return nil
		}
		o.transition(StatusWaitingPayment, actor, now)
	case PaymentCOD:
		p.GatewayOrderID = ""
		o.Payment = &p
		o.transition(StatusInProgress, actor, now)
	}
	return nil
}

// ConfirmPayment applies a verified online payment. The gateway order must be the one
// recorded by StartPayment.
func (w *Workflow) ConfirmPayment(o *Order, actor, gatewayOrderID, paymentID string, now time.Time) error {
	if o.Status != StatusAccepted && o.Status != StatusWaitingPayment {
		return sferrors.Conflict("cannot confirm payment for an order in status %s", o.Status)
	}
	if o.Payment == nil || o.Payment.Method != PaymentRazorpay || o.Payment.GatewayOrderID == "" {
		return fmt.Errorf("%w: no online payment was started", sferrors.ErrPaymentFailed)
	}
	if o.Payment.GatewayOrderID != gatewayOrderID {
		return fmt.Errorf("%w: gateway order does not match", sferrors.ErrPaymentFailed)
	}
	confirmed := now
	o.Payment.PaymentID = paymentID
	o.Payment.ConfirmedAt = &confirmed
	o.transition(StatusInProgress, actor, now)
	return nil
}

// AdvanceFulfillment moves an in-progress order forward to completed, shipped or delivered.
func (w *Workflow) AdvanceFulfillment(o *Order, actor string, target Status, now time.Time) error {
	if !target.Fulfillment() {
		return sferrors.Invalid("status", "failed on rule: oneof")
	}
	if o.Status.Rank() < StatusInProgress.Rank() || o.Status.Terminal() {
		return sferrors.Conflict("cannot advance fulfillment of an order in status %s", o.Status)
	}
	if target.Rank() <= o.Status.Rank() {
		return sferrors.Conflict("cannot move from %s back to %s", o.Status, target)
	}
	o.transition(target, actor, now)
	return nil
}

// Cancel cancels an order that has not been paid yet.
func (w *Workflow) Cancel(o *Order, actor, reason string, now time.Time) error {
	if !o.Status.Cancellable() {
		return sferrors.Conflict("cannot cancel an order in status %s", o.Status)
	}
	o.CancelReason = strings.TrimSpace(reason)
	o.transition(StatusCancelled, actor, now)
	return nil
}
