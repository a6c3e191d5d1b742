package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/customorder"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/abgdnv/stitchnstyle/internal/payment"
	"github.com/abgdnv/stitchnstyle/internal/store"
	"github.com/abgdnv/stitchnstyle/pkg/auth"
	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/abgdnv/stitchnstyle/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// CustomOrderService defines the custom-order workflow as seen by customers and staff.
// Every operation takes the authenticated caller; customers only ever see their own orders.
type CustomOrderService interface {
	// Submit creates a pending order owned by the caller.
	Submit(ctx context.Context, caller auth.Principal, sub customorder.Submission) (*customorder.Order, error)

	// FindByID returns ErrOrderNotFound if no order exists, ErrAccessDenied if the caller may not see it.
	FindByID(ctx context.Context, caller auth.Principal, id uuid.UUID) (*customorder.Order, error)

	// FindMine returns a page of the caller's orders, newest first.
	FindMine(ctx context.Context, caller auth.Principal, offset, limit int32) ([]customorder.Order, error)

	// FindAll returns a page of every order, optionally filtered by status. Staff only.
	FindAll(ctx context.Context, caller auth.Principal, status customorder.Status, offset, limit int32) ([]customorder.Order, error)

	// PlaceBid records a designer's bid. Staff only.
	PlaceBid(ctx context.Context, caller auth.Principal, id uuid.UUID, bid customorder.Bid) (*customorder.Order, error)

	// AcceptBid accepts the current bid with a shipping address. Owner only.
	AcceptBid(ctx context.Context, caller auth.Principal, id uuid.UUID, addr customorder.Address) (*customorder.Order, error)

	// StartPayment starts an online payment or confirms cash on delivery. Owner only.
	StartPayment(ctx context.Context, caller auth.Principal, id uuid.UUID, method customorder.PaymentMethod) (*PaymentStart, error)

	// VerifyPayment checks the gateway signature and confirms the payment. Owner only.
	VerifyPayment(ctx context.Context, caller auth.Principal, id uuid.UUID, v PaymentVerification) (*customorder.Order, error)

	// AdvanceFulfillment moves a paid order forward. Staff only.
	AdvanceFulfillment(ctx context.Context, caller auth.Principal, id uuid.UUID, target customorder.Status) (*customorder.Order, error)

	// Cancel cancels an unpaid order. Owner or staff.
	Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID, reason string) (*customorder.Order, error)
}

// PaymentStart is the result of starting a payment. Gateway is set for online payments and
// carries what the client needs to open the checkout.
type PaymentStart struct {
	Order   *customorder.Order    `json:"order"`
	Gateway *payment.GatewayOrder `json:"gatewayOrder,omitempty"`
	KeyID   string                `json:"keyId,omitempty"`
}

// PaymentVerification is the gateway's confirmation of a completed online payment.
type PaymentVerification struct {
	GatewayOrderID string `json:"gatewayOrderId" validate:"required"`
	PaymentID      string `json:"paymentId"      validate:"required"`
	Signature      string `json:"signature"      validate:"required"`
}

// PaymentSettings identify the merchant towards the gateway.
type PaymentSettings struct {
	KeyID    string
	Currency string
}

// CustomOrders implements CustomOrderService.
type CustomOrders struct {
	store         store.CustomOrderStore
	workflow      *customorder.Workflow
	gateway       payment.Gateway
	verifier      payment.Verifier
	publisher     messaging.Publisher
	settings      PaymentSettings
	transitions   metric.Int64Counter
	verifications metric.Int64Counter
	logger        *slog.Logger
	now           func() time.Time
}

// NewCustomOrders creates a CustomOrderService.
func NewCustomOrders(
	orders store.CustomOrderStore,
	workflow *customorder.Workflow,
	gateway payment.Gateway,
	verifier payment.Verifier,
	publisher messaging.Publisher,
	settings PaymentSettings,
	logger *slog.Logger,
) *CustomOrders {
	meter := otel.Meter(meterName)
	transitions, err := meter.Int64Counter("custom_order_transitions_total",
		metric.WithDescription("Total number of custom order status transitions by target status"))
	if err != nil {
		panic(fmt.Sprintf("failed to create custom_order_transitions_total counter: %v", err))
	}
	verifications, err := meter.Int64Counter("payment_verifications_total",
		metric.WithDescription("Total number of online payment verifications by result"))
	if err != nil {
		panic(fmt.Sprintf("failed to create payment_verifications_total counter: %v", err))
	}
	return &CustomOrders{
		store:         orders,
		workflow:      workflow,
		gateway:       gateway,
		verifier:      verifier,
		publisher:     publisher,
		settings:      settings,
		transitions:   transitions,
		verifications: verifications,
		logger:        logger.With("component", "custom-order-service"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomOrders) Submit(ctx context.Context, caller auth.Principal, sub customorder.Submission) (*customorder.Order, error) {
	o, err := s.workflow.Submit(caller.Subject, sub, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "custom order submitted", "order_id", o.ID, "user_id", o.UserID)
	s.transitioned(ctx, o)
	return o, nil
}

func (s *CustomOrders) FindByID(ctx context.Context, caller auth.Principal, id uuid.UUID) (*customorder.Order, error) {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(caller, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *CustomOrders) FindMine(ctx context.Context, caller auth.Principal, offset, limit int32) ([]customorder.Order, error) {
	if caller.Subject == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	return s.store.FindByUser(ctx, caller.Subject, offset, limit)
}

func (s *CustomOrders) FindAll(ctx context.Context, caller auth.Principal, status customorder.Status, offset, limit int32) ([]customorder.Order, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return s.store.FindAll(ctx, status, offset, limit)
}

func (s *CustomOrders) PlaceBid(ctx context.Context, caller auth.Principal, id uuid.UUID, bid customorder.Bid) (*customorder.Order, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(o *customorder.Order) error {
		return s.workflow.PlaceBid(o, caller.Subject, bid, s.now())
	})
}

func (s *CustomOrders) AcceptBid(ctx context.Context, caller auth.Principal, id uuid.UUID, addr customorder.Address) (*customorder.Order, error) {
	return s.update(ctx, id, func(o *customorder.Order) error {
		if err := isOwner(caller, o); err != nil {
			return err
		}
		return s.workflow.AcceptBid(o, caller.Subject, addr, s.now())
	})
}

func (s *CustomOrders) StartPayment(ctx context.Context, caller auth.Principal, id uuid.UUID, method customorder.PaymentMethod) (*PaymentStart, error) {
	if method == customorder.PaymentCOD {
		o, err := s.update(ctx, id, func(o *customorder.Order) error {
			if err := isOwner(caller, o); err != nil {
				return err
			}
			return s.workflow.StartPayment(o, caller.Subject, customorder.Payment{Method: method, Currency: s.settings.Currency}, s.now())
		})
		if err != nil {
			return nil, err
		}
		return &PaymentStart{Order: o}, nil
	}

	// the gateway is only contacted for an order that could accept the payment
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := isOwner(caller, current); err != nil {
		return nil, err
	}
	if err := customorder.CheckPaymentStart(current, method); err != nil {
		return nil, err
	}
	gatewayOrder, err := s.gateway.CreateOrder(ctx, current.ID.String(), current.Price(), s.settings.Currency)
	if err != nil {
		s.logger.WarnContext(ctx, "gateway order creation failed", "order_id", id, "error", err)
		return nil, err
	}

	o, err := s.update(ctx, id, func(o *customorder.Order) error {
		if err := isOwner(caller, o); err != nil {
			return err
		}
		return s.workflow.StartPayment(o, caller.Subject, customorder.Payment{
			Method:         method,
			GatewayOrderID: gatewayOrder.ID,
			Currency:       s.settings.Currency,
		}, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &PaymentStart{Order: o, Gateway: &gatewayOrder, KeyID: s.settings.KeyID}, nil
}

func (s *CustomOrders) VerifyPayment(ctx context.Context, caller auth.Principal, id uuid.UUID, v PaymentVerification) (*customorder.Order, error) {
	// the signature is checked before the order is locked; the status is re-checked under the lock
	if err := s.verifier.Verify(v.GatewayOrderID, v.PaymentID, v.Signature); err != nil {
		s.verified(ctx, "rejected")
		s.logger.WarnContext(ctx, "payment signature rejected", "order_id", id, "gateway_order_id", v.GatewayOrderID)
		return nil, err
	}
	o, err := s.update(ctx, id, func(o *customorder.Order) error {
		if err := isOwner(caller, o); err != nil {
			return err
		}
		return s.workflow.ConfirmPayment(o, caller.Subject, v.GatewayOrderID, v.PaymentID, s.now())
	})
	if err != nil {
		if errors.Is(err, sferrors.ErrPaymentFailed) {
			s.verified(ctx, "rejected")
		}
		return nil, err
	}
	s.verified(ctx, "verified")
	return o, nil
}

func (s *CustomOrders) AdvanceFulfillment(ctx context.Context, caller auth.Principal, id uuid.UUID, target customorder.Status) (*customorder.Order, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(o *customorder.Order) error {
		return s.workflow.AdvanceFulfillment(o, caller.Subject, target, s.now())
	})
}

func (s *CustomOrders) Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID, reason string) (*customorder.Order, error) {
	return s.update(ctx, id, func(o *customorder.Order) error {
		if err := canView(caller, o); err != nil {
			return err
		}
		return s.workflow.Cancel(o, caller.Subject, reason, s.now())
	})
}

// update runs fn under the store's lock and announces the transition when the status changed.
func (s *CustomOrders) update(ctx context.Context, id uuid.UUID, fn func(o *customorder.Order) error) (*customorder.Order, error) {
	var before customorder.Status
	o, err := s.store.Update(ctx, id, func(o *customorder.Order) error {
		before = o.Status
		return fn(o)
	})
	if err != nil {
		return nil, err
	}
	if o.Status != before {
		s.logger.InfoContext(ctx, "custom order transitioned", "order_id", o.ID, "from", before, "to", o.Status)
		s.transitioned(ctx, o)
	}
	return o, nil
}

// transitioned counts and publishes the last history entry of o. Publishing is best effort.
func (s *CustomOrders) transitioned(ctx context.Context, o *customorder.Order) {
	if len(o.History) == 0 {
		return
	}
	change := o.History[len(o.History)-1]
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(change.To))))

	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CustomOrderStatusChanged{
		Carrier:    carrier,
		OrderID:    o.ID,
		UserID:     o.UserID,
		From:       string(change.From),
		To:         string(change.To),
		Actor:      change.Actor,
		OccurredAt: change.At,
	}
	if o.Bid != nil {
		event.Price = o.Bid.Price.StringFixed(2)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish CustomOrderStatusChanged", "order_id", o.ID, "error", err)
	}
}

func (s *CustomOrders) verified(ctx context.Context, result string) {
	s.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func requireStaff(caller auth.Principal) error {
	if caller.Subject == "" {
		return sferrors.ErrOwnerRequired
	}
	if !caller.Staff {
		return sferrors.ErrAccessDenied
	}
	return nil
}

func isOwner(caller auth.Principal, o *customorder.Order) error {
	if caller.Subject == "" {
		return sferrors.ErrOwnerRequired
	}
	if o.UserID != caller.Subject {
		return sferrors.ErrAccessDenied
	}
	return nil
}

func canView(caller auth.Principal, o *customorder.Order) error {
	if caller.Staff && caller.Subject != "" {
		return nil
	}
	return isOwner(caller, o)
}
