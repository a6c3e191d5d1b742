// Package notifier turns custom-order status events into customer notifications.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "notifier"

// Notification is a message for one customer.
type Notification struct {
	UserID  string
	OrderID string
	Text    string
}

// Sink delivers notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the log. Email delivery is not part of this system.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, n Notification) error {
	s.Logger.InfoContext(ctx, "customer notified", "user_id", n.UserID, "order_id", n.OrderID, "text", n.Text)
	return nil
}

// ackableMsg is the part of jetstream.Msg the handler uses.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

type Notifier struct {
	sink   Sink
	logger *slog.Logger
	tracer trace.Tracer
}

func New(sink Sink, logger *slog.Logger) *Notifier {
	return &Notifier{
		sink:   sink,
		logger: logger.With("component", "notifier"),
		tracer: otel.Tracer(tracerName),
	}
}

// Start creates the durable consumer and runs cfg.Workers fetch loops until ctx is done.
func (n *Notifier) Start(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       cfg.AckWait,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", cfg.Consumer, err)
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return n.runWorker(gCtx, consumer, cfg)
		})
	}
	return g.Wait()
}

func (n *Notifier) runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			n.logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
			time.Sleep(cfg.Interval)
			continue
		}
		for msg := range batch.Messages() {
			n.handleMessage(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			n.logger.WarnContext(ctx, "batch ended with error", "error", err)
		}
	}
}

// handleMessage acks delivered notifications, naks ones the sink failed on and terminates
// payloads that can never be decoded.
func (n *Notifier) handleMessage(ctx context.Context, msg ackableMsg) {
	var event events.CustomOrderStatusChanged
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		n.logger.ErrorContext(ctx, "failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			n.logger.ErrorContext(ctx, "failed to terminate message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(event.Carrier))
	ctx, span := n.tracer.Start(ctx, "custom_order.notify", trace.WithAttributes(
		attribute.String("order_id", event.OrderID.String()),
		attribute.String("status", event.To),
	))
	defer span.End()

	if err := n.sink.Notify(ctx, Describe(event)); err != nil {
		span.RecordError(err)
		n.logger.ErrorContext(ctx, "failed to notify", "error", err, "order_id", event.OrderID)
		if err := msg.Nak(); err != nil {
			n.logger.ErrorContext(ctx, "failed to nack message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		n.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

// Describe renders the customer-facing text for a status change.
func Describe(e events.CustomOrderStatusChanged) Notification {
	short := e.OrderID.String()[:8]
	var text string
	switch e.To {
	case "pending":
		text = fmt.Sprintf("We received your custom order %s. A designer will review it soon.", short)
	case "bid_received":
		text = fmt.Sprintf("Your custom order %s has a new quote of %s.", short, e.Price)
	case "accepted":
		text = fmt.Sprintf("You accepted the quote for custom order %s. Complete the payment to start tailoring.", short)
	case "waiting_payment":
		text = fmt.Sprintf("We are waiting for the payment of custom order %s.", short)
	case "in_progress":
		text = fmt.Sprintf("Payment confirmed. Custom order %s is being tailored.", short)
	case "completed":
		text = fmt.Sprintf("Custom order %s is ready and will ship soon.", short)
	case "shipped":
		text = fmt.Sprintf("Custom order %s has shipped.", short)
	case "delivered":
		text = fmt.Sprintf("Custom order %s was delivered. Enjoy!", short)
	case "cancelled":
		text = fmt.Sprintf("Custom order %s was cancelled.", short)
	default:
		text = fmt.Sprintf("Custom order %s is now %s.", short, e.To)
	}
	return Notification{UserID: e.UserID, OrderID: e.OrderID.String(), Text: text}
}
