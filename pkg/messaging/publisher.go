package messaging

import (
	"context"
)

const (
	CustomOrderStatusChangedSubject = "custom_orders.status_changed"
	CustomOrderSubjects             = "custom_orders.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identified events carry a stable id brokers can deduplicate redeliveries by.
type Identified interface {
	MessageID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
