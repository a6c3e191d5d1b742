package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/google/uuid"
)

// CustomOrderStatusChanged is emitted after every custom order transition, including
// submission, where From is empty.
type CustomOrderStatusChanged struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     string            `json:"user_id"`
	From       string            `json:"from,omitempty"`
	To         string            `json:"to"`
	Price      string            `json:"price,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e CustomOrderStatusChanged) Subject() string {
	return messaging.CustomOrderStatusChangedSubject
}

func (e CustomOrderStatusChanged) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// MessageID is unique per transition. Re-bids repeat the same target status, so the
// transition time is part of the id.
func (e CustomOrderStatusChanged) MessageID() string {
	return e.OrderID.String() + ":" + e.To + ":" + strconv.FormatInt(e.OccurredAt.UnixNano(), 10)
}
