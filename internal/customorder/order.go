// Package customorder implements the bespoke-clothing order lifecycle: submission, designer bid,
// acceptance with a shipping address, payment and fulfillment.
package customorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MeasurementMode selects between a standard size and explicit body measurements.
type MeasurementMode string

const (
	MeasurementStandard MeasurementMode = "standard"
	MeasurementCustom   MeasurementMode = "custom"
)

// StandardSizes lists the size names accepted in standard mode.
var StandardSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// Measurements are body measurements in inches.
type Measurements struct {
	Chest     float64 `json:"chest"     validate:"gte=20,lte=60"`
	Waist     float64 `json:"waist"     validate:"gte=20,lte=60"`
	Hips      float64 `json:"hips"      validate:"gte=20,lte=60"`
	Length    float64 `json:"length"    validate:"gte=20,lte=72"`
	Shoulders float64 `json:"shoulders" validate:"gte=12,lte=30"`
	Sleeves   float64 `json:"sleeves"   validate:"gte=15,lte=40"`
}

// Design describes the garment requested.
type Design struct {
	Style         string `json:"style"           validate:"required,max=200"`
	Fabric        string `json:"fabric"          validate:"required,max=200"`
	Customization string `json:"customization"   validate:"required,max=2000"`
	Color         string `json:"color,omitempty" validate:"max=100"`
}

// Submission is what a customer sends to open a custom order.
type Submission struct {
	MeasurementMode MeasurementMode `json:"measurementMode"        validate:"required,oneof=standard custom"`
	Size            string          `json:"size,omitempty"`
	Measurements    *Measurements   `json:"measurements,omitempty"`
	Design          Design          `json:"design"`
	ReferenceImages []string        `json:"referenceImages"        validate:"required,min=1,max=5,dive,required,max=2048"`
}

// Bid is a designer's price and delivery estimate.
type Bid struct {
	Price                 decimal.Decimal `json:"price"                 validate:"gt=0"`
	EstimatedDeliveryDays int             `json:"estimatedDeliveryDays" validate:"gte=1,lte=60"`
	Message               string          `json:"message,omitempty"     validate:"max=1000"`
	DesignerID            string          `json:"designerId"`
	PlacedAt              time.Time       `json:"placedAt"`
}

// Address is the shipping destination supplied when accepting a bid.
type Address struct {
	AddressLine1 string `json:"addressLine1"           validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2,omitempty" validate:"max=200"`
	City         string `json:"city"                   validate:"required,max=100"`
	State        string `json:"state"                  validate:"required,max=100"`
	PostalCode   string `json:"postalCode"             validate:"required,max=20"`
	Country      string `json:"country"                validate:"required,max=100"`
	PhoneNumber  string `json:"phoneNumber"            validate:"required,phone10"`
}

// DefaultCountry fills an address that omits the country.
const DefaultCountry = "India"

// PaymentMethod is how the customer pays for an accepted order.
type PaymentMethod string

const (
	PaymentRazorpay PaymentMethod = "razorpay"
	PaymentCOD      PaymentMethod = "cod"
)

// Payment records the payment attempt and its confirmation.
type Payment struct {
	Method         PaymentMethod   `json:"method"`
	GatewayOrderID string          `json:"gatewayOrderId,omitempty"`
	PaymentID      string          `json:"paymentId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ConfirmedAt    *time.Time      `json:"confirmedAt,omitempty"`
}

// StatusChange is one entry of the order's status history.
type StatusChange struct {
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor"`
}

// Order is a custom order. Version is used for optimistic concurrency control.
type Order struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"userId"`
	Submission
	Status          Status         `json:"status"`
	Bid             *Bid           `json:"bid,omitempty"`
	ShippingAddress *Address       `json:"shippingAddress,omitempty"`
	Payment         *Payment       `json:"payment,omitempty"`
	CancelReason    string         `json:"cancelReason,omitempty"`
	History         []StatusChange `json:"history"`
	Version         int32          `json:"version"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Price returns the accepted bid price, or zero when no bid exists.
func (o *Order) Price() decimal.Decimal {
	if o.Bid == nil {
		return decimal.Zero
	}
	return o.Bid.Price
}

func (o *Order) transition(to Status, actor string, now time.Time) {
	o.History = append(o.History, StatusChange{From: o.Status, To: to, At: now, Actor: actor})
	o.Status = to
	o.UpdatedAt = now
}
