// Package stripe holds the wire shapes of the webhook payloads this service
// consumes, plus the normalization into a fully-defaulted PaymentEvent.
// Signature verification happens upstream of this service (API gateway /
// forwarder); only the envelope and the payment intent are interpreted here.
package stripe

import "encoding/json"

// Event types this service acts on. Anything else is acknowledged untouched.
const (
	TypePaymentIntentSucceeded = "payment_intent.succeeded"
	TypePaymentIntentFailed    = "payment_intent.payment_failed"
)

// AnonymousUser is the username recorded when checkout ran without a login.
// Events carrying it never touch a stored profile.
const AnonymousUser = "AnonymousUser"

// Event is the webhook envelope.
type Event struct {
	ID         string    `json:"id" validate:"required"`
	Type       string    `json:"type" validate:"required"`
	APIVersion string    `json:"api_version,omitempty"`
	Created    int64     `json:"created,omitempty"`
	Livemode   bool      `json:"livemode,omitempty"`
	Data       EventData `json:"data"`
}

// EventData wraps the event's object, kept raw until the event type is known.
type EventData struct {
	Object json.RawMessage `json:"object"`
}

// PaymentIntent mirrors the subset of Stripe's payment_intent object we read.
// Every field is optional on the wire.
type PaymentIntent struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Metadata       map[string]string `json:"metadata"`
	Charges        *ChargeList       `json:"charges"`
	BillingDetails *BillingDetails   `json:"billing_details"`
	Shipping       *ShippingDetails  `json:"shipping"`
}

// ChargeList is the paged charges container embedded in the intent.
type ChargeList struct {
	Data []Charge `json:"data"`
}

// Charge carries the captured amount and the billing contact. When present,
// the first charge wins over the intent-level fallbacks.
type Charge struct {
	ID             string          `json:"id"`
	Amount         int64           `json:"amount"`
	BillingDetails *BillingDetails `json:"billing_details"`
}

// BillingDetails is the billing contact block.
type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ShippingDetails is the shipping contact block.
type ShippingDetails struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Address *Address `json:"address"`
}

// Address is a postal address as Stripe ships it.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
