package orders

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the persistent order header stored in the orders DynamoDB table.
// Orders created by this service are never mutated afterwards; a redelivered
// confirmation only reads them.
type Order struct {
	OrderNumber    string    `dynamodbav:"order_number"` // PK
	StripePID      string    `dynamodbav:"stripe_pid"`   // partition key of the PID index
	Username       string    `dynamodbav:"username,omitempty"`
	FullName       string    `dynamodbav:"full_name"`
	Email          string    `dynamodbav:"email"`
	PhoneNumber    string    `dynamodbav:"phone_number"`
	Country        string    `dynamodbav:"country"`
	Postcode       string    `dynamodbav:"postcode"`
	TownOrCity     string    `dynamodbav:"town_or_city"`
	StreetAddress1 string    `dynamodbav:"street_address1"`
	StreetAddress2 string    `dynamodbav:"street_address2"`
	County         string    `dynamodbav:"county"`
	GrandTotal     string    `dynamodbav:"grand_total"` // canonical 2-decimal string
	OriginalBag    string    `dynamodbav:"original_bag"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}

// LineItem belongs to exactly one order. The line-items table is keyed
// (order_number HASH, line_item_id RANGE) so one query lists an order's items.
type LineItem struct {
	OrderNumber   string `dynamodbav:"order_number"`
	LineItemID    string `dynamodbav:"line_item_id"`
	ProductID     string `dynamodbav:"product_id"`
	ProductName   string `dynamodbav:"product_name,omitempty"`
	Quantity      int    `dynamodbav:"quantity"`
	ProductSize   string `dynamodbav:"product_size,omitempty"`
	LineItemTotal string `dynamodbav:"lineitem_total,omitempty"` // price * quantity, 2-decimal string
}

// CompositeKey is the full tuple that identifies one logical order. Two
// payment events agreeing on every field here describe the same order and
// must never produce two records.
type CompositeKey struct {
	StripePID      string
	OriginalBag    string
	GrandTotal     string
	FullName       string
	Email          string
	PhoneNumber    string
	Country        string
	Postcode       string
	TownOrCity     string
	StreetAddress1 string
	StreetAddress2 string
	County         string
}

// Matches reports whether the order equals the key: exact on transaction id,
// bag, and grand total, case-insensitive on the text fields.
func (o *Order) Matches(k CompositeKey) bool {
	return o.StripePID == k.StripePID &&
		o.OriginalBag == k.OriginalBag &&
		o.GrandTotal == k.GrandTotal &&
		strings.EqualFold(o.FullName, k.FullName) &&
		strings.EqualFold(o.Email, k.Email) &&
		strings.EqualFold(o.PhoneNumber, k.PhoneNumber) &&
		strings.EqualFold(o.Country, k.Country) &&
		strings.EqualFold(o.Postcode, k.Postcode) &&
		strings.EqualFold(o.TownOrCity, k.TownOrCity) &&
		strings.EqualFold(o.StreetAddress1, k.StreetAddress1) &&
		strings.EqualFold(o.StreetAddress2, k.StreetAddress2) &&
		strings.EqualFold(o.County, k.County)
}

// NewOrderNumber generates an order number in the store's customer-facing
// format: 32 uppercase hex characters.
func NewOrderNumber() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))
}
