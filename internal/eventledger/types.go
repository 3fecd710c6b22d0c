package eventledger

import "time"

// Record is the shape persisted in the processed-events DynamoDB table. One
// record per Stripe event id, written once the event reached a definitive
// outcome. Redeliveries of the same event find the record and short-circuit.
type Record struct {
	EventID     string    `dynamodbav:"event_id"` // PK
	Outcome     string    `dynamodbav:"outcome"`
	OrderNumber string    `dynamodbav:"order_number,omitempty"`
	Detail      string    `dynamodbav:"detail,omitempty"`
	ProcessedAt time.Time `dynamodbav:"processed_at"`
	ExpiresAt   int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
