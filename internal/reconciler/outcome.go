package reconciler

// Status classifies how one webhook event was settled.
type Status string

const (
	// StatusCreated: no matching order existed, this event created one.
	StatusCreated Status = "created"
	// StatusAlreadyRecorded: an order matching the full composite key was
	// already in the store.
	StatusAlreadyRecorded Status = "already_recorded"
	// StatusCreationFailed: order creation failed; any partial write was
	// rolled back. The transport should make the sender redeliver.
	StatusCreationFailed Status = "creation_failed"
	// StatusAcknowledged: a payment-failure event, received and dropped.
	StatusAcknowledged Status = "acknowledged"
	// StatusUnhandled: an event type this service does not process.
	StatusUnhandled Status = "unhandled"
)

// Outcome is the settlement of one event.
type Outcome struct {
	Status      Status
	EventType   string
	OrderNumber string // set for created and already_recorded
	Detail      string // set for creation_failed
}
