// Package reconciler settles Stripe payment-confirmation events against the
// order store: find the order the synchronous checkout flow already wrote, or
// rebuild it from the cart snapshot embedded in the event.
package reconciler

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/bag"
	"github.com/mcalderon/go-checkout-reconciler/internal/catalog"
	"github.com/mcalderon/go-checkout-reconciler/internal/eventledger"
	"github.com/mcalderon/go-checkout-reconciler/internal/orders"
	"github.com/mcalderon/go-checkout-reconciler/internal/profiles"
	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
)

// OrderStore is the order persistence surface the reconciler needs.
type OrderStore interface {
	FindMatching(ctx context.Context, key orders.CompositeKey) (*orders.Order, error)
	Create(ctx context.Context, order *orders.Order) error
	AddLineItems(ctx context.Context, items []orders.LineItem) error
	Delete(ctx context.Context, orderNumber string) error
}

// Catalog resolves the product ids referenced by a cart snapshot.
type Catalog interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
}

// ProfileStore reads and updates customer profiles.
type ProfileStore interface {
	Get(ctx context.Context, username string) (*profiles.UserProfile, error)
	Save(ctx context.Context, profile profiles.UserProfile) error
}

// Ledger deduplicates event ids across redeliveries.
type Ledger interface {
	Get(ctx context.Context, eventID string) (*eventledger.Record, error)
	MarkProcessed(ctx context.Context, eventID, outcome, orderNumber, detail string) (bool, error)
}

// Notifier sends the order confirmation email.
type Notifier interface {
	SendConfirmation(ctx context.Context, order orders.Order, overrideEmail, profileEmail string) error
}

// EventPublisher announces created orders downstream.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg aws.OrderCreatedMessage) error
}

// Config wires the reconciler's collaborators. Orders, Catalog, and Profiles
// are required. Ledger, Notifier, and Publisher may be nil; the matching
// steps are then skipped.
type Config struct {
	Orders    OrderStore
	Catalog   Catalog
	Profiles  ProfileStore
	Ledger    Ledger
	Notifier  Notifier
	Publisher EventPublisher
	Retry     RetryPolicy
}

// Reconciler settles payment events. Safe for concurrent use.
type Reconciler struct {
	orders    OrderStore
	catalog   Catalog
	profiles  ProfileStore
	ledger    Ledger
	notifier  Notifier
	publisher EventPublisher
	retry     RetryPolicy
}

// New returns a Reconciler. A zero retry policy falls back to
// DefaultRetryPolicy.
func New(cfg Config) *Reconciler {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy
	}
	return &Reconciler{
		orders:    cfg.Orders,
		catalog:   cfg.Catalog,
		profiles:  cfg.Profiles,
		ledger:    cfg.Ledger,
		notifier:  cfg.Notifier,
		publisher: cfg.Publisher,
		retry:     cfg.Retry,
	}
}

// Handle settles one event. It never panics on malformed input; every path
// returns an Outcome the transport can map to an acknowledgment.
func (r *Reconciler) Handle(ctx context.Context, ev stripe.Event) Outcome {
	switch ev.Type {
	case stripe.TypePaymentIntentSucceeded:
		return r.handlePaymentSucceeded(ctx, ev)
	case stripe.TypePaymentIntentFailed:
		log.Printf("[reconciler] payment failed event %s acknowledged", ev.ID)
		return Outcome{Status: StatusAcknowledged, EventType: ev.Type}
	default:
		log.Printf("[reconciler] unhandled event type %s (%s)", ev.Type, ev.ID)
		return Outcome{Status: StatusUnhandled, EventType: ev.Type}
	}
}

func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, ev stripe.Event) Outcome {
	// Redelivery of an event that already reached a definitive outcome
	// short-circuits without re-running the algorithm or re-sending email.
	// Ledger failures are ignored; the composite-key lookup below remains
	// the correctness backstop.
	if r.ledger != nil {
		if rec, err := r.ledger.Get(ctx, ev.ID); err != nil {
			log.Printf("[reconciler] ledger read for %s failed: %v", ev.ID, err)
		} else if rec != nil {
			log.Printf("[reconciler] event %s already settled as %s", ev.ID, rec.Outcome)
			return Outcome{
				Status:      Status(rec.Outcome),
				EventType:   ev.Type,
				OrderNumber: rec.OrderNumber,
				Detail:      rec.Detail,
			}
		}
	}

	pe, err := stripe.Normalize(ev)
	if err != nil {
		return Outcome{Status: StatusCreationFailed, EventType: ev.Type, Detail: err.Error()}
	}

	// Resolved before the lookup so the profile's account email is available
	// as a notification fallback on both paths.
	profileEmail := r.syncProfile(ctx, pe)

	key := compositeKey(pe)
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		found, err := r.orders.FindMatching(ctx, key)
		if err != nil {
			// Creating without a trustworthy lookup risks a duplicate
			// order; fail and let the sender redeliver.
			log.Printf("[reconciler] order lookup attempt %d for %s failed: %v", attempt, pe.PaymentIntentID, err)
			return Outcome{Status: StatusCreationFailed, EventType: ev.Type, Detail: fmt.Sprintf("order lookup: %v", err)}
		}
		if found != nil {
			log.Printf("[reconciler] order %s already recorded for %s (attempt %d)", found.OrderNumber, pe.PaymentIntentID, attempt)
			r.notify(ctx, *found, "", profileEmail)
			r.record(ctx, ev.ID, StatusAlreadyRecorded, found.OrderNumber, "")
			return Outcome{Status: StatusAlreadyRecorded, EventType: ev.Type, OrderNumber: found.OrderNumber}
		}
		if attempt < r.retry.MaxAttempts {
			if err := r.retry.wait(ctx); err != nil {
				return Outcome{Status: StatusCreationFailed, EventType: ev.Type, Detail: fmt.Sprintf("lookup interrupted: %v", err)}
			}
		}
	}

	order, err := r.createOrder(ctx, pe)
	if err != nil {
		log.Printf("[reconciler] creating order for %s failed: %v", pe.PaymentIntentID, err)
		return Outcome{Status: StatusCreationFailed, EventType: ev.Type, Detail: err.Error()}
	}
	log.Printf("[reconciler] created order %s for %s", order.OrderNumber, pe.PaymentIntentID)

	r.publish(ctx, *order, ev.ID)
	r.notify(ctx, *order, pe.OverrideEmail, profileEmail)
	r.record(ctx, ev.ID, StatusCreated, order.OrderNumber, "")
	return Outcome{Status: StatusCreated, EventType: ev.Type, OrderNumber: order.OrderNumber}
}

// syncProfile resolves the owning profile and, when the event opted in,
// refreshes its default delivery details. Returns the profile's account
// email for the notification fallback chain. Best-effort throughout.
func (r *Reconciler) syncProfile(ctx context.Context, pe stripe.PaymentEvent) string {
	if pe.Username == "" || pe.Username == stripe.AnonymousUser {
		return ""
	}
	profile, err := r.profiles.Get(ctx, pe.Username)
	if err != nil {
		log.Printf("[reconciler] profile lookup for %s failed: %v", pe.Username, err)
		return ""
	}
	if profile == nil {
		return ""
	}

	if pe.SaveInfo {
		// Only non-empty incoming values overwrite; a blank field on the
		// event keeps whatever the customer saved before.
		if pe.PhoneNumber != "" {
			profile.DefaultPhoneNumber = pe.PhoneNumber
		}
		if pe.Country != "" {
			profile.DefaultCountry = pe.Country
		}
		if pe.Postcode != "" {
			profile.DefaultPostcode = pe.Postcode
		}
		if pe.TownOrCity != "" {
			profile.DefaultTownOrCity = pe.TownOrCity
		}
		if pe.StreetAddress1 != "" {
			profile.DefaultStreetAddress1 = pe.StreetAddress1
		}
		if pe.StreetAddress2 != "" {
			profile.DefaultStreetAddress2 = pe.StreetAddress2
		}
		if pe.County != "" {
			profile.DefaultCounty = pe.County
		}
		if err := r.profiles.Save(ctx, *profile); err != nil {
			log.Printf("[reconciler] profile save for %s failed: %v", pe.Username, err)
		}
	}
	return profile.Email
}

// createOrder writes the header and its line items. Any failure after the
// header landed triggers the compensating delete so no header-only order
// survives.
func (r *Reconciler) createOrder(ctx context.Context, pe stripe.PaymentEvent) (*orders.Order, error) {
	order := orders.Order{
		OrderNumber:    orders.NewOrderNumber(),
		StripePID:      pe.PaymentIntentID,
		FullName:       pe.FullName,
		Email:          pe.BillingEmail,
		PhoneNumber:    pe.PhoneNumber,
		Country:        pe.Country,
		Postcode:       pe.Postcode,
		TownOrCity:     pe.TownOrCity,
		StreetAddress1: pe.StreetAddress1,
		StreetAddress2: pe.StreetAddress2,
		County:         pe.County,
		GrandTotal:     pe.GrandTotal.StringFixed(2),
		OriginalBag:    pe.OriginalBag,
	}
	if pe.Username != stripe.AnonymousUser {
		order.Username = pe.Username
	}

	if err := r.orders.Create(ctx, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items, err := r.buildLineItems(ctx, order.OrderNumber, pe.OriginalBag)
	if err == nil && len(items) > 0 {
		if addErr := r.orders.AddLineItems(ctx, items); addErr != nil {
			err = fmt.Errorf("add line items: %w", addErr)
		}
	}
	if err != nil {
		if delErr := r.orders.Delete(ctx, order.OrderNumber); delErr != nil {
			log.Printf("[reconciler] rollback of order %s failed: %v", order.OrderNumber, delErr)
		}
		return nil, err
	}
	return &order, nil
}

// buildLineItems expands the cart snapshot into line items. A malformed bag
// yields none; an unknown product id skips just that entry. A store error
// during product lookup aborts creation.
func (r *Reconciler) buildLineItems(ctx context.Context, orderNumber, rawBag string) ([]orders.LineItem, error) {
	snapshot, err := bag.Parse(rawBag)
	if err != nil {
		log.Printf("[reconciler] bag for order %s unparseable, creating no line items: %v", orderNumber, err)
	}

	var items []orders.LineItem
	seq := 0
	for _, id := range snapshot.ItemIDs() {
		product, err := r.catalog.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("look up product %s: %w", id, err)
		}
		if product == nil {
			log.Printf("[reconciler] product %s not found, skipping line item", id)
			continue
		}

		entry := snapshot[id]
		if entry.HasSizes() {
			for _, size := range entry.Sizes() {
				seq++
				items = append(items, lineItem(orderNumber, seq, product, entry.BySize[size], size))
			}
		} else {
			seq++
			items = append(items, lineItem(orderNumber, seq, product, entry.Quantity, ""))
		}
	}
	return items, nil
}

func lineItem(orderNumber string, seq int, product *catalog.Product, quantity int, size string) orders.LineItem {
	item := orders.LineItem{
		OrderNumber: orderNumber,
		LineItemID:  fmt.Sprintf("%s-%03d", orderNumber, seq),
		ProductID:   product.ProductID,
		ProductName: product.Name,
		Quantity:    quantity,
		ProductSize: size,
	}
	price, err := product.PriceDecimal()
	if err != nil {
		log.Printf("[reconciler] product %s has unparseable price %q, omitting line total", product.ProductID, product.Price)
		return item
	}
	item.LineItemTotal = price.Mul(decimal.NewFromInt(int64(quantity))).StringFixed(2)
	return item
}

func (r *Reconciler) notify(ctx context.Context, order orders.Order, overrideEmail, profileEmail string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendConfirmation(ctx, order, overrideEmail, profileEmail); err != nil {
		log.Printf("[reconciler] confirmation email for order %s failed: %v", order.OrderNumber, err)
	}
}

func (r *Reconciler) publish(ctx context.Context, order orders.Order, eventID string) {
	if r.publisher == nil {
		return
	}
	msg := aws.OrderCreatedMessage{
		OrderNumber: order.OrderNumber,
		StripePID:   order.StripePID,
		EventID:     eventID,
		GrandTotal:  order.GrandTotal,
		Email:       order.Email,
		CreatedAt:   order.CreatedAt,
	}
	if err := r.publisher.PublishOrderCreated(ctx, msg); err != nil {
		log.Printf("[reconciler] order created event for %s failed: %v", order.OrderNumber, err)
	}
}

func (r *Reconciler) record(ctx context.Context, eventID string, status Status, orderNumber, detail string) {
	if r.ledger == nil {
		return
	}
	if _, err := r.ledger.MarkProcessed(ctx, eventID, string(status), orderNumber, detail); err != nil {
		log.Printf("[reconciler] ledger write for %s failed: %v", eventID, err)
	}
}

func compositeKey(pe stripe.PaymentEvent) orders.CompositeKey {
	return orders.CompositeKey{
		StripePID:      pe.PaymentIntentID,
		OriginalBag:    pe.OriginalBag,
		GrandTotal:     pe.GrandTotal.StringFixed(2),
		FullName:       pe.FullName,
		Email:          pe.BillingEmail,
		PhoneNumber:    pe.PhoneNumber,
		Country:        pe.Country,
		Postcode:       pe.Postcode,
		TownOrCity:     pe.TownOrCity,
		StreetAddress1: pe.StreetAddress1,
		StreetAddress2: pe.StreetAddress2,
		County:         pe.County,
	}
}
