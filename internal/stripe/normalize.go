package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentEvent is the normalized view of a payment event. Every optional
// wire field is defaulted here, exactly once, so matching and storage never
// see an absent value: text fields become empty strings, the bag becomes
// "{}", the username becomes AnonymousUser.
type PaymentEvent struct {
	EventID   string
	EventType string

	PaymentIntentID string
	OriginalBag     string // serialized cart snapshot, exactly as received
	SaveInfo        bool
	Username        string
	OverrideEmail   string // metadata-supplied address, used only for notification fallback

	BillingEmail string

	FullName       string
	PhoneNumber    string
	StreetAddress1 string
	StreetAddress2 string
	TownOrCity     string
	County         string
	Postcode       string
	Country        string

	GrandTotal decimal.Decimal // major units, 2 places
}

// Normalize decodes the payment intent out of the envelope and fills every
// default. The only error case is an undecodable data.object; missing fields
// inside a decodable object all normalize to zero values.
func Normalize(ev Event) (PaymentEvent, error) {
	var intent PaymentIntent
	if err := json.Unmarshal(ev.Data.Object, &intent); err != nil {
		return PaymentEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}

	out := PaymentEvent{
		EventID:         ev.ID,
		EventType:       ev.Type,
		PaymentIntentID: intent.ID,
		OriginalBag:     "{}",
		Username:        AnonymousUser,
	}

	if md := intent.Metadata; md != nil {
		if md["bag"] != "" {
			out.OriginalBag = md["bag"]
		}
		out.SaveInfo = md["save_info"] == "true"
		if md["username"] != "" {
			out.Username = md["username"]
		}
		out.OverrideEmail = md["email"]
	}

	// Billing contact and charged amount come from the first charge when the
	// intent carries one, otherwise from the intent-level fallbacks.
	var billing *BillingDetails
	var amountMinor int64
	if intent.Charges != nil && len(intent.Charges.Data) > 0 {
		charge := intent.Charges.Data[0]
		billing = charge.BillingDetails
		amountMinor = charge.Amount
	} else {
		billing = intent.BillingDetails
		amountMinor = intent.AmountReceived
	}
	if billing != nil {
		out.BillingEmail = billing.Email
	}
	out.GrandTotal = decimal.NewFromInt(amountMinor).Shift(-2).Round(2)

	if sh := intent.Shipping; sh != nil {
		out.FullName = sh.Name
		out.PhoneNumber = sh.Phone
		if addr := sh.Address; addr != nil {
			out.StreetAddress1 = addr.Line1
			out.StreetAddress2 = addr.Line2
			out.TownOrCity = addr.City
			out.County = addr.State
			out.Postcode = addr.PostalCode
			out.Country = addr.Country
		}
	}

	return out, nil
}
