package stripe

import (
	"encoding/json"
	"testing"
)

func eventWithObject(t *testing.T, obj string) Event {
	t.Helper()
	return Event{
		ID:   "evt_1",
		Type: TypePaymentIntentSucceeded,
		Data: EventData{Object: json.RawMessage(obj)},
	}
}

func TestNormalize_ChargeWinsOverIntent(t *testing.T) {
	ev := eventWithObject(t, `{
		"id": "pi_123",
		"amount": 5000,
		"amount_received": 1,
		"billing_details": {"email": "intent@example.com"},
		"charges": {"data": [{"id": "ch_1", "amount": 4999, "billing_details": {"email": "charge@example.com"}}]},
		"metadata": {"bag": "{\"12\": 3}", "save_info": "true", "username": "ada", "email": "override@example.com"},
		"shipping": {
			"name": "Ada Lovelace",
			"phone": "555-0100",
			"address": {"line1": "1 Analytical Way", "line2": "", "city": "London", "state": "", "postal_code": "N1 9GU", "country": "GB"}
		}
	}`)

	got, err := Normalize(ev)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got.PaymentIntentID != "pi_123" {
		t.Fatalf("pid mismatch: %s", got.PaymentIntentID)
	}
	if got.BillingEmail != "charge@example.com" {
		t.Fatalf("expected charge billing email, got %s", got.BillingEmail)
	}
	if got.GrandTotal.StringFixed(2) != "49.99" {
		t.Fatalf("expected 49.99, got %s", got.GrandTotal.StringFixed(2))
	}
	if got.OriginalBag != `{"12": 3}` {
		t.Fatalf("bag not preserved verbatim: %q", got.OriginalBag)
	}
	if !got.SaveInfo || got.Username != "ada" || got.OverrideEmail != "override@example.com" {
		t.Fatalf("metadata not normalized: %+v", got)
	}
	if got.FullName != "Ada Lovelace" || got.TownOrCity != "London" || got.Postcode != "N1 9GU" {
		t.Fatalf("shipping not normalized: %+v", got)
	}
	if got.StreetAddress2 != "" || got.County != "" {
		t.Fatalf("empty address fields should stay empty, got %+v", got)
	}
}

func TestNormalize_IntentFallbackWithoutCharges(t *testing.T) {
	ev := eventWithObject(t, `{
		"id": "pi_456",
		"amount_received": 1250,
		"billing_details": {"email": "fallback@example.com"}
	}`)

	got, err := Normalize(ev)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got.BillingEmail != "fallback@example.com" {
		t.Fatalf("expected intent billing email, got %s", got.BillingEmail)
	}
	if got.GrandTotal.StringFixed(2) != "12.50" {
		t.Fatalf("expected 12.50, got %s", got.GrandTotal.StringFixed(2))
	}
}

func TestNormalize_Defaults(t *testing.T) {
	got, err := Normalize(eventWithObject(t, `{}`))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got.OriginalBag != "{}" {
		t.Fatalf("missing bag should default to {}, got %q", got.OriginalBag)
	}
	if got.Username != AnonymousUser {
		t.Fatalf("missing username should default to %s, got %q", AnonymousUser, got.Username)
	}
	if got.SaveInfo {
		t.Fatalf("missing save_info should be false")
	}
	if got.FullName != "" || got.BillingEmail != "" || got.Country != "" {
		t.Fatalf("missing text fields should be empty strings: %+v", got)
	}
	if got.GrandTotal.StringFixed(2) != "0.00" {
		t.Fatalf("missing amount should be 0.00, got %s", got.GrandTotal.StringFixed(2))
	}
}

func TestNormalize_SaveInfoFlag(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"True", false}, // only the lowercase literal opts in
		{"", false},
	}
	for _, tc := range cases {
		ev := eventWithObject(t, `{"metadata": {"save_info": "`+tc.raw+`"}}`)
		got, err := Normalize(ev)
		if err != nil {
			t.Fatalf("Normalize error for %q: %v", tc.raw, err)
		}
		if got.SaveInfo != tc.want {
			t.Fatalf("save_info %q: expected %v, got %v", tc.raw, tc.want, got.SaveInfo)
		}
	}
}

func TestNormalize_UndecodableObject(t *testing.T) {
	if _, err := Normalize(eventWithObject(t, `"not an object"`)); err == nil {
		t.Fatal("expected error for non-object payload")
	}
	if _, err := Normalize(Event{ID: "evt_x", Type: TypePaymentIntentSucceeded}); err == nil {
		t.Fatal("expected error for absent payload")
	}
}
