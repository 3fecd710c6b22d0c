package validation

import (
	"encoding/json"
	"testing"

	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
)

func TestEventEnvelope_Valid(t *testing.T) {
	v := New()

	ev := stripe.Event{
		ID:   "evt_123",
		Type: stripe.TypePaymentIntentSucceeded,
		Data: stripe.EventData{Object: json.RawMessage(`{"id": "pi_123"}`)},
	}

	if err := v.Struct(ev); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestEventEnvelope_MissingIDAndType(t *testing.T) {
	v := New()

	ev := stripe.Event{
		Data: stripe.EventData{Object: json.RawMessage(`{}`)},
	}

	if err := v.Struct(ev); err == nil {
		t.Fatal("expected validation errors for missing id and type, got nil")
	}
}

func TestEventEnvelope_PaymentIntentNeedsObject(t *testing.T) {
	v := New()

	for _, object := range []json.RawMessage{nil, json.RawMessage(""), json.RawMessage("null")} {
		ev := stripe.Event{
			ID:   "evt_123",
			Type: stripe.TypePaymentIntentSucceeded,
			Data: stripe.EventData{Object: object},
		}
		if err := v.Struct(ev); err == nil {
			t.Fatalf("expected error for payment intent without object (%q), got nil", object)
		}
	}
}

func TestEventEnvelope_OtherTypesNeedNoObject(t *testing.T) {
	v := New()

	ev := stripe.Event{
		ID:   "evt_123",
		Type: "charge.refunded",
	}

	if err := v.Struct(ev); err != nil {
		t.Fatalf("non payment-intent events need no object, got: %v", err)
	}
}
