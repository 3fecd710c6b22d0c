package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
)

// New returns a configured validator with the webhook envelope rules
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// payment-intent events must carry an object to decode; other event
	// types are acknowledged without looking inside.
	v.RegisterStructValidation(eventEnvelopeValidation, stripe.Event{})

	return v
}

func eventEnvelopeValidation(sl validatorv10.StructLevel) {
	ev := sl.Current().Interface().(stripe.Event)

	if !strings.HasPrefix(ev.Type, "payment_intent.") {
		return
	}
	obj := strings.TrimSpace(string(ev.Data.Object))
	if obj == "" || obj == "null" {
		sl.ReportError(ev.Data.Object, "data.object", "Object", "required_payment_object", "")
	}
}
