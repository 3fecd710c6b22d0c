package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mcalderon/go-checkout-reconciler/internal/reconciler"
	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
)

// --- mock implementations ---

type stubSettler struct {
	outcomes map[string]reconciler.Outcome
	handled  []string
}

func (s *stubSettler) Handle(_ context.Context, ev stripe.Event) reconciler.Outcome {
	s.handled = append(s.handled, ev.ID)
	if out, ok := s.outcomes[ev.ID]; ok {
		return out
	}
	return reconciler.Outcome{Status: reconciler.StatusAcknowledged, EventType: ev.Type}
}

func eventBody(id string) string {
	return fmt.Sprintf(`{"id":%q,"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":1000,"metadata":{"bag":"{}"}}}}`, id)
}

func sqsEvent(bodies ...string) events.SQSEvent {
	ev := events.SQSEvent{}
	for i, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{
			MessageId: fmt.Sprintf("msg-%d", i+1),
			Body:      b,
		})
	}
	return ev
}

// --- test cases ---

func TestHandle_SettlesBatch(t *testing.T) {
	s := &stubSettler{outcomes: map[string]reconciler.Outcome{
		"evt_1": {Status: reconciler.StatusCreated, EventType: "payment_intent.succeeded", OrderNumber: "A1"},
		"evt_2": {Status: reconciler.StatusAlreadyRecorded, EventType: "payment_intent.succeeded", OrderNumber: "A1"},
	}}
	p := NewProcessor(s, nil)

	err := p.Handle(context.Background(), sqsEvent(eventBody("evt_1"), eventBody("evt_2")))
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if len(s.handled) != 2 || s.handled[0] != "evt_1" || s.handled[1] != "evt_2" {
		t.Errorf("expected both events settled in order, got %v", s.handled)
	}
}

func TestHandle_CreationFailedReturnsError(t *testing.T) {
	s := &stubSettler{outcomes: map[string]reconciler.Outcome{
		"evt_1": {Status: reconciler.StatusCreationFailed, EventType: "payment_intent.succeeded", Detail: "order lookup: timeout"},
	}}
	p := NewProcessor(s, nil)

	err := p.Handle(context.Background(), sqsEvent(eventBody("evt_1")))
	if err == nil {
		t.Fatal("expected an error for an unsettled event")
	}
	if !strings.Contains(err.Error(), "evt_1") || !strings.Contains(err.Error(), "order lookup: timeout") {
		t.Errorf("error should name the event and the detail, got %v", err)
	}
}

func TestHandle_InvalidBodyReturnsError(t *testing.T) {
	s := &stubSettler{}
	p := NewProcessor(s, nil)

	err := p.Handle(context.Background(), sqsEvent(`{not json`))
	if err == nil {
		t.Fatal("expected an error for an undecodable record")
	}
	if len(s.handled) != 0 {
		t.Errorf("undecodable record must not reach the reconciler, handled %v", s.handled)
	}
}

func TestHandle_MissingEnvelopeFieldsReturnsError(t *testing.T) {
	s := &stubSettler{}
	p := NewProcessor(s, nil)

	err := p.Handle(context.Background(), sqsEvent(`{"type":"payment_intent.succeeded"}`))
	if err == nil {
		t.Fatal("expected an error for an envelope without an id")
	}
	if len(s.handled) != 0 {
		t.Errorf("incomplete envelope must not reach the reconciler, handled %v", s.handled)
	}
}

func TestHandle_StopsAtFirstFailure(t *testing.T) {
	s := &stubSettler{outcomes: map[string]reconciler.Outcome{
		"evt_1": {Status: reconciler.StatusCreationFailed, EventType: "payment_intent.succeeded", Detail: "boom"},
	}}
	p := NewProcessor(s, nil)

	err := p.Handle(context.Background(), sqsEvent(eventBody("evt_1"), eventBody("evt_2")))
	if err == nil {
		t.Fatal("expected the batch to fail")
	}
	if len(s.handled) != 1 || s.handled[0] != "evt_1" {
		t.Errorf("expected processing to stop at the failed record, handled %v", s.handled)
	}
}
