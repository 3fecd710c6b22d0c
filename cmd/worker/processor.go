package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/reconciler"
	"github.com/mcalderon/go-checkout-reconciler/internal/stripe"
)

// settler settles one Stripe event. Satisfied by *reconciler.Reconciler.
type settler interface {
	Handle(ctx context.Context, ev stripe.Event) reconciler.Outcome
}

// Processor drains SQS-delivered Stripe events through the reconciler.
// Queue delivery and HTTP delivery settle events identically; only the
// acknowledgment differs.
type Processor struct {
	rec     settler
	metrics *aws.Metrics
}

// NewProcessor wires a processor around a reconciler. metrics may be nil.
func NewProcessor(rec settler, metrics *aws.Metrics) *Processor {
	return &Processor{rec: rec, metrics: metrics}
}

// Handle processes one SQS batch. The first record that cannot be settled
// stops the batch with an error so the runtime redelivers; the queue's
// redrive policy decides when a poisoned record moves to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	log.Printf("[worker] received %d records", len(ev.Records))
	for _, rec := range ev.Records {
		if err := p.processRecord(ctx, rec); err != nil {
			log.Printf("[worker] record %s: %v", rec.MessageId, err)
			return err
		}
	}
	return nil
}

func (p *Processor) processRecord(ctx context.Context, rec events.SQSMessage) error {
	var ev stripe.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid event body: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return errors.New("event envelope missing id or type")
	}

	out := p.rec.Handle(ctx, ev)

	if p.metrics != nil {
		if err := p.metrics.CountOutcome(ctx, out.EventType, string(out.Status)); err != nil {
			log.Printf("[worker] outcome metric for %s failed: %v", ev.ID, err)
		}
	}

	if out.Status == reconciler.StatusCreationFailed {
		return fmt.Errorf("event %s not settled: %s", ev.ID, out.Detail)
	}

	log.Printf("[worker] event %s settled: %s", ev.ID, out.Status)
	return nil
}
