package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/handlers"
)

func main() {
	clients, err := aws.NewAWSClients(context.Background())

	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:       clients.DynamoDB,
		SQSClient:            clients.SQS,
		SESClient:            clients.SES,
		OrdersTable:          os.Getenv("ORDERS_TABLE"),
		OrderLineItemsTable:  os.Getenv("ORDER_LINE_ITEMS_TABLE"),
		ProductsTable:        os.Getenv("PRODUCTS_TABLE"),
		ProfilesTable:        os.Getenv("PROFILES_TABLE"),
		ProcessedEventsTable: os.Getenv("PROCESSED_EVENTS_TABLE"),
		QueueURL:             os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		FromEmail:            os.Getenv("FROM_EMAIL"),
	}

	metrics := aws.NewMetrics(clients.CloudWatch, os.Getenv("METRICS_NAMESPACE"))
	p := NewProcessor(handlers.NewReconciler(cfg), metrics)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"id":"evt_local_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_local_1","amount":1000,"metadata":{"bag":"{}"}}}}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
